package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced game, meme, caption or user does not exist,
	// or when the meme pool cannot produce a round.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned for missing or mismatched identities.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput is returned for malformed requests that reach a service.
	ErrInvalidInput = errors.New("invalid input")
)
