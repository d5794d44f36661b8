package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/repository"
	"golang.org/x/crypto/scrypt"
)

// scrypt parameters for stored password hashes.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltBytes    = 16
)

// Identity is the authenticated user as exposed to clients and handlers.
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	Secret string
	TTL    time.Duration
}

// AuthService verifies credentials and issues session tokens.
type AuthService struct {
	userRepo *repository.UserRepository
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewAuthService creates an auth service.
// Parameters:
//   - userRepo: repository for user accounts.
//   - cfg: token secret and lifetime.
// Returns:
//   - *AuthService: initialized service.
func NewAuthService(userRepo *repository.UserRepository, cfg *AuthConfig) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		secret:   []byte(cfg.Secret),
		ttl:      cfg.TTL,
		now:      time.Now,
	}
}

// Login checks a username and password.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - username: account name.
//   - password: plain-text password.
// Returns:
//   - *Identity: the user on success.
//   - error: wraps domain.ErrUnauthorized for unknown users or wrong passwords.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Identity, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown user: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}

	stored, err := hex.DecodeString(user.Password)
	if err != nil {
		return nil, fmt.Errorf("user %d has malformed password hash: %w", user.ID, err)
	}
	derived, err := deriveKey(password, user.Salt)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(stored, derived) != 1 {
		return nil, fmt.Errorf("wrong password: %w", domain.ErrUnauthorized)
	}

	return &Identity{UserID: user.ID, Username: user.Username}, nil
}

// GetUser looks up a user by name.
func (s *AuthService) GetUser(ctx context.Context, username string) (*Identity, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: user.ID, Username: user.Username}, nil
}

// IssueToken signs a session token for id.
// Parameters:
//   - id: authenticated user.
// Returns:
//   - string: HS256 JWT.
//   - time.Time: expiry of the token.
//   - error: non-nil if signing fails.
func (s *AuthService) IssueToken(id *Identity) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := sessionClaims{
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expires, nil
}

// ParseToken validates a session token and returns its user.
// Parameters:
//   - token: JWT from the session cookie.
// Returns:
//   - *Identity: the user the token was issued to.
//   - error: wraps domain.ErrUnauthorized for invalid or expired tokens.
func (s *AuthService) ParseToken(token string) (*Identity, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %v: %w", err, domain.ErrUnauthorized)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.Username == "" {
		return nil, fmt.Errorf("malformed session claims: %w", domain.ErrUnauthorized)
	}
	return &Identity{UserID: userID, Username: claims.Username}, nil
}

// HashPassword returns the hex scrypt hash of password with salt.
func HashPassword(password, salt string) (string, error) {
	key, err := deriveKey(password, salt)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// NewSalt returns a random hex salt.
func NewSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func deriveKey(password, salt string) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return key, nil
}
