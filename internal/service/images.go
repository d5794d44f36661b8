package service

import (
	"strings"

	"github.com/timmy/wdym/internal/storage"
)

// resolveImage turns a stored image reference into what clients should load.
// Absolute URLs and references without object storage pass through unchanged.
func resolveImage(store storage.ObjectStorage, ref string) string {
	if store == nil || ref == "" {
		return ref
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return store.GetURL(ref)
}
