package storage

import (
	"context"
	"errors"
)

// ErrInvalidKey is returned for keys that are empty or try to leave the store root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Store defines a persisted key/value slot backend. Values are opaque strings.
type Store interface {
	// Read returns the value under key and whether it exists.
	Read(ctx context.Context, key string) (string, bool, error)
	// Write replaces the value under key.
	Write(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
