// Package session persists the identity of whoever is logged in.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nfrund/kpiboard/internal/domain"
	"github.com/nfrund/kpiboard/internal/storage"
)

// IdentityKey is the single slot the store uses.
const IdentityKey = "logged_in_user"

// Store wraps one persisted slot holding the current identity.
// There is at most one identity at a time.
type Store struct {
	mu    sync.Mutex
	slots storage.Store
}

// NewStore creates a Store over the given slot backend.
func NewStore(slots storage.Store) *Store {
	return &Store{slots: slots}
}

// Get reads the current identity. ok is false when nobody is logged in.
func (s *Store) Get(ctx context.Context) (id domain.Identity, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok, err := s.slots.Read(ctx, IdentityKey)
	if err != nil {
		return "", false, fmt.Errorf("reading session: %w", err)
	}
	if !ok || v == "" {
		return "", false, nil
	}
	return domain.Identity(v), true, nil
}

// Set persists id, replacing any previous identity. Empty ids are rejected.
func (s *Store) Set(ctx context.Context, id domain.Identity) error {
	if strings.TrimSpace(string(id)) == "" {
		return domain.ErrInvalidIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.slots.Write(ctx, IdentityKey, string(id)); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Clear removes the identity. Clearing an empty slot succeeds.
// If the slot cannot be removed it is blanked instead, which Get reads as empty.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.slots.Remove(ctx, IdentityKey)
	if err == nil {
		return nil
	}
	if werr := s.slots.Write(ctx, IdentityKey, ""); werr != nil {
		return fmt.Errorf("clearing session: %w", errors.Join(err, werr))
	}
	return nil
}
