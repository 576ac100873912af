package session

import (
	"context"
	"errors"
	"testing"

	"github.com/nfrund/kpiboard/internal/domain"
	"github.com/nfrund/kpiboard/internal/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(storage.NewAferoStore(afero.NewMemMapFs(), "session"))
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "fresh store has no identity")

	require.NoError(t, s.Set(ctx, "a@b.com"))
	id, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.Identity("a@b.com"), id)

	require.NoError(t, s.Clear(ctx))
	_, ok, err = s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Set(ctx, "first@example.com"))
	require.NoError(t, s.Set(ctx, "second@example.com"))

	id, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.Identity("second@example.com"), id)
}

func TestStore_SetRejectsEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.Set(ctx, "keep@example.com"))

	for _, id := range []domain.Identity{"", "   "} {
		err := s.Set(ctx, id)
		assert.ErrorIs(t, err, domain.ErrInvalidIdentity)
	}

	got, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "rejected set must not touch the slot")
	assert.Equal(t, domain.Identity("keep@example.com"), got)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
}

// brokenSlots wraps a working backend and fails the operations that have an error set.
type brokenSlots struct {
	storage.Store
	removeErr error
	writeErr  error
}

func (b *brokenSlots) Remove(ctx context.Context, key string) error {
	if b.removeErr != nil {
		return b.removeErr
	}
	return b.Store.Remove(ctx, key)
}

func (b *brokenSlots) Write(ctx context.Context, key, value string) error {
	if b.writeErr != nil {
		return b.writeErr
	}
	return b.Store.Write(ctx, key, value)
}

func TestStore_ClearBlanksSlotWhenRemoveFails(t *testing.T) {
	ctx := context.Background()
	slots := &brokenSlots{Store: storage.NewAferoStore(afero.NewMemMapFs(), "session")}
	s := NewStore(slots)
	require.NoError(t, s.Set(ctx, "a@b.com"))

	slots.removeErr = errors.New("permission denied")
	require.NoError(t, s.Clear(ctx))

	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ClearReportsWhenSlotIsStuck(t *testing.T) {
	ctx := context.Background()
	slots := &brokenSlots{Store: storage.NewAferoStore(afero.NewMemMapFs(), "session")}
	s := NewStore(slots)
	require.NoError(t, s.Set(ctx, "a@b.com"))

	slots.removeErr = errors.New("permission denied")
	slots.writeErr = errors.New("read-only file system")
	err := s.Clear(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, slots.removeErr)
	assert.ErrorIs(t, err, slots.writeErr)

	id, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.Identity("a@b.com"), id)
}
