package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credkeeper/credkeeper/internal/common"
)

func TestMemoryStore_Transitions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	require.NoError(t, s.Save(ctx, "t1", "alice", expires))

	state, err := s.State(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StateIssued, state)

	require.NoError(t, s.Consume(ctx, "t1"))
	state, err = s.State(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StateConsumed, state)

	// Terminal states admit no further transitions.
	assert.ErrorIs(t, s.Consume(ctx, "t1"), common.ErrNotFound)
	assert.ErrorIs(t, s.Revoke(ctx, "t1"), common.ErrNotFound)
}

func TestMemoryStore_Revoke(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "t1", "alice", time.Now().Add(time.Hour)))
	require.NoError(t, s.Revoke(ctx, "t1"))

	state, err := s.State(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StateRevoked, state)

	assert.ErrorIs(t, s.Consume(ctx, "t1"), common.ErrNotFound)
}

func TestMemoryStore_UnknownID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.State(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.Consume(ctx, "ghost"), common.ErrNotFound)
	assert.ErrorIs(t, s.Revoke(ctx, "ghost"), common.ErrNotFound)
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Save(ctx, "old", "alice", now.Add(-time.Minute)))
	require.NoError(t, s.Save(ctx, "fresh", "bob", now.Add(time.Hour)))

	removed, err := s.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.State(ctx, "old")
	assert.ErrorIs(t, err, common.ErrNotFound)
	state, err := s.State(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, StateIssued, state)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "issued", StateIssued.String())
	assert.Equal(t, "consumed", StateConsumed.String())
	assert.Equal(t, "revoked", StateRevoked.String())
}
