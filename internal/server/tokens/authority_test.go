package tokens

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credkeeper/credkeeper/internal/common"
)

func newTestAuthority(t *testing.T) *Authority {
	t.Helper()
	a, err := NewAuthority([]byte("test-secret"), 15*time.Minute, 24*time.Hour, NewMemoryStore())
	require.NoError(t, err)
	return a
}

func TestNewAuthority_Misconfigured(t *testing.T) {
	_, err := NewAuthority(nil, time.Minute, time.Hour, NewMemoryStore())
	require.Error(t, err)

	_, err = NewAuthority([]byte("k"), 0, time.Hour, NewMemoryStore())
	require.Error(t, err)
}

func TestIssuePair_Claims(t *testing.T) {
	a := newTestAuthority(t)
	ctx := context.Background()

	pair, err := a.IssuePair(ctx, "alice", "admin")
	require.NoError(t, err)

	assert.True(t, pair.Access.ExpiresAt.Before(pair.Refresh.ExpiresAt),
		"access token must expire before the refresh token")

	access, err := a.Verify(ctx, pair.Access.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", access.Subject)
	assert.Equal(t, "admin", access.Role)
	assert.Equal(t, KindAccess, access.Kind)
	assert.NotEmpty(t, access.ID)

	refresh, err := a.Verify(ctx, pair.Refresh.Value)
	require.NoError(t, err)
	assert.Equal(t, KindRefresh, refresh.Kind)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestVerify_InvalidToken(t *testing.T) {
	a := newTestAuthority(t)
	ctx := context.Background()

	_, err := a.Verify(ctx, "definitely-not-a-jwt")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	// A token signed by a different authority fails on signature.
	other, err := NewAuthority([]byte("other-secret"), time.Minute, time.Hour, NewMemoryStore())
	require.NoError(t, err)
	pair, err := other.IssuePair(ctx, "alice", "user")
	require.NoError(t, err)

	_, err = a.Verify(ctx, pair.Access.Value)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	// Tampering with the payload invalidates the signature too.
	pair2, err := a.IssuePair(ctx, "alice", "user")
	require.NoError(t, err)
	parts := strings.Split(pair2.Access.Value, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	_, err = a.Verify(ctx, tampered)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	a := newTestAuthority(t)
	ctx := context.Background()

	pair, err := a.IssuePair(ctx, "alice", "user")
	require.NoError(t, err)

	a.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	_, err = a.Verify(ctx, pair.Access.Value)
	assert.ErrorIs(t, err, common.ErrTokenExpired)

	_, err = a.ConsumeRefresh(ctx, pair.Refresh.Value)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestConsumeRefresh_SingleUse(t *testing.T) {
	a := newTestAuthority(t)
	ctx := context.Background()

	pair, err := a.IssuePair(ctx, "alice", "user")
	require.NoError(t, err)

	claims, err := a.ConsumeRefresh(ctx, pair.Refresh.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)

	// Replays fail even though signature and expiry are still valid.
	_, err = a.ConsumeRefresh(ctx, pair.Refresh.Value)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	assert.ErrorIs(t, a.Revoke(ctx, pair.Refresh.Value), common.ErrNotFound)
}

func TestConsumeRefresh_RejectsAccessToken(t *testing.T) {
	a := newTestAuthority(t)
	ctx := context.Background()

	pair, err := a.IssuePair(ctx, "alice", "user")
	require.NoError(t, err)

	_, err = a.ConsumeRefresh(ctx, pair.Access.Value)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	a := newTestAuthority(t)
	ctx := context.Background()

	pair, err := a.IssuePair(ctx, "alice", "user")
	require.NoError(t, err)

	require.NoError(t, a.Revoke(ctx, pair.Refresh.Value))

	// Revoked is terminal: neither verification nor consumption succeeds.
	_, err = a.Verify(ctx, pair.Refresh.Value)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	_, err = a.ConsumeRefresh(ctx, pair.Refresh.Value)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	assert.ErrorIs(t, a.Revoke(ctx, pair.Refresh.Value), common.ErrNotFound)
}

func TestRevoke_ExpiredToken(t *testing.T) {
	a := newTestAuthority(t)
	ctx := context.Background()

	pair, err := a.IssuePair(ctx, "alice", "user")
	require.NoError(t, err)

	a.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	assert.ErrorIs(t, a.Revoke(ctx, pair.Refresh.Value), common.ErrNotFound)
}

func TestConsumeRefresh_ConcurrentExactlyOneWins(t *testing.T) {
	a := newTestAuthority(t)
	ctx := context.Background()

	pair, err := a.IssuePair(ctx, "alice", "user")
	require.NoError(t, err)

	const workers = 16

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.ConsumeRefresh(ctx, pair.Refresh.Value)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, invalid int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, common.ErrInvalidToken)
		invalid++
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, invalid)
}

func TestSweepExpired(t *testing.T) {
	store := NewMemoryStore()
	a, err := NewAuthority([]byte("test-secret"), time.Minute, time.Hour, store)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = a.IssuePair(ctx, "alice", "user")
	require.NoError(t, err)
	_, err = a.IssuePair(ctx, "bob", "user")
	require.NoError(t, err)

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	removed, err := a.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = a.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
