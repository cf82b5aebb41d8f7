package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/credkeeper/credkeeper/internal/common"
	"github.com/credkeeper/credkeeper/internal/logging"
	"github.com/credkeeper/credkeeper/internal/server/password"
	"github.com/credkeeper/credkeeper/internal/server/tokens"
	"github.com/credkeeper/credkeeper/internal/server/users"
)

func newTestService(t *testing.T) (*Service, *users.MemoryRepository) {
	t.Helper()

	repo := users.NewMemoryRepository()
	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	authority, err := tokens.NewAuthority([]byte("test-secret"), 15*time.Minute, 24*time.Hour, tokens.NewMemoryStore())
	require.NoError(t, err)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return NewService(repo, hasher, authority, logger), repo
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, "alice", "a@x.com", users.RoleUser, "Secret1!")
	require.NoError(t, err)

	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.Equal(t, users.RoleUser, res.User.Role)
	assert.NotEqual(t, "Secret1!", res.User.PasswordHash, "plaintext must never be stored")
	assert.True(t, res.Tokens.Access.ExpiresAt.Before(res.Tokens.Refresh.ExpiresAt))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, "alice", "a@x.com", users.RoleUser, "Secret1!")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other@x.com", users.RoleUser, "Secret1!")
	assert.ErrorIs(t, err, common.ErrConflict)

	// The first record is unchanged.
	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.User.Email, got.Email)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@x.com", users.RoleUser, "Secret1!")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "bob", "a@x.com", users.RoleUser, "Secret1!")
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@x.com", users.RoleAdmin, "Secret1!")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "alice", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, users.RoleAdmin, res.User.Role)
	assert.NotEmpty(t, res.Tokens.Access.Value)
	assert.NotEmpty(t, res.Tokens.Refresh.Value)
}

func TestLogin_EnumerationResistance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@x.com", users.RoleUser, "Secret1!")
	require.NoError(t, err)

	unknownErr := func() error {
		_, err := svc.Login(ctx, "nobody", "whatever")
		return err
	}()
	wrongPwErr := func() error {
		_, err := svc.Login(ctx, "alice", "wrong-password")
		return err
	}()

	require.ErrorIs(t, unknownErr, common.ErrAuthenticationFailed)
	require.ErrorIs(t, wrongPwErr, common.ErrAuthenticationFailed)
	// Same kind and same message: nothing distinguishes the two cases.
	assert.Equal(t, unknownErr.Error(), wrongPwErr.Error())
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "alice", "a@x.com", users.RoleUser, "Secret1!")
	require.NoError(t, err)

	res, err := svc.Refresh(ctx, reg.Tokens.Refresh.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)
	assert.NotEqual(t, reg.Tokens.Refresh.Value, res.Tokens.Refresh.Value)

	// Single use: the same token cannot be refreshed twice.
	_, err = svc.Refresh(ctx, reg.Tokens.Refresh.Value)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	// The rotated token is still live.
	_, err = svc.Refresh(ctx, res.Tokens.Refresh.Value)
	require.NoError(t, err)
}

func TestRefresh_OlderUnconsumedPairStaysValid(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@x.com", users.RoleUser, "Secret1!")
	require.NoError(t, err)

	first, err := svc.Login(ctx, "alice", "Secret1!")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "alice", "Secret1!")
	require.NoError(t, err)

	// Consuming the second pair's token does not invalidate the first's.
	_, err = svc.Refresh(ctx, second.Tokens.Refresh.Value)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, first.Tokens.Refresh.Value)
	require.NoError(t, err)
}

func TestLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "alice", "a@x.com", users.RoleUser, "Secret1!")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, reg.Tokens.Refresh.Value))

	// Logged-out tokens can be neither refreshed nor logged out again.
	_, err = svc.Refresh(ctx, reg.Tokens.Refresh.Value)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	assert.ErrorIs(t, svc.Logout(ctx, reg.Tokens.Refresh.Value), common.ErrNotFound)
}

func TestRefresh_UserDeletedAfterIssuance(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "alice", "a@x.com", users.RoleUser, "Secret1!")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "alice"))

	_, err = svc.Refresh(ctx, reg.Tokens.Refresh.Value)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// The token was consumed before the lookup failed and stays consumed.
	_, err = svc.Refresh(ctx, reg.Tokens.Refresh.Value)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
