// Package auth contains the authentication service: it orchestrates
// registration, login, logout, and token refresh on top of the credential
// store, the password hasher, and the token authority.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/credkeeper/credkeeper/internal/common"
	"github.com/credkeeper/credkeeper/internal/logging"
	"github.com/credkeeper/credkeeper/internal/server/password"
	"github.com/credkeeper/credkeeper/internal/server/tokens"
	"github.com/credkeeper/credkeeper/internal/server/users"
)

// Result is what every successful operation hands back to the transport
// layer: the user record and a freshly issued token pair.
type Result struct {
	User   *users.User
	Tokens *tokens.Pair
}

// Service wires the three collaborators together. They are passed in at
// construction so the composing caller controls their lifecycle; the service
// holds no hidden global state.
type Service struct {
	users  users.Repository
	hasher *password.Hasher
	tokens *tokens.Authority
	logger logging.Logger
}

func NewService(repo users.Repository, hasher *password.Hasher, authority *tokens.Authority, logger logging.Logger) *Service {
	return &Service{
		users:  repo,
		hasher: hasher,
		tokens: authority,
		logger: logger.With("module", "auth"),
	}
}

// Register hashes the password, creates the user record, and issues a token
// pair. Duplicate usernames or emails surface as ErrConflict. The plaintext
// password is not retained past hashing and is never logged.
func (s *Service) Register(ctx context.Context, username, email string, role users.Role, plaintextPassword string) (*Result, error) {
	// Hashing is the only CPU-bound step; it runs before any store work so
	// no lock is held while bcrypt grinds.
	hash, err := s.hasher.Hash(plaintextPassword)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, &users.User{
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(ctx, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}

	s.logger.Info(ctx, "user registered", "username", user.Username, "role", user.Role)

	return &Result{User: user, Tokens: pair}, nil
}

// Login verifies the credentials and issues a token pair. An unknown
// username and a wrong password both return ErrAuthenticationFailed; the two
// cases must stay indistinguishable to prevent username enumeration.
func (s *Service) Login(ctx context.Context, username, plaintextPassword string) (*Result, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := s.hasher.Verify(plaintextPassword, user.PasswordHash)
	if err != nil {
		// A corrupt stored hash is an operational failure, not a bad
		// credential.
		s.logger.Error(ctx, "stored password hash is unusable", "username", username)
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, common.ErrAuthenticationFailed
	}

	pair, err := s.tokens.IssuePair(ctx, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}

	s.logger.Info(ctx, "user logged in", "username", user.Username)

	return &Result{User: user, Tokens: pair}, nil
}

// Logout revokes the refresh token. Tokens that are expired, already
// consumed, or unknown yield ErrNotFound.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return err
	}

	s.logger.Info(ctx, "refresh token revoked")
	return nil
}

// Refresh consumes the presented refresh token and issues a new pair. Once
// consumption succeeds the old token stays consumed no matter what happens
// afterwards: a user deleted since issuance yields ErrNotFound, and the
// token is not silently re-validated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	claims, err := s.tokens.ConsumeRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	pair, err := s.tokens.IssuePair(ctx, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}

	s.logger.Info(ctx, "tokens refreshed", "username", user.Username)

	return &Result{User: user, Tokens: pair}, nil
}
