// Package tokens issues, verifies, consumes, and revokes signed
// access/refresh token pairs.
//
// Access tokens are stateless: validity is a pure function of signature and
// expiry. Refresh tokens are additionally tracked in a Store so each can be
// consumed exactly once (the anti-replay guarantee) or revoked on logout.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/credkeeper/credkeeper/internal/common"
)

// Kind distinguishes the two token flavors inside the signed claims.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the signed payload of every issued token.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	Kind Kind   `json:"kind"`
}

// Token couples a signed artifact with its expiry so callers can surface
// both without re-parsing.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Pair is the result of a successful issuance: a short-lived access token
// and a long-lived refresh token.
type Pair struct {
	Access  Token
	Refresh Token
}

// Authority signs tokens with a process-wide HMAC secret (HS256) and tracks
// refresh-token lifecycle in its Store. The users store and the token store
// are independent locking domains; the Authority never touches user records.
type Authority struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      Store
	now        func() time.Time
}

func NewAuthority(secret []byte, accessTTL, refreshTTL time.Duration, store Store) (*Authority, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive, got access=%v refresh=%v", accessTTL, refreshTTL)
	}
	return &Authority{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		now:        time.Now,
	}, nil
}

// SetNowFunc overrides the clock used for issuance and validation. It exists
// for tests that need to move time past an expiry.
func (a *Authority) SetNowFunc(now func() time.Time) {
	a.now = now
}

func (a *Authority) sign(subject, role string, kind Kind, now time.Time, ttl time.Duration) (Token, string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
		Kind: kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return Token{}, "", fmt.Errorf("signing %s token: %w", kind, err)
	}

	return Token{Value: signed, ExpiresAt: claims.ExpiresAt.Time}, claims.ID, nil
}

// IssuePair mints an access/refresh pair for subject and records the refresh
// token as issued.
func (a *Authority) IssuePair(ctx context.Context, subject, role string) (*Pair, error) {
	now := a.now()

	access, _, err := a.sign(subject, role, KindAccess, now, a.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, refreshID, err := a.sign(subject, role, KindRefresh, now, a.refreshTTL)
	if err != nil {
		return nil, err
	}

	if err := a.store.Save(ctx, refreshID, subject, refresh.ExpiresAt); err != nil {
		return nil, fmt.Errorf("recording refresh token: %w", err)
	}

	return &Pair{Access: access, Refresh: refresh}, nil
}

func (a *Authority) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// Verify checks signature and expiry and returns the claims. Refresh tokens
// must additionally still be in the issued state.
func (a *Authority) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := a.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Kind == KindRefresh {
		state, err := a.store.State(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrInvalidToken
			}
			return nil, fmt.Errorf("checking refresh token state: %w", err)
		}
		if state != StateIssued {
			return nil, common.ErrInvalidToken
		}
	}

	return claims, nil
}

// ConsumeRefresh verifies a refresh token and atomically transitions it to
// consumed. A second call with the same token fails with ErrInvalidToken
// even though signature and expiry are still technically valid.
func (a *Authority) ConsumeRefresh(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := a.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != KindRefresh {
		return nil, common.ErrInvalidToken
	}

	if err := a.store.Consume(ctx, claims.ID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("consuming refresh token: %w", err)
	}

	return claims, nil
}

// Revoke transitions an issued refresh token to revoked. Tokens that are
// expired, already consumed, already revoked, or unknown yield ErrNotFound.
func (a *Authority) Revoke(ctx context.Context, tokenString string) error {
	claims, err := a.parse(tokenString)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			// An expired refresh token is no longer in the valid set.
			return common.ErrNotFound
		}
		return err
	}
	if claims.Kind != KindRefresh {
		return common.ErrInvalidToken
	}

	return a.store.Revoke(ctx, claims.ID)
}

// SweepExpired removes refresh-token state whose expiry has passed. Expired
// tokens already fail verification; the sweep only reclaims memory/rows.
func (a *Authority) SweepExpired(ctx context.Context) (int, error) {
	return a.store.DeleteExpired(ctx, a.now())
}
