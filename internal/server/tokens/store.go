package tokens

import (
	"context"
	"time"
)

// State tracks the lifecycle of an issued refresh token. Every state other
// than StateIssued is terminal.
type State int8

const (
	StateIssued State = iota
	StateConsumed
	StateRevoked
)

func (s State) String() string {
	switch s {
	case StateIssued:
		return "issued"
	case StateConsumed:
		return "consumed"
	case StateRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

// Store records issued refresh tokens by their token id. Consume and Revoke
// must be atomic per id: of two concurrent calls for the same id, exactly
// one may observe StateIssued.
//
// Methods report common.ErrNotFound when the id is unknown or no longer in
// StateIssued; the Authority translates that into the caller-facing kind.
type Store interface {
	Save(ctx context.Context, id, subject string, expiresAt time.Time) error
	State(ctx context.Context, id string) (State, error)
	Consume(ctx context.Context, id string) error
	Revoke(ctx context.Context, id string) error
	// DeleteExpired drops entries that expired before now and returns how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
