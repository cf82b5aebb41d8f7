package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/credkeeper/credkeeper/internal/common"
	"github.com/credkeeper/credkeeper/internal/dbx"
)

// PostgresStore keeps refresh-token state in the refresh_tokens table.
// Consume and Revoke are single conditional UPDATEs, so the transition out
// of 'issued' is atomic per token id.
type PostgresStore struct {
	db dbx.DBTX
}

func NewPostgresStore(db dbx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, id, subject string, expiresAt time.Time) error {
	query :=
		`INSERT INTO refresh_tokens (id, subject, state, expires_at)
         VALUES ($1, $2, 'issued', $3)`

	if _, err := s.db.ExecContext(ctx, query, id, subject, expiresAt); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (s *PostgresStore) State(ctx context.Context, id string) (State, error) {
	var state string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM refresh_tokens WHERE id = $1`, id).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}

	switch state {
	case "issued":
		return StateIssued, nil
	case "consumed":
		return StateConsumed, nil
	case "revoked":
		return StateRevoked, nil
	default:
		return 0, fmt.Errorf("unexpected token state %q", state)
	}
}

func (s *PostgresStore) transition(ctx context.Context, id string, to State) error {
	query :=
		`UPDATE refresh_tokens
         SET state = $2
         WHERE id = $1 AND state = 'issued'`

	res, err := s.db.ExecContext(ctx, query, id, to.String())
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Consume(ctx context.Context, id string) error {
	return s.transition(ctx, id, StateConsumed)
}

func (s *PostgresStore) Revoke(ctx context.Context, id string) error {
	return s.transition(ctx, id, StateRevoked)
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return int(affected), nil
}
