package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/credkeeper/credkeeper/internal/common"
	"github.com/credkeeper/credkeeper/internal/dbx"
)

// PostgresRepository stores user records in PostgreSQL. Uniqueness is
// enforced by the unique constraints on username and email, so the
// check-and-insert of Create is a single INSERT.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {
	query :=
		`INSERT INTO users (username, email, role, password_hash)
         VALUES ($1, $2, $3, $4)
         RETURNING created_at, updated_at`

	u := *user
	err := r.db.QueryRowContext(ctx, query,
		u.Username, u.Email, u.Role, u.PasswordHash).Scan(&u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return &u, nil
}

func getByUsername(ctx context.Context, q dbx.DBTX, username string) (*User, error) {
	query :=
		`SELECT username, email, role, password_hash, created_at, updated_at
         FROM users
         WHERE username = $1`

	u := &User{}
	err := q.QueryRowContext(ctx, query, username).Scan(
		&u.Username, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return getByUsername(ctx, r.db, username)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query :=
		`SELECT username, email, role, password_hash, created_at, updated_at
         FROM users
         WHERE email = $1`

	u := &User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&u.Username, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return u, nil
}

// Update applies the partial update inside one transaction: the row is
// locked, mutated in memory, and written back, so concurrent updates of the
// same record cannot interleave.
func (r *PostgresRepository) Update(ctx context.Context, username string, upd Update) (*User, error) {
	var updated *User

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query :=
			`SELECT username, email, role, password_hash, created_at, updated_at
             FROM users
             WHERE username = $1
             FOR UPDATE`

		u := &User{}
		err := tx.QueryRowContext(ctx, query, username).Scan(
			&u.Username, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrNotFound
			}
			return fmt.Errorf("error performing sql request: %w", err)
		}

		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.Role != nil {
			u.Role = *upd.Role
		}
		if upd.PasswordHash != nil {
			u.PasswordHash = *upd.PasswordHash
		}
		u.UpdatedAt = time.Now()

		write :=
			`UPDATE users
             SET email = $2, role = $3, password_hash = $4, updated_at = $5
             WHERE username = $1`

		if _, err := tx.ExecContext(ctx, write,
			u.Username, u.Email, u.Role, u.PasswordHash, u.UpdatedAt); err != nil {
			if isUniqueViolation(err) {
				return common.ErrConflict
			}
			return fmt.Errorf("error performing sql request: %w", err)
		}

		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
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
