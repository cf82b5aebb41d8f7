// Package users owns user credential records: one record per username, one
// per email, enforced atomically at creation.
package users

import "context"

// Update carries the mutable fields of a user record; nil leaves a field
// unchanged. PasswordHash must already be hashed — repositories never hash.
type Update struct {
	Email        *string
	Role         *Role
	PasswordHash *string
}

// Repository is the credential store contract. Create checks username and
// email uniqueness and inserts as a single atomic unit: of two concurrent
// calls sharing a key, exactly one succeeds and the other gets ErrConflict.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, username string, upd Update) (*User, error)
	Delete(ctx context.Context, username string) error
}
