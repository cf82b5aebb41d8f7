package users

import "time"

// Role tags a user record. It is carried into issued tokens but never
// interpreted by this package.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is a stored credential record. PasswordHash is the opaque output of
// the password hasher and must never be serialized to callers.
type User struct {
	Username     string
	Email        string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
