package httpapi

import (
	"errors"
	"regexp"
	"time"

	"github.com/credkeeper/credkeeper/internal/server/users"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,24}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

func (r *registerRequest) validate() error {
	if !usernameRe.MatchString(r.Username) {
		return errors.New("username must be 3-24 characters of letters, numbers, underscores, and hyphens")
	}
	if !emailRe.MatchString(r.Email) {
		return errors.New("email must be a valid address")
	}
	if !users.Role(r.Role).Valid() {
		return errors.New("role must be one of: user, admin")
	}
	return validatePassword(r.Password)
}

func validatePassword(pw string) error {
	if len(pw) < 5 {
		return errors.New("password must be at least 5 characters")
	}
	var lower, upper, digit bool
	for _, c := range pw {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return errors.New("password must contain at least one uppercase letter, one lowercase letter, and one number")
	}
	return nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *loginRequest) validate() error {
	if r.Username == "" || r.Password == "" {
		return errors.New("username and password are required")
	}
	return nil
}

type tokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *tokenRequest) validate() error {
	if r.RefreshToken == "" {
		return errors.New("refreshToken is required")
	}
	return nil
}

// userResponse is the caller-visible projection of a user record. The
// password hash is deliberately absent.
type userResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type tokenResponse struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type tokensResponse struct {
	Access  tokenResponse `json:"access"`
	Refresh tokenResponse `json:"refresh"`
}

type authResponse struct {
	User   userResponse   `json:"user"`
	Tokens tokensResponse `json:"tokens"`
}

type errorResponse struct {
	Error string `json:"error"`
}
