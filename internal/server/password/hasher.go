// Package password wraps bcrypt hashing behind a small, cost-configurable
// hasher. bcrypt generates a fresh salt per call and embeds it in the opaque
// hash, and its comparison does not short-circuit on the first differing byte.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the work factor used by the original deployment.
const DefaultCost = 12

// Hasher derives and verifies one-way password hashes. The cost is fixed at
// construction time; it is configuration, not a per-call input.
type Hasher struct {
	cost int
}

func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash derives a salted hash of plaintext. Two calls with the same input
// produce different hashes.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the stored hash. A mismatch is a
// normal false result. Any other failure means the stored hash is malformed,
// which is an operational error rather than a bad credential.
func (h *Hasher) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("corrupt password hash: %w", err)
	}
}
