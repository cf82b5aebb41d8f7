package users

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/credkeeper/credkeeper/internal/common"
)

// MemoryRepository keeps user records in process memory. A single mutex
// guards both indexes, so the uniqueness check and the insert form one
// atomic unit per call. The zero value is not usable; construct with
// NewMemoryRepository.
type MemoryRepository struct {
	mu      sync.RWMutex
	byName  map[string]User
	byEmail map[string]string // email -> username
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byName:  make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[user.Username]; ok {
		return nil, fmt.Errorf("username %q: %w", user.Username, common.ErrConflict)
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, fmt.Errorf("email %q: %w", user.Email, common.ErrConflict)
	}

	now := time.Now()
	u := *user
	u.CreatedAt = now
	u.UpdatedAt = now

	r.byName[u.Username] = u
	r.byEmail[u.Email] = u.Username

	out := u
	return &out, nil
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byName[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := u
	return &out, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	username, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	u := r.byName[username]
	out := u
	return &out, nil
}

func (r *MemoryRepository) Update(ctx context.Context, username string, upd Update) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byName[username]
	if !ok {
		return nil, common.ErrNotFound
	}

	if upd.Email != nil && *upd.Email != u.Email {
		if owner, taken := r.byEmail[*upd.Email]; taken && owner != username {
			return nil, fmt.Errorf("email %q: %w", *upd.Email, common.ErrConflict)
		}
		delete(r.byEmail, u.Email)
		u.Email = *upd.Email
		r.byEmail[u.Email] = username
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.UpdatedAt = time.Now()

	r.byName[username] = u

	out := u
	return &out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byName[username]
	if !ok {
		return common.ErrNotFound
	}

	delete(r.byName, username)
	delete(r.byEmail, u.Email)
	return nil
}
