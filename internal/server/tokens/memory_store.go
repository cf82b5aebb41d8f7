package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/credkeeper/credkeeper/internal/common"
)

type memoryRecord struct {
	subject   string
	state     State
	expiresAt time.Time
}

// MemoryStore keeps refresh-token state in process memory. One mutex guards
// the map, so every state transition is atomic per token id. Terminal
// records stay around until the expiry sweep removes them.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord)}
}

func (s *MemoryStore) Save(ctx context.Context, id, subject string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = memoryRecord{subject: subject, state: StateIssued, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) State(ctx context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return 0, common.ErrNotFound
	}
	return rec.state, nil
}

func (s *MemoryStore) transition(id string, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.state != StateIssued {
		return common.ErrNotFound
	}
	rec.state = to
	s.records[id] = rec
	return nil
}

func (s *MemoryStore) Consume(ctx context.Context, id string) error {
	return s.transition(id, StateConsumed)
}

func (s *MemoryStore) Revoke(ctx context.Context, id string) error {
	return s.transition(id, StateRevoked)
}

func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.records {
		if rec.expiresAt.Before(now) {
			delete(s.records, id)
			removed++
		}
	}
	return removed, nil
}
