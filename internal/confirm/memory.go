package confirm

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps pending confirmations in process. Expired entries are
// dropped lazily on Put and Take.
type MemoryStore struct {
	mu      sync.Mutex
	pending map[string]Pending
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pending: make(map[string]Pending), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, p Pending, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.pending[p.Token] = p
	return nil
}

func (s *MemoryStore) Take(_ context.Context, token string) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	p, ok := s.pending[token]
	if !ok {
		return Pending{}, ErrPendingNotFound
	}
	delete(s.pending, token)
	return p, nil
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.pending)
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for k, p := range s.pending {
		if p.Expired(now) {
			delete(s.pending, k)
		}
	}
}
