package activity

import (
	"context"
	"sync"

	"swapPilot/internal/model"
)

// MemoryStore keeps entries in memory. Used when no activity path is
// configured and as the store for tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries []model.ActivityEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry model.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[len(s.entries)-MaxEntries:]
	}
	return nil
}

func (s *MemoryStore) ReadAll(_ context.Context) ([]model.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ActivityEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}
