package memory

import (
	"context"
	"sync"
)

// InMemoryStore keeps visitor profiles in process memory for local
// and test use.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]UserMemory
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[string]UserMemory)}
}

func (s *InMemoryStore) Get(_ context.Context, userID string) (UserMemory, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mem, ok := s.profiles[userID]
	if !ok {
		return UserMemory{}, false, nil
	}
	return cloneMemory(mem), true, nil
}

func (s *InMemoryStore) Put(_ context.Context, mem UserMemory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[mem.UserID] = cloneMemory(mem)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

func cloneMemory(mem UserMemory) UserMemory {
	out := mem
	out.Interests = append([]string(nil), mem.Interests...)
	out.VisitedExhibits = append([]string(nil), mem.VisitedExhibits...)
	if mem.Preferences != nil {
		out.Preferences = make(map[string]string, len(mem.Preferences))
		for k, v := range mem.Preferences {
			out.Preferences[k] = v
		}
	}
	return out
}
