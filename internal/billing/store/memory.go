package store

import (
	"context"
	"sync"

	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
)

// InMemoryStore is the test and development implementation of MappingStore.
type InMemoryStore struct {
	mu       sync.RWMutex
	mappings map[id.AccountID]*Mapping
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{mappings: make(map[id.AccountID]*Mapping)}
}

func (s *InMemoryStore) Save(_ context.Context, mapping *Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *mapping
	s.mappings[mapping.AccountID] = &cp
	return nil
}

func (s *InMemoryStore) FindByAccount(_ context.Context, accountID id.AccountID) (*Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mapping, ok := s.mappings[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *mapping
	return &cp, nil
}

func (s *InMemoryStore) DeleteByAccount(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mappings[accountID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.mappings, accountID)
	return nil
}

// Len reports how many mappings exist; used by cascade tests.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mappings)
}
