package otp

import (
	"context"
	"sync"
	"time"

	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
	"residora/pkg/requestcontext"
)

type memoryEntry struct {
	hash      string
	expiresAt time.Time
}

// InMemoryStore is the test and development implementation of Store. Expiry
// is evaluated against the request clock so tests can advance time.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[id.AccountID]memoryEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.AccountID]memoryEntry)}
}

func (s *InMemoryStore) Save(ctx context.Context, accountID id.AccountID, hash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[accountID] = memoryEntry{hash: hash, expiresAt: requestcontext.Now(ctx).Add(ttl)}
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, accountID id.AccountID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[accountID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	if requestcontext.Now(ctx).After(entry.expiresAt) {
		delete(s.entries, accountID)
		return "", sentinel.ErrExpired
	}
	return entry.hash, nil
}

func (s *InMemoryStore) Delete(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[accountID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.entries, accountID)
	return nil
}
