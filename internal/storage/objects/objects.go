// Package objects abstracts the object store holding uploaded identity
// documents. The deletion cascade removes a user's files through this
// interface; handlers only ever persist keys, never raw bytes, in the
// database.
package objects

import (
	"context"
	"sync"

	"residora/pkg/platform/sentinel"
)

// Store is the minimal object-storage surface the service needs.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// InMemoryStore keeps objects in memory for development and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		objects: make(map[string][]byte),
		baseURL: "memory://documents/",
	}
}

func (s *InMemoryStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte{}, data...)
	return s.baseURL + key, nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.objects, key)
	return nil
}

func (s *InMemoryStore) PublicURL(key string) string {
	return s.baseURL + key
}

// Len reports how many objects are stored; used by cascade tests.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
