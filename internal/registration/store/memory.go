package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"residora/internal/registration/models"
	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
)

// InMemoryStore is the test and development implementation of RequestStore.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[id.RegistrationID]*models.Request
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[id.RegistrationID]*models.Request)}
}

func (s *InMemoryStore) Create(_ context.Context, request *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.ResidenceID != request.ResidenceID || existing.Status != models.StatusPending {
			continue
		}
		if existing.Email == request.Email || strings.EqualFold(existing.Apartment, request.Apartment) {
			return sentinel.ErrConflict
		}
	}
	cp := *request
	s.requests[request.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, requestID id.RegistrationID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *request
	return &cp, nil
}

func (s *InMemoryStore) ListByResidence(_ context.Context, residenceID id.ResidenceID, status models.Status) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, request := range s.requests {
		if request.ResidenceID != residenceID {
			continue
		}
		if status != "" && request.Status != status {
			continue
		}
		cp := *request
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, requestID id.RegistrationID, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok {
		return sentinel.ErrNotFound
	}
	request.Status = status
	return nil
}

func (s *InMemoryStore) DeleteByEmail(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(email)
	for requestID, request := range s.requests {
		if request.Email == email {
			delete(s.requests, requestID)
		}
	}
	return nil
}

func (s *InMemoryStore) HasPendingWithEmail(_ context.Context, residenceID id.ResidenceID, email string) (bool, error) {
	return s.hasPending(residenceID, func(r *models.Request) bool {
		return r.Email == strings.ToLower(email)
	}), nil
}

func (s *InMemoryStore) HasPendingWithPhone(_ context.Context, residenceID id.ResidenceID, phoneNormalized string) (bool, error) {
	return s.hasPending(residenceID, func(r *models.Request) bool {
		return phoneNormalized != "" && r.PhoneNormalized == phoneNormalized
	}), nil
}

func (s *InMemoryStore) HasPendingWithApartment(_ context.Context, residenceID id.ResidenceID, apartment string) (bool, error) {
	return s.hasPending(residenceID, func(r *models.Request) bool {
		return strings.EqualFold(r.Apartment, apartment)
	}), nil
}

func (s *InMemoryStore) hasPending(residenceID id.ResidenceID, match func(*models.Request) bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, request := range s.requests {
		if request.ResidenceID == residenceID && request.Status == models.StatusPending && match(request) {
			return true
		}
	}
	return false
}
