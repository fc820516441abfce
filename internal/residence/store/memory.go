package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"residora/internal/residence/models"
	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
)

// InMemoryResidenceStore is the test and development implementation of
// ResidenceStore.
type InMemoryResidenceStore struct {
	mu         sync.RWMutex
	residences map[id.ResidenceID]*models.Residence
}

func NewInMemoryResidenceStore() *InMemoryResidenceStore {
	return &InMemoryResidenceStore{residences: make(map[id.ResidenceID]*models.Residence)}
}

func (s *InMemoryResidenceStore) Create(_ context.Context, residence *models.Residence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.residences[residence.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *residence
	s.residences[residence.ID] = &cp
	return nil
}

func (s *InMemoryResidenceStore) Update(_ context.Context, residence *models.Residence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.residences[residence.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *residence
	s.residences[residence.ID] = &cp
	return nil
}

func (s *InMemoryResidenceStore) FindByID(_ context.Context, residenceID id.ResidenceID) (*models.Residence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	residence, ok := s.residences[residenceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *residence
	return &cp, nil
}

func (s *InMemoryResidenceStore) ListBySyndic(_ context.Context, syndicID id.AccountID) ([]*models.Residence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Residence
	for _, residence := range s.residences {
		if residence.SyndicID == syndicID {
			cp := *residence
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryResidenceStore) Delete(_ context.Context, residenceID id.ResidenceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.residences[residenceID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.residences, residenceID)
	return nil
}

func (s *InMemoryResidenceStore) ClearGuard(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, residence := range s.residences {
		if residence.GuardID != nil && *residence.GuardID == accountID {
			residence.GuardID = nil
		}
	}
	return nil
}

// InMemoryMembershipStore is the test and development implementation of
// MembershipStore.
type InMemoryMembershipStore struct {
	mu          sync.RWMutex
	memberships map[id.MembershipID]*models.Membership
}

func NewInMemoryMembershipStore() *InMemoryMembershipStore {
	return &InMemoryMembershipStore{memberships: make(map[id.MembershipID]*models.Membership)}
}

func (s *InMemoryMembershipStore) Create(_ context.Context, membership *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.memberships {
		if existing.ResidenceID != membership.ResidenceID ||
			!strings.EqualFold(existing.Apartment, membership.Apartment) {
			continue
		}
		if existing.AccountID == membership.AccountID {
			return sentinel.ErrConflict
		}
		if membership.Apartment != models.GuardApartment {
			return sentinel.ErrConflict
		}
	}
	cp := *membership
	s.memberships[membership.ID] = &cp
	return nil
}

func (s *InMemoryMembershipStore) FindByID(_ context.Context, membershipID id.MembershipID) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	membership, ok := s.memberships[membershipID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *membership
	return &cp, nil
}

func (s *InMemoryMembershipStore) ListByAccountAndResidence(_ context.Context, accountID id.AccountID, residenceID id.ResidenceID) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Membership
	for _, membership := range s.memberships {
		if membership.AccountID == accountID && membership.ResidenceID == residenceID {
			cp := *membership
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryMembershipStore) ListByResidence(_ context.Context, residenceID id.ResidenceID) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Membership
	for _, membership := range s.memberships {
		if membership.ResidenceID == residenceID {
			cp := *membership
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryMembershipStore) ListByAccount(_ context.Context, accountID id.AccountID) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Membership
	for _, membership := range s.memberships {
		if membership.AccountID == accountID {
			cp := *membership
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryMembershipStore) Verify(_ context.Context, membershipID id.MembershipID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	membership, ok := s.memberships[membershipID]
	if !ok {
		return sentinel.ErrNotFound
	}
	membership.Verified = true
	return nil
}

func (s *InMemoryMembershipStore) Delete(_ context.Context, membershipID id.MembershipID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memberships[membershipID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.memberships, membershipID)
	return nil
}

func (s *InMemoryMembershipStore) DeleteByAccount(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for membershipID, membership := range s.memberships {
		if membership.AccountID == accountID {
			delete(s.memberships, membershipID)
		}
	}
	return nil
}

func (s *InMemoryMembershipStore) ApartmentOccupied(_ context.Context, residenceID id.ResidenceID, apartment string, includeUnverified bool) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, membership := range s.memberships {
		if membership.ResidenceID != residenceID || !strings.EqualFold(membership.Apartment, apartment) {
			continue
		}
		if membership.Verified || includeUnverified {
			return true, nil
		}
	}
	return false, nil
}
