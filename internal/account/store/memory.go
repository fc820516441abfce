package store

import (
	"context"
	"strings"
	"sync"

	"residora/internal/account/models"
	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
)

// InMemoryStore is the test and development implementation of AccountStore.
type InMemoryStore struct {
	mu          sync.RWMutex
	accounts    map[id.AccountID]*models.Account
	byEmail     map[string]id.AccountID
	credentials map[string][]string
	sessions    map[id.AccountID][]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		accounts:    make(map[id.AccountID]*models.Account),
		byEmail:     make(map[string]id.AccountID),
		credentials: make(map[string][]string),
		sessions:    make(map[id.AccountID][]string),
	}
}

func (s *InMemoryStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(account.Email)
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}
	cp := *account
	s.accounts[account.ID] = &cp
	s.byEmail[key] = account.ID
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.accounts[account.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(existing.Email))
	cp := *account
	s.accounts[account.ID] = &cp
	s.byEmail[strings.ToLower(account.Email)] = account.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *account
	return &cp, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.accounts[accountID]
	return &cp, nil
}

func (s *InMemoryStore) Delete(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(account.Email))
	delete(s.accounts, accountID)
	return nil
}

func (s *InMemoryStore) CreateCredential(_ context.Context, email, secretHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	s.credentials[key] = append(s.credentials[key], secretHash)
	return nil
}

func (s *InMemoryStore) DeleteCredentialsByEmail(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.credentials, strings.ToLower(email))
	return nil
}

func (s *InMemoryStore) CreateSession(_ context.Context, accountID id.AccountID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[accountID] = append(s.sessions[accountID], token)
	return nil
}

func (s *InMemoryStore) DeleteSessionsByAccount(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, accountID)
	return nil
}

// SessionCount reports live sessions for an account; used by cascade tests.
func (s *InMemoryStore) SessionCount(accountID id.AccountID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[accountID])
}

// CredentialCount reports stored credentials for an email; used by cascade tests.
func (s *InMemoryStore) CredentialCount(email string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.credentials[strings.ToLower(email)])
}
