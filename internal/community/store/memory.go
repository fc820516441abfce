package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"residora/internal/community/models"
	id "residora/pkg/domain"
)

// InMemoryStore is the test and development implementation of Store.
type InMemoryStore struct {
	mu            sync.RWMutex
	notifications map[uuid.UUID]*models.Notification
	votes         map[uuid.UUID]*models.Vote
	incidents     map[uuid.UUID]*models.IncidentReport
	accessLogs    map[uuid.UUID]*models.AccessLog
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		notifications: make(map[uuid.UUID]*models.Notification),
		votes:         make(map[uuid.UUID]*models.Vote),
		incidents:     make(map[uuid.UUID]*models.IncidentReport),
		accessLogs:    make(map[uuid.UUID]*models.AccessLog),
	}
}

func (s *InMemoryStore) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *InMemoryStore) CreateVote(_ context.Context, v *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.votes[v.ID] = &cp
	return nil
}

func (s *InMemoryStore) CreateIncidentReport(_ context.Context, r *models.IncidentReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	if r.ResolvedBy != nil {
		resolver := *r.ResolvedBy
		cp.ResolvedBy = &resolver
	}
	s.incidents[r.ID] = &cp
	return nil
}

func (s *InMemoryStore) CreateAccessLog(_ context.Context, l *models.AccessLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.accessLogs[l.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListIncidentsByResidence(_ context.Context, residenceID id.ResidenceID) ([]*models.IncidentReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.IncidentReport
	for _, incident := range s.incidents {
		if incident.ResidenceID == residenceID {
			cp := *incident
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) DeleteNotificationsByAccount(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for nID, n := range s.notifications {
		if n.AccountID == accountID {
			delete(s.notifications, nID)
		}
	}
	return nil
}

func (s *InMemoryStore) DeleteVotesByAccount(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for vID, v := range s.votes {
		if v.AccountID == accountID {
			delete(s.votes, vID)
		}
	}
	return nil
}

func (s *InMemoryStore) NullifyIncidentResolver(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, incident := range s.incidents {
		if incident.ResolvedBy != nil && *incident.ResolvedBy == accountID {
			incident.ResolvedBy = nil
		}
	}
	return nil
}

func (s *InMemoryStore) DeleteIncidentsByReporter(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for rID, incident := range s.incidents {
		if incident.ReportedBy == accountID {
			delete(s.incidents, rID)
		}
	}
	return nil
}

func (s *InMemoryStore) DeleteAccessLogsByAccount(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for lID, l := range s.accessLogs {
		if l.AccountID == accountID {
			delete(s.accessLogs, lID)
		}
	}
	return nil
}

// Counts reports remaining rows per record kind; used by cascade tests.
func (s *InMemoryStore) Counts() (notifications, votes, incidents, accessLogs int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notifications), len(s.votes), len(s.incidents), len(s.accessLogs)
}
