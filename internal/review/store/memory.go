package store

import (
	"context"
	"sort"
	"sync"

	"residora/internal/review/models"
	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
)

// InMemoryStore is the test and development implementation of SubmissionStore.
type InMemoryStore struct {
	mu          sync.RWMutex
	submissions map[id.SubmissionID]*models.Submission
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{submissions: make(map[id.SubmissionID]*models.Submission)}
}

func (s *InMemoryStore) Create(_ context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.submissions[submission.ID]; exists {
		return sentinel.ErrConflict
	}
	s.submissions[submission.ID] = copySubmission(submission)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[submission.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.submissions[submission.ID] = copySubmission(submission)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, submissionID id.SubmissionID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	submission, ok := s.submissions[submissionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copySubmission(submission), nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status models.Status) ([]*models.Submission, error) {
	return s.list(func(sub *models.Submission) bool { return status == "" || sub.Status == status }), nil
}

func (s *InMemoryStore) ListBySyndic(_ context.Context, syndicID id.AccountID) ([]*models.Submission, error) {
	return s.list(func(sub *models.Submission) bool { return sub.SyndicID == syndicID }), nil
}

func (s *InMemoryStore) DeleteBySyndic(_ context.Context, syndicID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for submissionID, submission := range s.submissions {
		if submission.SyndicID == syndicID {
			delete(s.submissions, submissionID)
		}
	}
	return nil
}

func (s *InMemoryStore) list(match func(*models.Submission) bool) []*models.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Submission
	for _, submission := range s.submissions {
		if match(submission) {
			out = append(out, copySubmission(submission))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func copySubmission(submission *models.Submission) *models.Submission {
	cp := *submission
	cp.Attachments = append([]string{}, submission.Attachments...)
	if submission.ResidenceID != nil {
		residenceID := *submission.ResidenceID
		cp.ResidenceID = &residenceID
	}
	return &cp
}
