// Package memory holds in-process implementations of the service stores,
// used by tests and local runs without MongoDB.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"civicsync-workflow/models"
	"civicsync-workflow/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueStore struct {
	mu     sync.RWMutex
	issues map[primitive.ObjectID]*models.Issue
}

func NewIssueStore() *IssueStore {
	return &IssueStore{issues: make(map[primitive.ObjectID]*models.Issue)}
}

func (s *IssueStore) Create(_ context.Context, issue *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if _, ok := s.issues[issue.ID]; ok {
		return fmt.Errorf("issue %s: %w", issue.ID.Hex(), models.ErrDuplicate)
	}
	s.issues[issue.ID] = issue.Clone()
	return nil
}

func (s *IssueStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issue, ok := s.issues[id]
	if !ok {
		return nil, fmt.Errorf("issue %s: %w", id.Hex(), models.ErrNotFound)
	}
	return issue.Clone(), nil
}

func (s *IssueStore) Replace(_ context.Context, issue *models.Issue, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.issues[issue.ID]
	if !ok {
		return fmt.Errorf("issue %s: %w", issue.ID.Hex(), models.ErrNotFound)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("issue %s: %w", issue.ID.Hex(), models.ErrConflict)
	}
	issue.Version = expectedVersion + 1
	s.issues[issue.ID] = issue.Clone()
	return nil
}

func (s *IssueStore) List(_ context.Context, filter services.IssueFilter) ([]models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Issue{}
	for _, issue := range s.issues {
		if !matches(issue, filter) {
			continue
		}
		out = append(out, *issue.Clone())
	}
	slices.SortFunc(out, func(a, b models.Issue) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matches(issue *models.Issue, f services.IssueFilter) bool {
	switch {
	case f.UserID != nil && issue.UserID != *f.UserID:
		return false
	case f.WardID != nil && (issue.WardID == nil || *issue.WardID != *f.WardID):
		return false
	case f.DepartmentID != nil && issue.CurrentDepartmentID != *f.DepartmentID:
		return false
	case f.WorkerID != nil && (issue.CurrentWorkerID == nil || *issue.CurrentWorkerID != *f.WorkerID):
		return false
	case f.Status != nil && issue.Status != *f.Status:
		return false
	}
	return true
}

var (
	_ services.IssueStore        = (*IssueStore)(nil)
	_ services.HistoryStore      = (*HistoryStore)(nil)
	_ services.NotificationStore = (*NotificationStore)(nil)
	_ services.RewardStore       = (*RewardStore)(nil)
	_ services.VoteStore         = (*VoteStore)(nil)
	_ services.UserStore         = (*UserStore)(nil)
	_ services.Directory         = (*Directory)(nil)
)
