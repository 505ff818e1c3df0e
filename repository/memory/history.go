package memory

import (
	"context"
	"sync"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HistoryStore struct {
	mu      sync.RWMutex
	entries []models.IssueHistory
}

func NewHistoryStore() *HistoryStore { return &HistoryStore{} }

func (s *HistoryStore) Append(_ context.Context, entry *models.IssueHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	s.entries = append(s.entries, *entry)
	return nil
}

// ListByIssue returns entries in append order.
func (s *HistoryStore) ListByIssue(_ context.Context, issueID primitive.ObjectID) ([]models.IssueHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.IssueHistory{}
	for _, e := range s.entries {
		if e.IssueID == issueID {
			out = append(out, e)
		}
	}
	return out, nil
}
