package services

import (
	"context"
	"fmt"
	"time"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HistoryRecorder appends audit entries. Every entry gets a server-assigned
// timestamp; entries are never updated afterwards, including repeated
// work_completed rows for the same issue.
type HistoryRecorder struct {
	store HistoryStore
	now   func() time.Time
}

func NewHistoryRecorder(store HistoryStore, opts ...Option) *HistoryRecorder {
	o := buildOptions(opts)
	return &HistoryRecorder{store: store, now: o.now}
}

// Record appends one entry. Redundant entries (same status twice) are allowed.
func (r *HistoryRecorder) Record(ctx context.Context, entry models.IssueHistory) (*models.IssueHistory, error) {
	if entry.IssueID.IsZero() {
		return nil, &models.ValidationError{Field: "issue_id", Message: "is required"}
	}
	if !entry.Status.Valid() {
		return nil, &models.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", entry.Status)}
	}
	if entry.ActionType == "" {
		return nil, &models.ValidationError{Field: "action_type", Message: "is required"}
	}

	entry.ID = primitive.NilObjectID
	entry.Timestamp = r.now()
	if err := r.store.Append(ctx, &entry); err != nil {
		return nil, fmt.Errorf("append history for issue %s: %w", entry.IssueID.Hex(), err)
	}
	return &entry, nil
}

// ForIssue returns the issue's history, oldest first.
func (r *HistoryRecorder) ForIssue(ctx context.Context, issueID primitive.ObjectID) ([]models.IssueHistory, error) {
	return r.store.ListByIssue(ctx, issueID)
}
