package services

import (
	"context"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

//go:generate mockgen -source=stores.go -destination=mocks/mock_stores.go -package=mocks

// IssueStore persists Issue aggregates.
type IssueStore interface {
	Create(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	// Replace overwrites the stored issue only if its version still equals
	// expectedVersion, and bumps issue.Version on success. A version mismatch
	// yields models.ErrConflict.
	Replace(ctx context.Context, issue *models.Issue, expectedVersion int64) error
	List(ctx context.Context, filter IssueFilter) ([]models.Issue, error)
}

// IssueFilter narrows List results. Nil fields are ignored.
type IssueFilter struct {
	UserID       *primitive.ObjectID
	WardID       *primitive.ObjectID
	DepartmentID *primitive.ObjectID
	WorkerID     *primitive.ObjectID
	Status       *models.IssueStatus
	Limit        int64
}

// HistoryStore is the append-only audit log.
type HistoryStore interface {
	Append(ctx context.Context, entry *models.IssueHistory) error
	ListByIssue(ctx context.Context, issueID primitive.ObjectID) ([]models.IssueHistory, error)
}

// NotificationStore persists notifications per recipient.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipient models.Party, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, recipient models.Party) error
}

// NotificationPublisher fans a stored notification out to live listeners.
type NotificationPublisher interface {
	Publish(ctx context.Context, n *models.Notification) error
}

// RewardStore is the citizen reward ledger.
type RewardStore interface {
	// AddPoints increments the user's ledger, creating it when absent.
	AddPoints(ctx context.Context, userID primitive.ObjectID, points int) (*models.Reward, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Reward, error)
}

// VoteStore keeps one vote per (issue, voter).
type VoteStore interface {
	Upsert(ctx context.Context, vote *models.Vote) (*models.Vote, error)
	Summary(ctx context.Context, issueID primitive.ObjectID) (models.VoteSummary, error)
}

// Directory resolves organisational records. Lookups that find nothing
// return an error wrapping models.ErrNotFound.
type Directory interface {
	DepartmentByID(ctx context.Context, id primitive.ObjectID) (*models.Department, error)
	// DepartmentForCategory picks the department handling category. When
	// mcAdminID is non-nil only that MC admin's departments are considered.
	DepartmentForCategory(ctx context.Context, category models.IssueCategory, mcAdminID *primitive.ObjectID) (*models.Department, error)
	WardByID(ctx context.Context, id primitive.ObjectID) (*models.Ward, error)
	CouncillorByID(ctx context.Context, id primitive.ObjectID) (*models.Councillor, error)
	CouncillorByUser(ctx context.Context, userID primitive.ObjectID) (*models.Councillor, error)
	MCAdminByUser(ctx context.Context, userID primitive.ObjectID) (*models.MCAdminProfile, error)
	WorkerByID(ctx context.Context, id primitive.ObjectID) (*models.WorkerProfile, error)
	WorkerByUser(ctx context.Context, userID primitive.ObjectID) (*models.WorkerProfile, error)
}

// UserStore holds login accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
