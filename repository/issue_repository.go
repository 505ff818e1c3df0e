package repository

import (
	"context"
	"errors"
	"fmt"

	"civicsync-workflow/models"
	"civicsync-workflow/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IssueRepository stores issues in the "issues" collection.
type IssueRepository struct {
	coll *mongo.Collection
}

func NewIssueRepository(db *mongo.Database) *IssueRepository {
	return &IssueRepository{coll: db.Collection("issues")}
}

func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, issue); err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

func (r *IssueRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("issue %s: %w", id.Hex(), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find issue: %w", err)
	}
	return &issue, nil
}

// Replace writes the issue only if the stored version still matches.
func (r *IssueRepository) Replace(ctx context.Context, issue *models.Issue, expectedVersion int64) error {
	next := *issue
	next.Version = expectedVersion + 1

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": issue.ID, "version": expectedVersion}, next)
	if err != nil {
		return fmt.Errorf("replace issue: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": issue.ID})
		if err != nil {
			return fmt.Errorf("replace issue: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("issue %s: %w", issue.ID.Hex(), models.ErrNotFound)
		}
		return fmt.Errorf("issue %s: %w", issue.ID.Hex(), models.ErrConflict)
	}
	issue.Version = next.Version
	return nil
}

func (r *IssueRepository) List(ctx context.Context, filter services.IssueFilter) ([]models.Issue, error) {
	query := bson.M{}
	if filter.UserID != nil {
		query["user_id"] = *filter.UserID
	}
	if filter.WardID != nil {
		query["ward_id"] = *filter.WardID
	}
	if filter.DepartmentID != nil {
		query["current_department_id"] = *filter.DepartmentID
	}
	if filter.WorkerID != nil {
		query["current_worker_id"] = *filter.WorkerID
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	return issues, nil
}

var (
	_ services.IssueStore            = (*IssueRepository)(nil)
	_ services.HistoryStore          = (*HistoryRepository)(nil)
	_ services.NotificationStore     = (*NotificationRepository)(nil)
	_ services.NotificationPublisher = (*RedisNotificationPublisher)(nil)
	_ services.RewardStore           = (*RewardRepository)(nil)
	_ services.VoteStore             = (*VoteRepository)(nil)
	_ services.UserStore             = (*UserRepository)(nil)
	_ services.Directory             = (*Directory)(nil)
)
