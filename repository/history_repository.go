package repository

import (
	"context"
	"fmt"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HistoryRepository is the append-only "issue_histories" collection.
type HistoryRepository struct {
	coll *mongo.Collection
}

func NewHistoryRepository(db *mongo.Database) *HistoryRepository {
	return &HistoryRepository{coll: db.Collection("issue_histories")}
}

func (r *HistoryRepository) Append(ctx context.Context, entry *models.IssueHistory) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListByIssue(ctx context.Context, issueID primitive.ObjectID) ([]models.IssueHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"issue_id": issueID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.IssueHistory{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}
