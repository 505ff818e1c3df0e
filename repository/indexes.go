package repository

import (
	"context"
	"fmt"
	"time"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on. It is safe to
// call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := models.EnsureVoteIndex(ctx, db.Collection("votes")); err != nil {
		return fmt.Errorf("votes index: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"rewards": {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"issues": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "ward_id", Value: 1}}},
			{Keys: bson.D{{Key: "current_department_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		"issue_histories": {
			{Keys: bson.D{{Key: "issue_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		},
		"notifications": {
			{Keys: bson.D{{Key: "recipient.kind", Value: 1}, {Key: "recipient.id", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
	}
	for name, specs := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("%s indexes: %w", name, err)
		}
	}
	return nil
}
