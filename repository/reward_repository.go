package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RewardRepository is the "rewards" ledger, one document per user.
type RewardRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewRewardRepository(db *mongo.Database) *RewardRepository {
	return &RewardRepository{coll: db.Collection("rewards"), now: time.Now}
}

// AddPoints increments atomically and creates the ledger on first use.
func (r *RewardRepository) AddPoints(ctx context.Context, userID primitive.ObjectID, points int) (*models.Reward, error) {
	now := r.now()
	update := bson.M{
		"$inc": bson.M{"points": points},
		"$set": bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{
			"badges":           []string{},
			"leaderboard_rank": nil,
			"createdAt":        now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var reward models.Reward
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&reward); err != nil {
		return nil, fmt.Errorf("add reward points: %w", err)
	}
	return &reward, nil
}

func (r *RewardRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Reward, error) {
	var reward models.Reward
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&reward)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("reward for user %s: %w", userID.Hex(), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find reward: %w", err)
	}
	return &reward, nil
}
