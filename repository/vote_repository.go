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

// VoteRepository stores votes in "votes", unique on (issue_id, voter_id).
type VoteRepository struct {
	coll *mongo.Collection
}

func NewVoteRepository(db *mongo.Database) *VoteRepository {
	return &VoteRepository{coll: db.Collection("votes")}
}

func (r *VoteRepository) Upsert(ctx context.Context, vote *models.Vote) (*models.Vote, error) {
	filter := bson.M{"issue_id": vote.IssueID, "voter_id": vote.VoterID}
	update := bson.M{
		"$set":         bson.M{"vote_type": vote.VoteType, "updatedAt": vote.UpdatedAt},
		"$setOnInsert": bson.M{"createdAt": vote.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.Vote
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return nil, fmt.Errorf("upsert vote: %w", err)
	}
	return &saved, nil
}

func (r *VoteRepository) Summary(ctx context.Context, issueID primitive.ObjectID) (models.VoteSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"issue_id": issueID}}},
		{{Key: "$group", Value: bson.M{"_id": "$vote_type", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.VoteSummary{}, fmt.Errorf("aggregate votes: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Type  models.VoteType `bson:"_id"`
		Count int64           `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return models.VoteSummary{}, fmt.Errorf("decode vote counts: %w", err)
	}

	var summary models.VoteSummary
	for _, row := range rows {
		switch row.Type {
		case models.VoteExists:
			summary.Exists = row.Count
		case models.VoteNotExists:
			summary.NotExists = row.Count
		}
	}
	return summary, nil
}
