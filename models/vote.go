package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VoteType enum
type VoteType string

const (
	VoteExists    VoteType = "exists"
	VoteNotExists VoteType = "not_exists"
)

// Valid reports whether v is a known vote type.
func (v VoteType) Valid() bool {
	return v == VoteExists || v == VoteNotExists
}

// Vote represents a citizen's confirmation (or denial) that an issue exists
type Vote struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IssueID   primitive.ObjectID `bson:"issue_id" json:"issue_id"`
	VoterID   primitive.ObjectID `bson:"voter_id" json:"voter_id"`
	VoteType  VoteType           `bson:"vote_type" json:"vote_type"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// VoteSummary counts votes on one issue per type.
type VoteSummary struct {
	Exists    int64 `json:"exists"`
	NotExists int64 `json:"not_exists"`
}

// EnsureVoteIndex creates a unique compound index for (issue_id, voter_id)
func EnsureVoteIndex(ctx context.Context, collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "issue_id", Value: 1}, {Key: "voter_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
