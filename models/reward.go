package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedbackRewardPoints is credited to a citizen for each feedback submission.
const FeedbackRewardPoints = 10

// Reward is a citizen's point ledger. There is at most one per user.
type Reward struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	Points          int                `bson:"points" json:"points"`
	Badges          []string           `bson:"badges" json:"badges"`
	LeaderboardRank *int               `bson:"leaderboard_rank" json:"leaderboard_rank"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
