package services

import (
	"context"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RewardService reads the citizen reward ledger. Points are only ever
// credited by IssueService.
type RewardService struct {
	rewards RewardStore
}

func NewRewardService(rewards RewardStore) *RewardService {
	return &RewardService{rewards: rewards}
}

// Balance returns the user's ledger, or an empty one if nothing was earned yet.
func (s *RewardService) Balance(ctx context.Context, userID primitive.ObjectID) (*models.Reward, error) {
	r, err := s.rewards.FindByUser(ctx, userID)
	if isNotFound(err) {
		return &models.Reward{UserID: userID, Badges: []string{}}, nil
	}
	return r, err
}
