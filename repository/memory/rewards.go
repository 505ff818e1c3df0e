package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RewardStore struct {
	mu      sync.Mutex
	rewards map[primitive.ObjectID]*models.Reward
}

func NewRewardStore() *RewardStore {
	return &RewardStore{rewards: make(map[primitive.ObjectID]*models.Reward)}
}

func (s *RewardStore) AddPoints(_ context.Context, userID primitive.ObjectID, points int) (*models.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	r, ok := s.rewards[userID]
	if !ok {
		r = &models.Reward{ID: primitive.NewObjectID(), UserID: userID, Badges: []string{}, CreatedAt: now}
		s.rewards[userID] = r
	}
	r.Points += points
	r.UpdatedAt = now
	out := *r
	return &out, nil
}

func (s *RewardStore) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rewards[userID]
	if !ok {
		return nil, fmt.Errorf("reward for user %s: %w", userID.Hex(), models.ErrNotFound)
	}
	out := *r
	return &out, nil
}
