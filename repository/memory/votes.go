package memory

import (
	"context"
	"sync"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type voteKey struct {
	issue primitive.ObjectID
	voter primitive.ObjectID
}

type VoteStore struct {
	mu    sync.Mutex
	votes map[voteKey]*models.Vote
}

func NewVoteStore() *VoteStore {
	return &VoteStore{votes: make(map[voteKey]*models.Vote)}
}

func (s *VoteStore) Upsert(_ context.Context, vote *models.Vote) (*models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey{issue: vote.IssueID, voter: vote.VoterID}
	existing, ok := s.votes[key]
	if !ok {
		v := *vote
		v.ID = primitive.NewObjectID()
		s.votes[key] = &v
		out := v
		return &out, nil
	}
	existing.VoteType = vote.VoteType
	existing.UpdatedAt = vote.UpdatedAt
	out := *existing
	return &out, nil
}

func (s *VoteStore) Summary(_ context.Context, issueID primitive.ObjectID) (models.VoteSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum models.VoteSummary
	for key, v := range s.votes {
		if key.issue != issueID {
			continue
		}
		switch v.VoteType {
		case models.VoteExists:
			sum.Exists++
		case models.VoteNotExists:
			sum.NotExists++
		}
	}
	return sum, nil
}
