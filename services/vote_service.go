package services

import (
	"context"
	"fmt"
	"time"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VoteService records citizens' confirmations that an issue exists. Votes do
// not touch the issue lifecycle.
type VoteService struct {
	votes  VoteStore
	issues IssueStore
	now    func() time.Time
}

func NewVoteService(votes VoteStore, issues IssueStore, opts ...Option) *VoteService {
	o := buildOptions(opts)
	return &VoteService{votes: votes, issues: issues, now: o.now}
}

// Cast creates or replaces the caller's vote on an issue.
func (s *VoteService) Cast(ctx context.Context, caller Caller, issueID primitive.ObjectID, voteType models.VoteType) (*models.Vote, error) {
	if caller.Role != models.RoleCitizen {
		return nil, fmt.Errorf("%w: only citizens vote", models.ErrForbidden)
	}
	if !voteType.Valid() {
		return nil, &models.ValidationError{Field: "vote_type", Message: fmt.Sprintf("unknown vote type %q", voteType)}
	}
	if _, err := s.issues.FindByID(ctx, issueID); err != nil {
		return nil, err
	}

	now := s.now()
	return s.votes.Upsert(ctx, &models.Vote{
		IssueID:   issueID,
		VoterID:   caller.UserID,
		VoteType:  voteType,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Summary counts votes on an issue.
func (s *VoteService) Summary(ctx context.Context, issueID primitive.ObjectID) (models.VoteSummary, error) {
	if _, err := s.issues.FindByID(ctx, issueID); err != nil {
		return models.VoteSummary{}, err
	}
	return s.votes.Summary(ctx, issueID)
}
