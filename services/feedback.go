package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultReopenReason is recorded when the citizen reopens without a reason.
const DefaultReopenReason = "Not satisfied with resolution"

// FeedbackInput is the citizen's rating of a resolved issue.
type FeedbackInput struct {
	Rating      int
	Description string
}

func (in FeedbackInput) validate() error {
	if in.Rating < 1 || in.Rating > 5 {
		return &models.ValidationError{Field: "rating", Message: "must be between 1 and 5"}
	}
	return nil
}

func ownIssue(caller Caller, issue *models.Issue) error {
	if issue.UserID != caller.UserID {
		return fmt.Errorf("%w: issue belongs to another citizen", models.ErrForbidden)
	}
	return nil
}

// SubmitFeedback closes the issue and credits the reporting citizen.
func (s *IssueService) SubmitFeedback(ctx context.Context, caller Caller, issueID primitive.ObjectID, in FeedbackInput) (*models.Issue, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.apply(ctx, caller, issueID, ActionSubmitFeedback, func(_ context.Context, issue *models.Issue, _ time.Time) (*outcome, error) {
		if err := ownIssue(caller, issue); err != nil {
			return nil, err
		}
		rating := in.Rating
		issue.FeedbackRating = &rating
		issue.FeedbackDescription = strings.TrimSpace(in.Description)

		return &outcome{
			history: models.IssueHistory{
				ActionType: models.ActionFeedbackSubmitted,
				Notes:      fmt.Sprintf("Rating: %d/5", rating),
				Actor:      models.CitizenParty(caller.UserID),
			},
			reward: models.FeedbackRewardPoints,
		}, nil
	})
}

// Reopen sends a resolved issue back to the MC admin. Everything after the
// councillor's verification is cleared; the department stays set until the
// MC admin reassigns it.
func (s *IssueService) Reopen(ctx context.Context, caller Caller, issueID primitive.ObjectID, reason string) (*models.Issue, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultReopenReason
	}
	return s.apply(ctx, caller, issueID, ActionReopen, func(ctx context.Context, issue *models.Issue, _ time.Time) (*outcome, error) {
		if err := ownIssue(caller, issue); err != nil {
			return nil, err
		}
		recipient, err := s.reopenRecipient(ctx, issue)
		if err != nil {
			return nil, err
		}
		previousWorker := issue.CurrentWorkerID
		issue.ResetForReopen()

		out := &outcome{
			history: models.IssueHistory{
				ActionType:       models.ActionReopened,
				Notes:            reason,
				Actor:            models.CitizenParty(caller.UserID),
				PreviousWorkerID: previousWorker,
			},
		}
		if recipient != nil {
			out.notify = append(out.notify, NotificationIntent{
				Recipient:   models.MCAdminParty(*recipient),
				DesiredType: string(models.NotifyReopened),
			})
		}
		return out, nil
	})
}

// reopenRecipient picks the MC admin over the verifying councillor, falling
// back to the MC admin owning the current department.
func (s *IssueService) reopenRecipient(ctx context.Context, issue *models.Issue) (*primitive.ObjectID, error) {
	if issue.VerifiedByCouncillorID != nil {
		c, err := s.directory.CouncillorByID(ctx, *issue.VerifiedByCouncillorID)
		if err == nil {
			return &c.MCAdminID, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}
	dept, err := s.directory.DepartmentByID(ctx, issue.CurrentDepartmentID)
	if err != nil {
		if isNotFound(err) {
			s.logger.Warn("no MC admin to notify of reopen", "issue_id", issue.ID.Hex())
			return nil, nil
		}
		return nil, err
	}
	return &dept.MCAdminID, nil
}
