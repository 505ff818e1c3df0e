package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationScope = "civicsync-workflow/services"

// IssueService owns the issue lifecycle. It is the only writer of Issue.Status
// and the workflow provenance fields.
type IssueService struct {
	issues     IssueStore
	directory  Directory
	recorder   *HistoryRecorder
	notifier   Notifier
	rewards    RewardStore
	now        func() time.Time
	logger     *slog.Logger
	transCount metric.Int64Counter
}

func NewIssueService(
	issues IssueStore,
	directory Directory,
	recorder *HistoryRecorder,
	notifier Notifier,
	rewards RewardStore,
	opts ...Option,
) *IssueService {
	o := buildOptions(opts)

	counter, err := otel.Meter(instrumentationScope).Int64Counter(
		"issue.transitions",
		metric.WithDescription("Issue lifecycle transitions committed, by action and resulting status"),
	)
	if err != nil {
		o.logger.Warn("create transition counter failed", "error", err)
		counter = noop.Int64Counter{}
	}

	return &IssueService{
		issues:     issues,
		directory:  directory,
		recorder:   recorder,
		notifier:   notifier,
		rewards:    rewards,
		now:        o.now,
		logger:     o.logger,
		transCount: counter,
	}
}

// outcome collects the side effects of one transition. They run only after
// the issue write has been committed.
type outcome struct {
	history models.IssueHistory
	notify  []NotificationIntent
	reward  int
}

type mutation func(ctx context.Context, issue *models.Issue, now time.Time) (*outcome, error)

// apply runs one transition: role gate, load, precondition check, mutation,
// compare-and-set write, then history, reward and notifications in that order.
func (s *IssueService) apply(ctx context.Context, caller Caller, issueID primitive.ObjectID, action Action, mutate mutation) (*models.Issue, error) {
	t, ok := transitions[action]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", action)
	}
	if !t.allowsRole(caller.Role) {
		return nil, fmt.Errorf("%w: role %q cannot %s", models.ErrForbidden, caller.Role, action)
	}

	current, err := s.issues.FindByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !t.allowsFrom(current.Status) {
		return nil, &models.TransitionError{Action: string(action), From: current.Status}
	}

	now := s.now()
	next := current.Clone()
	out, err := mutate(ctx, next, now)
	if err != nil {
		return nil, err
	}
	if t.to != "" {
		next.Status = t.to
	}
	if !next.Status.HoldsWorker() {
		next.CurrentWorkerID = nil
	}
	next.UpdatedAt = now

	if err := s.issues.Replace(ctx, next, current.Version); err != nil {
		return nil, err
	}
	s.transCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", string(action)),
		attribute.String("status", string(next.Status)),
	))

	if err := s.settle(ctx, next, out); err != nil {
		return nil, err
	}
	return next, nil
}

// settle runs the post-commit effects: history, then reward, then
// notifications. Only a history failure is returned; a lost reward credit is
// logged so the committed transition still has its audit row.
func (s *IssueService) settle(ctx context.Context, issue *models.Issue, out *outcome) error {
	entry := out.history
	entry.IssueID = issue.ID
	entry.Status = issue.Status
	if _, err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Error("history append failed after commit",
			"issue_id", issue.ID.Hex(),
			"action", entry.ActionType,
			"error", err,
		)
		return err
	}

	if out.reward > 0 {
		if _, err := s.rewards.AddPoints(ctx, issue.UserID, out.reward); err != nil {
			s.logger.Error("reward credit failed after commit",
				"issue_id", issue.ID.Hex(),
				"user_id", issue.UserID.Hex(),
				"points", out.reward,
				"error", err,
			)
		}
	}

	for _, intent := range out.notify {
		intent.IssueID = issue.ID
		s.notifier.Dispatch(ctx, intent)
	}
	return nil
}

// CreateIssueInput is the citizen's report.
type CreateIssueInput struct {
	Category    models.IssueCategory
	Description string
	WardID      *primitive.ObjectID
	Photos      []string
	Coordinates *models.GeoPoint
}

// Create opens a new issue. The department is derived from the category,
// scoped to the ward councillor's MC admin when the ward is known.
func (s *IssueService) Create(ctx context.Context, caller Caller, in CreateIssueInput) (*models.Issue, error) {
	if !transitions[ActionCreate].allowsRole(caller.Role) {
		return nil, fmt.Errorf("%w: role %q cannot create issues", models.ErrForbidden, caller.Role)
	}
	if !in.Category.Valid() {
		return nil, &models.ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", in.Category)}
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, &models.ValidationError{Field: "description", Message: "is required"}
	}

	var (
		scope      *primitive.ObjectID
		councillor *models.Councillor
	)
	if in.WardID != nil {
		ward, err := s.directory.WardByID(ctx, *in.WardID)
		if err != nil {
			return nil, err
		}
		if ward.CouncillorID != nil {
			c, err := s.directory.CouncillorByID(ctx, *ward.CouncillorID)
			switch {
			case err == nil:
				councillor = c
				scope = &c.MCAdminID
			case !errors.Is(err, models.ErrNotFound):
				return nil, err
			}
		}
	}

	dept, err := s.directory.DepartmentForCategory(ctx, in.Category, scope)
	if err != nil {
		return nil, err
	}

	now := s.now()
	photos := in.Photos
	if photos == nil {
		photos = []string{}
	}
	issue := &models.Issue{
		ID:                  primitive.NewObjectID(),
		UserID:              caller.UserID,
		Category:            in.Category,
		Description:         description,
		Coordinates:         in.Coordinates,
		Photos:              photos,
		WardID:              in.WardID,
		CurrentDepartmentID: dept.ID,
		Status:              models.StatusOpen,
		Priority:            models.PriorityMedium,
		WorkerPhotos:        []string{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, err
	}
	s.transCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", string(ActionCreate)),
		attribute.String("status", string(issue.Status)),
	))

	out := &outcome{
		history: models.IssueHistory{
			ActionType:      models.ActionCreated,
			Actor:           models.CitizenParty(caller.UserID),
			NewDepartmentID: &dept.ID,
			AssignedWardID:  in.WardID,
		},
	}
	if councillor != nil {
		out.notify = append(out.notify, NotificationIntent{
			Recipient:   models.CouncillorParty(councillor.ID),
			DesiredType: string(models.NotifyIssueAssigned),
		})
	}
	if err := s.settle(ctx, issue, out); err != nil {
		return nil, err
	}
	return issue, nil
}

// Get loads one issue.
func (s *IssueService) Get(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	return s.issues.FindByID(ctx, id)
}

// List returns issues matching filter, newest first.
func (s *IssueService) List(ctx context.Context, filter IssueFilter) ([]models.Issue, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, &models.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", *filter.Status)}
	}
	return s.issues.List(ctx, filter)
}

// History returns the issue's audit trail, oldest first.
func (s *IssueService) History(ctx context.Context, id primitive.ObjectID) ([]models.IssueHistory, error) {
	if _, err := s.issues.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.recorder.ForIssue(ctx, id)
}

func joinNotes(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " - ")
}

func timePtr(t time.Time) *time.Time { return &t }

func idPtr(id primitive.ObjectID) *primitive.ObjectID { return &id }

// forbiddenIfMissing turns a missing caller record into a Forbidden error:
// the caller has the role but no record backing it.
func forbiddenIfMissing(err error, what string) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: caller has no %s record", models.ErrForbidden, what)
	}
	return err
}

func isNotFound(err error) bool { return errors.Is(err, models.ErrNotFound) }
