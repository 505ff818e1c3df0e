package services_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"civicsync-workflow/models"
	"civicsync-workflow/repository/memory"
	"civicsync-workflow/services"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stepClock advances one minute per reading so timestamps are ordered.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type fixture struct {
	issues        *memory.IssueStore
	history       *memory.HistoryStore
	notifications *memory.NotificationStore
	rewards       *memory.RewardStore
	dir           *memory.Directory
	clock         *stepClock
	svc           *services.IssueService

	citizen    services.Caller
	other      services.Caller
	councillor services.Caller
	mcAdmin    services.Caller
	deptAdmin  services.Caller
	waterAdmin services.Caller
	worker     services.Caller
	worker2    services.Caller

	ward          models.Ward
	otherWard     models.Ward
	councillorRec models.Councillor
	mcRec         models.MCAdminProfile
	roads         models.Department
	water         models.Department
	workerRec     models.WorkerProfile
	worker2Rec    models.WorkerProfile
	waterWorker   models.WorkerProfile
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func caller(role models.Role) services.Caller {
	return services.Caller{UserID: primitive.NewObjectID(), Role: role}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		issues:        memory.NewIssueStore(),
		history:       memory.NewHistoryStore(),
		notifications: memory.NewNotificationStore(),
		rewards:       memory.NewRewardStore(),
		dir:           memory.NewDirectory(),
		clock:         newStepClock(),

		citizen:    caller(models.RoleCitizen),
		other:      caller(models.RoleCitizen),
		councillor: caller(models.RoleCouncillor),
		mcAdmin:    caller(models.RoleMCAdmin),
		deptAdmin:  caller(models.RoleDepartmentAdmin),
		waterAdmin: caller(models.RoleDepartmentAdmin),
		worker:     caller(models.RoleWorker),
		worker2:    caller(models.RoleWorker),
	}

	f.mcRec = f.dir.AddMCAdmin(models.MCAdminProfile{UserID: f.mcAdmin.UserID, City: "Pune"})
	f.councillorRec = models.Councillor{
		ID:        primitive.NewObjectID(),
		UserID:    f.councillor.UserID,
		MCAdminID: f.mcRec.ID,
		Name:      "Asha",
	}
	f.ward = f.dir.AddWard(models.Ward{Name: "Ward 7", CouncillorID: &f.councillorRec.ID})
	f.otherWard = f.dir.AddWard(models.Ward{Name: "Ward 9"})
	f.councillorRec.WardID = f.ward.ID
	f.dir.AddCouncillor(f.councillorRec)

	f.roads = f.dir.AddDepartment(models.Department{Name: models.Roads, MCAdminID: f.mcRec.ID, AdminID: f.deptAdmin.UserID})
	f.water = f.dir.AddDepartment(models.Department{Name: models.Water, MCAdminID: f.mcRec.ID, AdminID: f.waterAdmin.UserID})

	f.workerRec = f.dir.AddWorker(models.WorkerProfile{UserID: f.worker.UserID, DepartmentID: f.roads.ID, Name: "Ravi"})
	f.worker2Rec = f.dir.AddWorker(models.WorkerProfile{UserID: f.worker2.UserID, DepartmentID: f.roads.ID, Name: "Meena"})
	f.waterWorker = f.dir.AddWorker(models.WorkerProfile{UserID: primitive.NewObjectID(), DepartmentID: f.water.ID, Name: "Kiran"})

	dispatcher := services.NewNotificationDispatcher(f.notifications, nil, services.DispatcherConfig{}, f.opts()...)
	f.svc = f.newService(f.issues, dispatcher)
	return f
}

func (f *fixture) opts() []services.Option {
	return []services.Option{services.WithClock(f.clock.Now), services.WithLogger(quietLogger())}
}

func (f *fixture) newService(issues services.IssueStore, notifier services.Notifier) *services.IssueService {
	recorder := services.NewHistoryRecorder(f.history, f.opts()...)
	return services.NewIssueService(issues, f.dir, recorder, notifier, f.rewards, f.opts()...)
}

func (f *fixture) create(t *testing.T, withWard bool) *models.Issue {
	t.Helper()
	in := services.CreateIssueInput{Category: models.Roads, Description: "Pothole near the bus stop"}
	if withWard {
		in.WardID = &f.ward.ID
	}
	issue, err := f.svc.Create(context.Background(), f.citizen, in)
	require.NoError(t, err)
	return issue
}

// advance drives a fresh issue forward until it reaches status.
func (f *fixture) advance(t *testing.T, status models.IssueStatus) *models.Issue {
	t.Helper()
	ctx := context.Background()
	issue := f.create(t, true)

	steps := []struct {
		reaches models.IssueStatus
		run     func() (*models.Issue, error)
	}{
		{models.StatusVerifiedByCouncillor, func() (*models.Issue, error) {
			return f.svc.Verify(ctx, f.councillor, issue.ID, services.VerifyInput{})
		}},
		{models.StatusAssignedToDepartment, func() (*models.Issue, error) {
			return f.svc.AssignDepartment(ctx, f.mcAdmin, issue.ID, services.AssignDepartmentInput{DepartmentID: f.roads.ID})
		}},
		{models.StatusInProgress, func() (*models.Issue, error) {
			return f.svc.AssignWorker(ctx, f.deptAdmin, issue.ID, services.AssignWorkerInput{WorkerID: f.workerRec.ID})
		}},
		{models.StatusResolvedByWorker, func() (*models.Issue, error) {
			return f.svc.CompleteWork(ctx, f.worker, issue.ID, services.CompleteWorkInput{WorkPhotos: []string{"after.jpg"}, Notes: "Filled"})
		}},
		{models.StatusDepartmentResolved, func() (*models.Issue, error) {
			return f.svc.VerifyCompletion(ctx, f.deptAdmin, issue.ID, "Checked")
		}},
		{models.StatusVerifiedResolved, func() (*models.Issue, error) {
			return f.svc.FinalVerify(ctx, f.councillor, issue.ID, "Looks good")
		}},
		{models.StatusResolved, func() (*models.Issue, error) {
			return f.svc.SubmitFeedback(ctx, f.citizen, issue.ID, services.FeedbackInput{Rating: 4, Description: "Quick fix"})
		}},
	}

	for _, step := range steps {
		if issue.Status == status {
			return issue
		}
		next, err := step.run()
		require.NoError(t, err)
		require.Equal(t, step.reaches, next.Status)
		issue = next
	}
	require.Equal(t, status, issue.Status)
	return issue
}

func (f *fixture) historyOf(t *testing.T, id primitive.ObjectID) []models.IssueHistory {
	t.Helper()
	entries, err := f.history.ListByIssue(context.Background(), id)
	require.NoError(t, err)
	return entries
}

func (f *fixture) stored(t *testing.T, id primitive.ObjectID) *models.Issue {
	t.Helper()
	issue, err := f.issues.FindByID(context.Background(), id)
	require.NoError(t, err)
	return issue
}
