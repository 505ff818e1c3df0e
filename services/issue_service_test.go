package services_test

import (
	"context"
	"errors"
	"testing"

	"civicsync-workflow/models"
	"civicsync-workflow/repository/memory"
	"civicsync-workflow/services"
	"civicsync-workflow/services/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

func TestRoundTripThroughForwardStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue := f.create(t, true)
	assert.Equal(t, models.StatusOpen, issue.Status)

	statuses := []models.IssueStatus{issue.Status}
	for _, target := range models.Statuses[1:8] {
		issue = f.advance(t, target)
		statuses = append(statuses, issue.Status)
	}
	assert.Equal(t, models.Statuses[:8], statuses)

	// advance creates a fresh issue each time; inspect the last one.
	final := f.stored(t, issue.ID)
	assert.Equal(t, models.StatusResolved, final.Status)
	require.NotNil(t, final.FeedbackRating)
	assert.Equal(t, 4, *final.FeedbackRating)
	assert.Equal(t, f.workerRec.ID, *final.CurrentWorkerID)
	assert.Equal(t, f.councillorRec.ID, *final.VerifiedByCouncillorID)
	assert.Equal(t, f.mcRec.ID, *final.AssignedByMCAdminID)
	assert.Equal(t, f.deptAdmin.UserID, *final.AssignedByDepartmentAdminID)
	assert.Equal(t, f.workerRec.ID, *final.ResolvedByWorkerID)
	assert.Equal(t, f.deptAdmin.UserID, *final.DepartmentVerifiedByID)
	assert.Equal(t, f.councillorRec.ID, *final.FinalVerifiedByCouncillorID)
	assert.Equal(t, []string{"after.jpg"}, final.WorkerPhotos)

	history := f.historyOf(t, issue.ID)
	var actions []models.HistoryAction
	for _, h := range history {
		actions = append(actions, h.ActionType)
	}
	assert.Equal(t, []models.HistoryAction{
		models.ActionCreated,
		models.ActionVerified,
		models.ActionDepartmentAssigned,
		models.ActionWorkerAssigned,
		models.ActionWorkCompleted,
		models.ActionDepartmentVerified,
		models.ActionFinalVerified,
		models.ActionFeedbackSubmitted,
	}, actions)
	for i, h := range history {
		assert.Equal(t, models.Statuses[i], h.Status, "history entry %d", i)
		assert.False(t, h.Timestamp.IsZero())
	}

	var got []models.NotificationType
	for _, n := range f.notifications.All() {
		if n.IssueID == issue.ID {
			got = append(got, n.Type)
		}
	}
	assert.Equal(t, []models.NotificationType{
		models.NotifyIssueAssigned,
		models.NotifyReadyForDepartment,
		models.NotifyAssignWorker,
		models.NotifyStartWork,
		models.NotifyWorkCompleted,
		models.NotifyFinalVerification,
		models.NotifyProvideFeedback,
	}, got)

	reward, err := f.rewards.FindByUser(ctx, f.citizen.UserID)
	require.NoError(t, err)
	// Only the last issue reached feedback.
	assert.Equal(t, models.FeedbackRewardPoints, reward.Points)
}

func TestNotificationRecipients(t *testing.T) {
	f := newFixture(t)
	issue := f.advance(t, models.StatusResolved)

	recipients := map[models.NotificationType]models.Party{}
	for _, n := range f.notifications.All() {
		if n.IssueID == issue.ID {
			recipients[n.Type] = n.Recipient
		}
	}
	assert.Equal(t, models.CouncillorParty(f.councillorRec.ID), recipients[models.NotifyIssueAssigned])
	assert.Equal(t, models.MCAdminParty(f.mcRec.ID), recipients[models.NotifyReadyForDepartment])
	assert.Equal(t, models.DepartmentAdminParty(f.deptAdmin.UserID), recipients[models.NotifyAssignWorker])
	assert.Equal(t, models.WorkerParty(f.workerRec.ID), recipients[models.NotifyStartWork])
	assert.Equal(t, models.DepartmentAdminParty(f.deptAdmin.UserID), recipients[models.NotifyWorkCompleted])
	assert.Equal(t, models.CouncillorParty(f.councillorRec.ID), recipients[models.NotifyFinalVerification])
	assert.Equal(t, models.CitizenParty(f.citizen.UserID), recipients[models.NotifyProvideFeedback])
}

func TestCreateRoadsWithoutWard(t *testing.T) {
	f := newFixture(t)

	issue := f.create(t, false)

	assert.Equal(t, models.StatusOpen, issue.Status)
	assert.Equal(t, f.roads.ID, issue.CurrentDepartmentID)
	assert.Nil(t, issue.WardID)
	assert.Equal(t, models.PriorityMedium, issue.Priority)
	assert.Empty(t, f.notifications.All(), "no ward means no councillor to notify")

	history := f.historyOf(t, issue.ID)
	require.Len(t, history, 1)
	assert.Equal(t, models.ActionCreated, history[0].ActionType)
	assert.Equal(t, models.CitizenParty(f.citizen.UserID), history[0].Actor)
	assert.Equal(t, f.roads.ID, *history[0].NewDepartmentID)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		caller services.Caller
		in     services.CreateIssueInput
		want   error
	}{
		{
			name:   "unknown category",
			caller: f.citizen,
			in:     services.CreateIssueInput{Category: "Parks", Description: "Broken bench"},
			want:   models.ErrValidation,
		},
		{
			name:   "blank description",
			caller: f.citizen,
			in:     services.CreateIssueInput{Category: models.Water, Description: "   "},
			want:   models.ErrValidation,
		},
		{
			name:   "not a citizen",
			caller: f.councillor,
			in:     services.CreateIssueInput{Category: models.Water, Description: "Leak"},
			want:   models.ErrForbidden,
		},
		{
			name:   "unknown ward",
			caller: f.citizen,
			in:     services.CreateIssueInput{Category: models.Water, Description: "Leak", WardID: ptr(primitive.NewObjectID())},
			want:   models.ErrNotFound,
		},
		{
			name:   "no department for category",
			caller: f.citizen,
			in:     services.CreateIssueInput{Category: models.Electricity, Description: "Streetlight out"},
			want:   models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.caller, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStaleTransitionIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.create(t, true)

	_, err := f.svc.Verify(ctx, f.councillor, issue.ID, services.VerifyInput{})
	require.NoError(t, err)
	historyBefore := len(f.historyOf(t, issue.ID))
	notificationsBefore := len(f.notifications.All())

	_, err = f.svc.Verify(ctx, f.councillor, issue.ID, services.VerifyInput{})

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	var te *models.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.StatusVerifiedByCouncillor, te.From)
	assert.Len(t, f.historyOf(t, issue.ID), historyBefore)
	assert.Len(t, f.notifications.All(), notificationsBefore)
}

func TestVerifyCompletionWhileInProgress(t *testing.T) {
	f := newFixture(t)
	issue := f.advance(t, models.StatusInProgress)
	before := f.stored(t, issue.ID)

	_, err := f.svc.VerifyCompletion(context.Background(), f.deptAdmin, issue.ID, "done?")

	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, before, f.stored(t, issue.ID))
}

func TestVerifyAssignsWard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("defaults to own ward", func(t *testing.T) {
		issue := f.create(t, false)

		verified, err := f.svc.Verify(ctx, f.councillor, issue.ID, services.VerifyInput{Notes: "Seen it"})
		require.NoError(t, err)

		assert.Equal(t, f.ward.ID, *verified.WardID)
		assert.Equal(t, f.councillorRec.ID, *verified.VerifiedByCouncillorID)
		require.NotNil(t, verified.VerifiedAt)

		history := f.historyOf(t, issue.ID)
		last := history[len(history)-1]
		assert.Equal(t, models.ActionWardAssigned, last.ActionType)
		assert.Equal(t, f.ward.ID, *last.AssignedWardID)
		assert.Equal(t, models.CouncillorParty(f.councillorRec.ID), last.Actor)
		assert.Equal(t, "Seen it", last.Notes)
	})

	t.Run("confirms existing ward", func(t *testing.T) {
		issue := f.create(t, true)

		_, err := f.svc.Verify(ctx, f.councillor, issue.ID, services.VerifyInput{})
		require.NoError(t, err)

		history := f.historyOf(t, issue.ID)
		last := history[len(history)-1]
		assert.Equal(t, models.ActionVerified, last.ActionType)
		assert.Nil(t, last.AssignedWardID)
	})

	t.Run("issue in another ward", func(t *testing.T) {
		issue, err := f.svc.Create(ctx, f.citizen, services.CreateIssueInput{
			Category: models.Roads, Description: "Crack", WardID: &f.otherWard.ID,
		})
		require.NoError(t, err)

		_, err = f.svc.Verify(ctx, f.councillor, issue.ID, services.VerifyInput{})
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestRoleGate(t *testing.T) {
	f := newFixture(t)
	issue := f.create(t, true)

	_, err := f.svc.Verify(context.Background(), f.citizen, issue.ID, services.VerifyInput{})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.Verify(context.Background(), f.councillor, primitive.NewObjectID(), services.VerifyInput{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCallerWithoutRecordIsForbidden(t *testing.T) {
	f := newFixture(t)
	issue := f.create(t, true)

	stranger := caller(models.RoleCouncillor)
	_, err := f.svc.Verify(context.Background(), stranger, issue.ID, services.VerifyInput{})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestSetPriority(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.create(t, true)

	tests := []struct {
		input string
		want  models.Priority
	}{
		{"high", models.PriorityHigh},
		{"LOW", models.PriorityLow},
		{"urgent", models.PriorityMedium},
	}
	for _, tt := range tests {
		updated, err := f.svc.SetPriority(ctx, f.councillor, issue.ID, tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, updated.Priority)
		assert.Equal(t, models.StatusOpen, updated.Status)
	}

	history := f.historyOf(t, issue.ID)
	assert.Len(t, history, 4)
	assert.Equal(t, models.ActionPriorityUpdated, history[3].ActionType)
	assert.Equal(t, models.StatusOpen, history[3].Status)
}

func TestDepartmentOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.advance(t, models.StatusAssignedToDepartment)

	_, err := f.svc.AssignWorker(ctx, f.waterAdmin, issue.ID, services.AssignWorkerInput{WorkerID: f.workerRec.ID})
	assert.ErrorIs(t, err, models.ErrForbidden, "admin of another department")

	_, err = f.svc.AssignWorker(ctx, f.deptAdmin, issue.ID, services.AssignWorkerInput{WorkerID: f.waterWorker.ID})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "worker_id", ve.Field)

	_, err = f.svc.AssignWorker(ctx, f.deptAdmin, issue.ID, services.AssignWorkerInput{WorkerID: primitive.NewObjectID()})
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.Equal(t, models.StatusAssignedToDepartment, f.stored(t, issue.ID).Status)
}

func TestAssignDepartmentOfAnotherMCAdmin(t *testing.T) {
	f := newFixture(t)
	foreign := f.dir.AddDepartment(models.Department{Name: models.Roads, MCAdminID: primitive.NewObjectID(), AdminID: primitive.NewObjectID()})
	issue := f.advance(t, models.StatusVerifiedByCouncillor)

	_, err := f.svc.AssignDepartment(context.Background(), f.mcAdmin, issue.ID, services.AssignDepartmentInput{DepartmentID: foreign.ID})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestCompleteWorkByUnassignedWorker(t *testing.T) {
	f := newFixture(t)
	issue := f.advance(t, models.StatusInProgress)

	_, err := f.svc.CompleteWork(context.Background(), f.worker2, issue.ID, services.CompleteWorkInput{})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestTransferDepartment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("reason required", func(t *testing.T) {
		issue := f.advance(t, models.StatusInProgress)
		_, err := f.svc.TransferDepartment(ctx, f.deptAdmin, issue.ID, services.TransferInput{NewDepartmentID: f.water.ID})
		var ve *models.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "reason", ve.Field)
	})

	t.Run("same department", func(t *testing.T) {
		issue := f.advance(t, models.StatusAssignedToDepartment)
		_, err := f.svc.TransferDepartment(ctx, f.mcAdmin, issue.ID, services.TransferInput{NewDepartmentID: f.roads.ID, Reason: "oops"})
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("department admin moves own issue", func(t *testing.T) {
		issue := f.advance(t, models.StatusResolvedByWorker)

		moved, err := f.svc.TransferDepartment(ctx, f.deptAdmin, issue.ID, services.TransferInput{
			NewDepartmentID: f.water.ID,
			Reason:          "Burst main, not a road fault",
		})
		require.NoError(t, err)

		assert.Equal(t, models.StatusAssignedToDepartment, moved.Status)
		assert.Equal(t, f.water.ID, moved.CurrentDepartmentID)
		assert.Nil(t, moved.CurrentWorkerID)
		assert.Nil(t, moved.ResolvedByWorkerID)
		assert.Nil(t, moved.AssignedByDepartmentAdminID)

		history := f.historyOf(t, issue.ID)
		last := history[len(history)-1]
		assert.Equal(t, models.ActionTransferred, last.ActionType)
		assert.Equal(t, f.roads.ID, *last.PreviousDepartmentID)
		assert.Equal(t, f.water.ID, *last.NewDepartmentID)
		assert.Equal(t, f.workerRec.ID, *last.PreviousWorkerID)
		assert.Equal(t, models.DepartmentAdminParty(f.deptAdmin.UserID), last.Actor)
		assert.Contains(t, last.Notes, "Burst main")

		notes := f.notifications.All()
		lastNote := notes[len(notes)-1]
		assert.Equal(t, models.NotifyTransferred, lastNote.Type)
		assert.Equal(t, models.DepartmentAdminParty(f.waterAdmin.UserID), lastNote.Recipient)
	})

	t.Run("department admin of another department", func(t *testing.T) {
		issue := f.advance(t, models.StatusInProgress)
		_, err := f.svc.TransferDepartment(ctx, f.waterAdmin, issue.ID, services.TransferInput{NewDepartmentID: f.water.ID, Reason: "mine now"})
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("MC admin", func(t *testing.T) {
		issue := f.advance(t, models.StatusAssignedToDepartment)
		moved, err := f.svc.TransferDepartment(ctx, f.mcAdmin, issue.ID, services.TransferInput{NewDepartmentID: f.water.ID, Reason: "wrong team"})
		require.NoError(t, err)
		assert.Equal(t, f.water.ID, moved.CurrentDepartmentID)
		assert.Equal(t, f.mcRec.ID, *moved.AssignedByMCAdminID)
	})

	t.Run("not from open", func(t *testing.T) {
		issue := f.create(t, true)
		_, err := f.svc.TransferDepartment(ctx, f.mcAdmin, issue.ID, services.TransferInput{NewDepartmentID: f.water.ID, Reason: "early"})
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})
}

func TestChangeWorkerResetsCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.advance(t, models.StatusResolvedByWorker)

	changed, err := f.svc.ChangeWorker(ctx, f.deptAdmin, issue.ID, services.AssignWorkerInput{WorkerID: f.worker2Rec.ID, Notes: "Redo"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusInProgress, changed.Status)
	assert.Equal(t, f.worker2Rec.ID, *changed.CurrentWorkerID)
	assert.Nil(t, changed.ResolvedByWorkerID)
	assert.Nil(t, changed.ResolvedByWorkerAt)

	notes := f.notifications.All()
	last := notes[len(notes)-1]
	assert.Equal(t, models.NotifyReassigned, last.Type)
	assert.Equal(t, models.WorkerParty(f.worker2Rec.ID), last.Recipient)

	_, err = f.svc.ChangeWorker(ctx, f.deptAdmin, issue.ID, services.AssignWorkerInput{WorkerID: f.worker2Rec.ID})
	assert.ErrorIs(t, err, models.ErrValidation, "same worker again")
}

func TestWorkCompletedHistoryIsAppendOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.advance(t, models.StatusResolvedByWorker)

	_, err := f.svc.ChangeWorker(ctx, f.deptAdmin, issue.ID, services.AssignWorkerInput{WorkerID: f.worker2Rec.ID})
	require.NoError(t, err)
	done, err := f.svc.CompleteWork(ctx, f.worker2, issue.ID, services.CompleteWorkInput{WorkPhotos: []string{"second.jpg"}})
	require.NoError(t, err)

	var completions int
	for _, h := range f.historyOf(t, issue.ID) {
		if h.ActionType == models.ActionWorkCompleted {
			completions++
		}
	}
	assert.Equal(t, 2, completions)
	assert.Equal(t, []string{"after.jpg", "second.jpg"}, done.WorkerPhotos)
}

func TestReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue := f.advance(t, models.StatusVerifiedByCouncillor)
	_, err := f.svc.SetPriority(ctx, f.councillor, issue.ID, "High")
	require.NoError(t, err)
	_, err = f.svc.AssignDepartment(ctx, f.mcAdmin, issue.ID, services.AssignDepartmentInput{DepartmentID: f.roads.ID})
	require.NoError(t, err)
	_, err = f.svc.AssignWorker(ctx, f.deptAdmin, issue.ID, services.AssignWorkerInput{WorkerID: f.workerRec.ID})
	require.NoError(t, err)
	_, err = f.svc.CompleteWork(ctx, f.worker, issue.ID, services.CompleteWorkInput{WorkPhotos: []string{"after.jpg"}, Notes: "Filled"})
	require.NoError(t, err)
	_, err = f.svc.VerifyCompletion(ctx, f.deptAdmin, issue.ID, "")
	require.NoError(t, err)
	_, err = f.svc.FinalVerify(ctx, f.councillor, issue.ID, "")
	require.NoError(t, err)
	resolved, err := f.svc.SubmitFeedback(ctx, f.citizen, issue.ID, services.FeedbackInput{Rating: 2})
	require.NoError(t, err)

	reopened, err := f.svc.Reopen(ctx, f.citizen, issue.ID, "still broken")
	require.NoError(t, err)

	assert.Equal(t, models.StatusReopened, reopened.Status)
	assert.Nil(t, reopened.CurrentWorkerID)
	assert.Nil(t, reopened.FeedbackRating)
	assert.Empty(t, reopened.FeedbackDescription)
	assert.Nil(t, reopened.AssignedByMCAdminID)
	assert.Nil(t, reopened.AssignedToDepartmentAt)
	assert.Nil(t, reopened.AssignedByDepartmentAdminID)
	assert.Nil(t, reopened.ResolvedByWorkerID)
	assert.Nil(t, reopened.DepartmentVerifiedByID)
	assert.Nil(t, reopened.FinalVerifiedByCouncillorID)
	assert.Empty(t, reopened.WorkerPhotos)
	assert.Empty(t, reopened.WorkerNotes)

	assert.Equal(t, resolved.WardID, reopened.WardID)
	assert.Equal(t, models.PriorityHigh, reopened.Priority)
	assert.Equal(t, resolved.UserID, reopened.UserID)
	assert.Equal(t, resolved.Category, reopened.Category)
	assert.Equal(t, resolved.Description, reopened.Description)
	assert.Equal(t, resolved.VerifiedByCouncillorID, reopened.VerifiedByCouncillorID)
	assert.Equal(t, f.roads.ID, reopened.CurrentDepartmentID)

	history := f.historyOf(t, issue.ID)
	last := history[len(history)-1]
	assert.Equal(t, models.ActionReopened, last.ActionType)
	assert.Equal(t, "still broken", last.Notes)
	assert.Equal(t, models.StatusReopened, last.Status)

	notes := f.notifications.All()
	lastNote := notes[len(notes)-1]
	assert.Equal(t, models.NotifyReopened, lastNote.Type)
	assert.Equal(t, models.MCAdminParty(f.mcRec.ID), lastNote.Recipient)

	// Reassignment after reopen is manual.
	again, err := f.svc.AssignDepartment(ctx, f.mcAdmin, issue.ID, services.AssignDepartmentInput{DepartmentID: f.water.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssignedToDepartment, again.Status)
	assert.Equal(t, f.water.ID, again.CurrentDepartmentID)
}

func TestReopenDefaultsReasonAndChecksOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.advance(t, models.StatusResolved)

	_, err := f.svc.Reopen(ctx, f.other, issue.ID, "")
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.Reopen(ctx, f.citizen, issue.ID, "  ")
	require.NoError(t, err)
	history := f.historyOf(t, issue.ID)
	assert.Equal(t, services.DefaultReopenReason, history[len(history)-1].Notes)
}

func TestFeedbackRatingBoundary(t *testing.T) {
	tests := []struct {
		rating  int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{5, false},
		{6, true},
		{-3, true},
	}
	for _, tt := range tests {
		f := newFixture(t)
		issue := f.advance(t, models.StatusVerifiedResolved)

		got, err := f.svc.SubmitFeedback(context.Background(), f.citizen, issue.ID, services.FeedbackInput{Rating: tt.rating})
		if tt.wantErr {
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve, "rating %d", tt.rating)
			assert.Equal(t, "rating", ve.Field)
			assert.Equal(t, models.StatusVerifiedResolved, f.stored(t, issue.ID).Status)
			_, err := f.rewards.FindByUser(context.Background(), f.citizen.UserID)
			assert.ErrorIs(t, err, models.ErrNotFound)
			continue
		}
		require.NoError(t, err, "rating %d", tt.rating)
		assert.Equal(t, tt.rating, *got.FeedbackRating)
	}
}

func TestFeedbackRewardsAccumulate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		f.advance(t, models.StatusResolved)
	}

	reward, err := f.rewards.FindByUser(ctx, f.citizen.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2*models.FeedbackRewardPoints, reward.Points)
}

func TestFeedbackByAnotherCitizen(t *testing.T) {
	f := newFixture(t)
	issue := f.advance(t, models.StatusVerifiedResolved)

	_, err := f.svc.SubmitFeedback(context.Background(), f.other, issue.ID, services.FeedbackInput{Rating: 5})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

// racingStore lets a concurrent writer commit between load and write.
type racingStore struct {
	*memory.IssueStore
}

func (r racingStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	issue, err := r.IssueStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.IssueStore.Replace(ctx, issue.Clone(), issue.Version); err != nil {
		return nil, err
	}
	return issue, nil
}

func TestConcurrentModificationConflicts(t *testing.T) {
	f := newFixture(t)
	issue := f.create(t, true)
	historyBefore := len(f.historyOf(t, issue.ID))

	dispatcher := services.NewNotificationDispatcher(f.notifications, nil, services.DispatcherConfig{}, f.opts()...)
	racing := f.newService(racingStore{f.issues}, dispatcher)

	_, err := racing.Verify(context.Background(), f.councillor, issue.ID, services.VerifyInput{})

	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, models.StatusOpen, f.stored(t, issue.ID).Status)
	assert.Len(t, f.historyOf(t, issue.ID), historyBefore)
}

func TestNotificationFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)

	store := mocks.NewMockNotificationStore(ctrl)
	store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset")).Times(2)

	dispatcher := services.NewNotificationDispatcher(store, nil, services.DispatcherConfig{}, f.opts()...)
	svc := f.newService(f.issues, dispatcher)
	ctx := context.Background()

	issue, err := svc.Create(ctx, f.citizen, services.CreateIssueInput{Category: models.Roads, Description: "Pothole", WardID: &f.ward.ID})
	require.NoError(t, err)

	verified, err := svc.Verify(ctx, f.councillor, issue.ID, services.VerifyInput{})
	require.NoError(t, err)

	assert.Equal(t, models.StatusVerifiedByCouncillor, verified.Status)
	assert.Equal(t, models.StatusVerifiedByCouncillor, f.stored(t, issue.ID).Status)
	assert.Len(t, f.historyOf(t, issue.ID), 2)
}

func TestRewardFailureKeepsHistory(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	issue := f.advance(t, models.StatusVerifiedResolved)
	before := len(f.historyOf(t, issue.ID))

	rewards := mocks.NewMockRewardStore(ctrl)
	rewards.EXPECT().
		AddPoints(gomock.Any(), f.citizen.UserID, models.FeedbackRewardPoints).
		Return(nil, errors.New("write concern timeout"))

	recorder := services.NewHistoryRecorder(f.history, f.opts()...)
	dispatcher := services.NewNotificationDispatcher(f.notifications, nil, services.DispatcherConfig{}, f.opts()...)
	svc := services.NewIssueService(f.issues, f.dir, recorder, dispatcher, rewards, f.opts()...)

	closed, err := svc.SubmitFeedback(ctx, f.citizen, issue.ID, services.FeedbackInput{Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, closed.Status)

	entries := f.historyOf(t, issue.ID)
	require.Len(t, entries, before+1)
	last := entries[len(entries)-1]
	assert.Equal(t, models.ActionFeedbackSubmitted, last.ActionType)
	assert.Equal(t, models.StatusResolved, last.Status)
}

func TestReassignedWorkStartsClean(t *testing.T) {
	ctx := context.Background()

	t.Run("change worker", func(t *testing.T) {
		f := newFixture(t)
		issue := f.advance(t, models.StatusResolvedByWorker)
		require.NotEmpty(t, issue.WorkerPhotos)

		changed, err := f.svc.ChangeWorker(ctx, f.deptAdmin, issue.ID, services.AssignWorkerInput{WorkerID: f.worker2Rec.ID})
		require.NoError(t, err)
		assert.Empty(t, changed.WorkerPhotos)
		assert.Empty(t, changed.WorkerNotes)

		done, err := f.svc.CompleteWork(ctx, f.worker2, issue.ID, services.CompleteWorkInput{WorkPhotos: []string{"second.jpg"}, Notes: "Relaid"})
		require.NoError(t, err)
		assert.Equal(t, []string{"second.jpg"}, done.WorkerPhotos)
		assert.Equal(t, "Relaid", done.WorkerNotes)
	})

	t.Run("transfer", func(t *testing.T) {
		f := newFixture(t)
		issue := f.advance(t, models.StatusResolvedByWorker)

		moved, err := f.svc.TransferDepartment(ctx, f.deptAdmin, issue.ID, services.TransferInput{NewDepartmentID: f.water.ID, Reason: "Pipe burst"})
		require.NoError(t, err)
		assert.Nil(t, moved.ResolvedByWorkerID)
		assert.Empty(t, moved.WorkerPhotos)
		assert.Empty(t, moved.WorkerNotes)
		assert.Empty(t, f.stored(t, issue.ID).WorkerPhotos)
	})
}

func TestListAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, true)
	f.create(t, false)
	f.advance(t, models.StatusVerifiedByCouncillor)

	open := models.StatusOpen
	issues, err := f.svc.List(ctx, services.IssueFilter{Status: &open})
	require.NoError(t, err)
	assert.Len(t, issues, 2)

	mine, err := f.svc.List(ctx, services.IssueFilter{UserID: &f.citizen.UserID})
	require.NoError(t, err)
	assert.Len(t, mine, 3)
	assert.True(t, !mine[0].CreatedAt.Before(mine[1].CreatedAt), "newest first")

	inWard, err := f.svc.List(ctx, services.IssueFilter{WardID: &f.ward.ID})
	require.NoError(t, err)
	assert.Len(t, inWard, 2)

	bad := models.IssueStatus("closed")
	_, err = f.svc.List(ctx, services.IssueFilter{Status: &bad})
	assert.ErrorIs(t, err, models.ErrValidation)

	history, err := f.svc.History(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = f.svc.History(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func ptr[T any](v T) *T { return &v }
