package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ----- Councillor actions -----

// councillorFor loads the caller's councillor record and checks the issue
// is unassigned to a ward or sits in the councillor's own ward.
func (s *IssueService) councillorFor(ctx context.Context, caller Caller, issue *models.Issue) (*models.Councillor, error) {
	c, err := s.directory.CouncillorByUser(ctx, caller.UserID)
	if err != nil {
		return nil, forbiddenIfMissing(err, "councillor")
	}
	if issue.WardID != nil && *issue.WardID != c.WardID {
		return nil, fmt.Errorf("%w: issue belongs to another ward", models.ErrForbidden)
	}
	return c, nil
}

// VerifyInput confirms an issue and optionally assigns its ward.
type VerifyInput struct {
	WardID *primitive.ObjectID
	Notes  string
}

// Verify is the councillor's confirmation of an open issue. An issue without
// a ward gets the given ward, or the councillor's own ward when none is given.
func (s *IssueService) Verify(ctx context.Context, caller Caller, issueID primitive.ObjectID, in VerifyInput) (*models.Issue, error) {
	return s.apply(ctx, caller, issueID, ActionVerify, func(ctx context.Context, issue *models.Issue, now time.Time) (*outcome, error) {
		c, err := s.councillorFor(ctx, caller, issue)
		if err != nil {
			return nil, err
		}

		action := models.ActionVerified
		var assigned *primitive.ObjectID
		switch {
		case in.WardID != nil:
			if _, err := s.directory.WardByID(ctx, *in.WardID); err != nil {
				return nil, err
			}
			if issue.WardID == nil || *issue.WardID != *in.WardID {
				action = models.ActionWardAssigned
				assigned = idPtr(*in.WardID)
			}
		case issue.WardID == nil:
			action = models.ActionWardAssigned
			assigned = idPtr(c.WardID)
		}
		if assigned != nil {
			issue.WardID = assigned
		}

		issue.VerifiedByCouncillorID = idPtr(c.ID)
		issue.VerifiedAt = timePtr(now)

		return &outcome{
			history: models.IssueHistory{
				ActionType:     action,
				Notes:          in.Notes,
				Actor:          models.CouncillorParty(c.ID),
				AssignedWardID: assigned,
			},
			notify: []NotificationIntent{{
				Recipient:   models.MCAdminParty(c.MCAdminID),
				DesiredType: string(models.NotifyReadyForDepartment),
			}},
		}, nil
	})
}

// SetPriority changes the issue priority without moving its status. Input
// is coerced; unrecognised values become Medium.
func (s *IssueService) SetPriority(ctx context.Context, caller Caller, issueID primitive.ObjectID, priority string) (*models.Issue, error) {
	return s.apply(ctx, caller, issueID, ActionSetPriority, func(ctx context.Context, issue *models.Issue, _ time.Time) (*outcome, error) {
		c, err := s.councillorFor(ctx, caller, issue)
		if err != nil {
			return nil, err
		}
		p := models.ParsePriority(priority)
		issue.Priority = p
		return &outcome{
			history: models.IssueHistory{
				ActionType: models.ActionPriorityUpdated,
				Notes:      "Priority set to " + string(p),
				Actor:      models.CouncillorParty(c.ID),
			},
		}, nil
	})
}

// FinalVerify is the councillor's sign-off after the department verified the work.
func (s *IssueService) FinalVerify(ctx context.Context, caller Caller, issueID primitive.ObjectID, notes string) (*models.Issue, error) {
	return s.apply(ctx, caller, issueID, ActionFinalVerify, func(ctx context.Context, issue *models.Issue, now time.Time) (*outcome, error) {
		c, err := s.councillorFor(ctx, caller, issue)
		if err != nil {
			return nil, err
		}
		issue.FinalVerifiedByCouncillorID = idPtr(c.ID)
		issue.FinalVerifiedAt = timePtr(now)
		return &outcome{
			history: models.IssueHistory{
				ActionType: models.ActionFinalVerified,
				Notes:      notes,
				Actor:      models.CouncillorParty(c.ID),
			},
			notify: []NotificationIntent{{
				Recipient:   models.CitizenParty(issue.UserID),
				DesiredType: string(models.NotifyProvideFeedback),
			}},
		}, nil
	})
}

// ----- MC admin / department admin routing -----

// AssignDepartmentInput routes a verified issue to a department.
type AssignDepartmentInput struct {
	DepartmentID primitive.ObjectID
	Notes        string
}

// AssignDepartment is the MC admin's routing of a verified or reopened issue.
// The department must belong to the calling MC admin.
func (s *IssueService) AssignDepartment(ctx context.Context, caller Caller, issueID primitive.ObjectID, in AssignDepartmentInput) (*models.Issue, error) {
	return s.apply(ctx, caller, issueID, ActionAssignDepartment, func(ctx context.Context, issue *models.Issue, now time.Time) (*outcome, error) {
		mc, err := s.directory.MCAdminByUser(ctx, caller.UserID)
		if err != nil {
			return nil, forbiddenIfMissing(err, "MC admin")
		}
		dept, err := s.directory.DepartmentByID(ctx, in.DepartmentID)
		if err != nil {
			return nil, err
		}
		if dept.MCAdminID != mc.ID {
			return nil, fmt.Errorf("%w: department belongs to another MC admin", models.ErrForbidden)
		}

		previous := issue.CurrentDepartmentID
		issue.CurrentDepartmentID = dept.ID
		issue.AssignedByMCAdminID = idPtr(mc.ID)
		issue.AssignedToDepartmentAt = timePtr(now)
		issue.CurrentWorkerID = nil

		return &outcome{
			history: models.IssueHistory{
				ActionType:           models.ActionDepartmentAssigned,
				Notes:                in.Notes,
				Actor:                models.MCAdminParty(mc.ID),
				PreviousDepartmentID: idPtr(previous),
				NewDepartmentID:      idPtr(dept.ID),
			},
			notify: []NotificationIntent{{
				Recipient:   models.DepartmentAdminParty(dept.AdminID),
				DesiredType: string(models.NotifyAssignWorker),
			}},
		}, nil
	})
}

// TransferInput moves an issue to another department.
type TransferInput struct {
	NewDepartmentID primitive.ObjectID
	Reason          string
	Notes           string
}

// TransferDepartment moves an issue between departments. MC admins may move
// issues into any of their departments; department admins may only move
// issues out of the department they run, within the same MC admin.
func (s *IssueService) TransferDepartment(ctx context.Context, caller Caller, issueID primitive.ObjectID, in TransferInput) (*models.Issue, error) {
	if in.Reason == "" {
		return nil, &models.ValidationError{Field: "reason", Message: "is required for a transfer"}
	}
	return s.apply(ctx, caller, issueID, ActionTransferDepartment, func(ctx context.Context, issue *models.Issue, now time.Time) (*outcome, error) {
		var actor models.Party
		var tenant primitive.ObjectID

		switch caller.Role {
		case models.RoleMCAdmin:
			mc, err := s.directory.MCAdminByUser(ctx, caller.UserID)
			if err != nil {
				return nil, forbiddenIfMissing(err, "MC admin")
			}
			actor = models.MCAdminParty(mc.ID)
			tenant = mc.ID
			issue.AssignedByMCAdminID = idPtr(mc.ID)
		default:
			current, err := s.ownedDepartment(ctx, caller, issue)
			if err != nil {
				return nil, err
			}
			actor = models.DepartmentAdminParty(caller.UserID)
			tenant = current.MCAdminID
		}

		dept, err := s.directory.DepartmentByID(ctx, in.NewDepartmentID)
		if err != nil {
			return nil, err
		}
		if dept.MCAdminID != tenant {
			return nil, fmt.Errorf("%w: department belongs to another MC admin", models.ErrForbidden)
		}
		if dept.ID == issue.CurrentDepartmentID {
			return nil, &models.ValidationError{Field: "new_department_id", Message: "issue is already in this department"}
		}

		previousDept := issue.CurrentDepartmentID
		previousWorker := issue.CurrentWorkerID
		issue.CurrentDepartmentID = dept.ID
		issue.AssignedToDepartmentAt = timePtr(now)
		issue.CurrentWorkerID = nil
		issue.AssignedByDepartmentAdminID = nil
		issue.AssignedToWorkerAt = nil
		issue.DiscardCompletion()

		return &outcome{
			history: models.IssueHistory{
				ActionType:           models.ActionTransferred,
				Notes:                joinNotes(in.Reason, in.Notes),
				Actor:                actor,
				PreviousDepartmentID: idPtr(previousDept),
				NewDepartmentID:      idPtr(dept.ID),
				PreviousWorkerID:     previousWorker,
			},
			notify: []NotificationIntent{{
				Recipient:   models.DepartmentAdminParty(dept.AdminID),
				DesiredType: string(models.NotifyTransferred),
			}},
		}, nil
	})
}

// ----- Department admin actions -----

// ownedDepartment loads the issue's current department and checks the
// caller administers it.
func (s *IssueService) ownedDepartment(ctx context.Context, caller Caller, issue *models.Issue) (*models.Department, error) {
	dept, err := s.directory.DepartmentByID(ctx, issue.CurrentDepartmentID)
	if err != nil {
		return nil, err
	}
	if dept.AdminID != caller.UserID {
		return nil, fmt.Errorf("%w: issue is not in your department", models.ErrForbidden)
	}
	return dept, nil
}

func (s *IssueService) departmentWorker(ctx context.Context, dept *models.Department, workerID primitive.ObjectID) (*models.WorkerProfile, error) {
	w, err := s.directory.WorkerByID(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if w.DepartmentID != dept.ID {
		return nil, &models.ValidationError{Field: "worker_id", Message: "worker is not in your department"}
	}
	return w, nil
}

// AssignWorkerInput hands an issue to a field worker.
type AssignWorkerInput struct {
	WorkerID primitive.ObjectID
	Notes    string
}

// AssignWorker starts work on an issue routed to the caller's department.
func (s *IssueService) AssignWorker(ctx context.Context, caller Caller, issueID primitive.ObjectID, in AssignWorkerInput) (*models.Issue, error) {
	return s.apply(ctx, caller, issueID, ActionAssignWorker, func(ctx context.Context, issue *models.Issue, now time.Time) (*outcome, error) {
		dept, err := s.ownedDepartment(ctx, caller, issue)
		if err != nil {
			return nil, err
		}
		w, err := s.departmentWorker(ctx, dept, in.WorkerID)
		if err != nil {
			return nil, err
		}

		previous := issue.CurrentWorkerID
		issue.CurrentWorkerID = idPtr(w.ID)
		issue.AssignedByDepartmentAdminID = idPtr(caller.UserID)
		issue.AssignedToWorkerAt = timePtr(now)

		return &outcome{
			history: models.IssueHistory{
				ActionType:       models.ActionWorkerAssigned,
				Notes:            in.Notes,
				Actor:            models.DepartmentAdminParty(caller.UserID),
				PreviousWorkerID: previous,
				NewWorkerID:      idPtr(w.ID),
			},
			notify: []NotificationIntent{{
				Recipient:   models.WorkerParty(w.ID),
				DesiredType: string(models.NotifyStartWork),
			}},
		}, nil
	})
}

// ChangeWorker reassigns the issue to another worker. Work already reported
// done is discarded and the issue returns to in-progress.
func (s *IssueService) ChangeWorker(ctx context.Context, caller Caller, issueID primitive.ObjectID, in AssignWorkerInput) (*models.Issue, error) {
	return s.apply(ctx, caller, issueID, ActionChangeWorker, func(ctx context.Context, issue *models.Issue, now time.Time) (*outcome, error) {
		dept, err := s.ownedDepartment(ctx, caller, issue)
		if err != nil {
			return nil, err
		}
		w, err := s.departmentWorker(ctx, dept, in.WorkerID)
		if err != nil {
			return nil, err
		}
		if issue.CurrentWorkerID != nil && *issue.CurrentWorkerID == w.ID {
			return nil, &models.ValidationError{Field: "new_worker_id", Message: "worker is already assigned"}
		}

		previous := issue.CurrentWorkerID
		issue.CurrentWorkerID = idPtr(w.ID)
		issue.AssignedByDepartmentAdminID = idPtr(caller.UserID)
		issue.AssignedToWorkerAt = timePtr(now)
		issue.DiscardCompletion()

		return &outcome{
			history: models.IssueHistory{
				ActionType:       models.ActionWorkerChanged,
				Notes:            in.Notes,
				Actor:            models.DepartmentAdminParty(caller.UserID),
				PreviousWorkerID: previous,
				NewWorkerID:      idPtr(w.ID),
			},
			notify: []NotificationIntent{{
				Recipient:   models.WorkerParty(w.ID),
				DesiredType: string(models.NotifyReassigned),
			}},
		}, nil
	})
}

// VerifyCompletion is the department admin's check of the worker's report.
func (s *IssueService) VerifyCompletion(ctx context.Context, caller Caller, issueID primitive.ObjectID, notes string) (*models.Issue, error) {
	return s.apply(ctx, caller, issueID, ActionVerifyCompletion, func(ctx context.Context, issue *models.Issue, now time.Time) (*outcome, error) {
		if _, err := s.ownedDepartment(ctx, caller, issue); err != nil {
			return nil, err
		}
		issue.DepartmentVerifiedByID = idPtr(caller.UserID)
		issue.DepartmentVerifiedAt = timePtr(now)

		out := &outcome{
			history: models.IssueHistory{
				ActionType: models.ActionDepartmentVerified,
				Notes:      notes,
				Actor:      models.DepartmentAdminParty(caller.UserID),
			},
		}
		councillorID, err := s.wardCouncillor(ctx, issue)
		if err != nil {
			return nil, err
		}
		if councillorID != nil {
			out.notify = append(out.notify, NotificationIntent{
				Recipient:   models.CouncillorParty(*councillorID),
				DesiredType: string(models.NotifyFinalVerification),
			})
		}
		return out, nil
	})
}

// wardCouncillor finds who should do the final verification: the ward's
// councillor, or failing that the councillor who verified the issue.
func (s *IssueService) wardCouncillor(ctx context.Context, issue *models.Issue) (*primitive.ObjectID, error) {
	if issue.WardID != nil {
		ward, err := s.directory.WardByID(ctx, *issue.WardID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		if ward != nil && ward.CouncillorID != nil {
			return ward.CouncillorID, nil
		}
	}
	return issue.VerifiedByCouncillorID, nil
}

// ----- Worker actions -----

// CompleteWorkInput is the worker's completion report.
type CompleteWorkInput struct {
	WorkPhotos []string
	Notes      string
}

// CompleteWork marks the assigned worker's job done. Every completion
// appends its own history row.
func (s *IssueService) CompleteWork(ctx context.Context, caller Caller, issueID primitive.ObjectID, in CompleteWorkInput) (*models.Issue, error) {
	return s.apply(ctx, caller, issueID, ActionCompleteWork, func(ctx context.Context, issue *models.Issue, now time.Time) (*outcome, error) {
		w, err := s.directory.WorkerByUser(ctx, caller.UserID)
		if err != nil {
			return nil, forbiddenIfMissing(err, "worker")
		}
		if issue.CurrentWorkerID == nil || *issue.CurrentWorkerID != w.ID {
			return nil, fmt.Errorf("%w: issue is not assigned to you", models.ErrForbidden)
		}
		dept, err := s.directory.DepartmentByID(ctx, issue.CurrentDepartmentID)
		if err != nil {
			return nil, err
		}

		issue.WorkerPhotos = append(issue.WorkerPhotos, in.WorkPhotos...)
		issue.WorkerNotes = in.Notes
		issue.ResolvedByWorkerID = idPtr(w.ID)
		issue.ResolvedByWorkerAt = timePtr(now)

		return &outcome{
			history: models.IssueHistory{
				ActionType: models.ActionWorkCompleted,
				Notes:      in.Notes,
				Actor:      models.WorkerParty(w.ID),
			},
			notify: []NotificationIntent{{
				Recipient:   models.DepartmentAdminParty(dept.AdminID),
				DesiredType: string(models.NotifyWorkCompleted),
			}},
		}, nil
	})
}
