package services

import (
	"fmt"
	"slices"

	"civicsync-workflow/models"
)

// Action names a lifecycle operation.
type Action string

const (
	ActionCreate             Action = "create"
	ActionVerify             Action = "verify"
	ActionSetPriority        Action = "set_priority"
	ActionAssignDepartment   Action = "assign_department"
	ActionTransferDepartment Action = "transfer_department"
	ActionAssignWorker       Action = "assign_worker"
	ActionChangeWorker       Action = "change_worker"
	ActionCompleteWork       Action = "complete_work"
	ActionVerifyCompletion   Action = "verify_completion"
	ActionFinalVerify        Action = "final_verify"
	ActionSubmitFeedback     Action = "submit_feedback"
	ActionReopen             Action = "reopen"
)

// transition is one row of the lifecycle table. An empty to keeps the
// current status.
type transition struct {
	roles []models.Role
	from  []models.IssueStatus
	to    models.IssueStatus
}

func (t transition) allowsRole(r models.Role) bool { return slices.Contains(t.roles, r) }

func (t transition) allowsFrom(s models.IssueStatus) bool { return slices.Contains(t.from, s) }

var transitions = map[Action]transition{
	ActionCreate: {
		roles: []models.Role{models.RoleCitizen},
		to:    models.StatusOpen,
	},
	ActionVerify: {
		roles: []models.Role{models.RoleCouncillor},
		from:  []models.IssueStatus{models.StatusOpen},
		to:    models.StatusVerifiedByCouncillor,
	},
	ActionSetPriority: {
		roles: []models.Role{models.RoleCouncillor},
		from:  []models.IssueStatus{models.StatusOpen, models.StatusVerifiedByCouncillor, models.StatusReopened},
	},
	ActionAssignDepartment: {
		roles: []models.Role{models.RoleMCAdmin},
		from:  []models.IssueStatus{models.StatusVerifiedByCouncillor, models.StatusReopened},
		to:    models.StatusAssignedToDepartment,
	},
	ActionTransferDepartment: {
		roles: []models.Role{models.RoleMCAdmin, models.RoleDepartmentAdmin},
		from:  []models.IssueStatus{models.StatusAssignedToDepartment, models.StatusInProgress, models.StatusResolvedByWorker},
		to:    models.StatusAssignedToDepartment,
	},
	ActionAssignWorker: {
		roles: []models.Role{models.RoleDepartmentAdmin},
		from:  []models.IssueStatus{models.StatusAssignedToDepartment},
		to:    models.StatusInProgress,
	},
	ActionChangeWorker: {
		roles: []models.Role{models.RoleDepartmentAdmin},
		from:  []models.IssueStatus{models.StatusAssignedToDepartment, models.StatusInProgress, models.StatusResolvedByWorker},
		to:    models.StatusInProgress,
	},
	ActionCompleteWork: {
		roles: []models.Role{models.RoleWorker},
		from:  []models.IssueStatus{models.StatusInProgress},
		to:    models.StatusResolvedByWorker,
	},
	ActionVerifyCompletion: {
		roles: []models.Role{models.RoleDepartmentAdmin},
		from:  []models.IssueStatus{models.StatusResolvedByWorker},
		to:    models.StatusDepartmentResolved,
	},
	ActionFinalVerify: {
		roles: []models.Role{models.RoleCouncillor},
		from:  []models.IssueStatus{models.StatusDepartmentResolved},
		to:    models.StatusVerifiedResolved,
	},
	ActionSubmitFeedback: {
		roles: []models.Role{models.RoleCitizen},
		from:  []models.IssueStatus{models.StatusVerifiedResolved},
		to:    models.StatusResolved,
	},
	ActionReopen: {
		roles: []models.Role{models.RoleCitizen},
		from:  []models.IssueStatus{models.StatusResolved},
		to:    models.StatusReopened,
	},
}

// validateTransitions checks the table only names known roles and statuses.
func validateTransitions() error {
	for action, t := range transitions {
		if len(t.roles) == 0 {
			return fmt.Errorf("action %s: no roles", action)
		}
		for _, r := range t.roles {
			if !r.Valid() {
				return fmt.Errorf("action %s: unknown role %q", action, r)
			}
		}
		if action != ActionCreate && len(t.from) == 0 {
			return fmt.Errorf("action %s: no precondition states", action)
		}
		for _, s := range t.from {
			if !s.Valid() {
				return fmt.Errorf("action %s: unknown precondition %q", action, s)
			}
		}
		if t.to != "" && !t.to.Valid() {
			return fmt.Errorf("action %s: unknown target %q", action, t.to)
		}
	}
	return nil
}

func init() {
	if err := validateTransitions(); err != nil {
		panic("services: invalid lifecycle table: " + err.Error())
	}
}

// AllowedActions lists the actions role may take on an issue in status,
// in a stable order.
func AllowedActions(status models.IssueStatus, role models.Role) []Action {
	var out []Action
	for action, t := range transitions {
		if action != ActionCreate && t.allowsRole(role) && t.allowsFrom(status) {
			out = append(out, action)
		}
	}
	slices.Sort(out)
	return out
}

// NextStep is a human-readable hint for what happens after status.
func NextStep(status models.IssueStatus) string {
	switch status {
	case models.StatusOpen:
		return "Waiting for the ward councillor to verify the issue"
	case models.StatusVerifiedByCouncillor:
		return "Waiting for the MC admin to assign a department"
	case models.StatusAssignedToDepartment:
		return "Waiting for the department admin to assign a worker"
	case models.StatusInProgress:
		return "Worker is resolving the issue"
	case models.StatusResolvedByWorker:
		return "Waiting for the department admin to verify the work"
	case models.StatusDepartmentResolved:
		return "Waiting for the councillor's final verification"
	case models.StatusVerifiedResolved:
		return "Waiting for the citizen's feedback"
	case models.StatusResolved:
		return "Issue closed; the citizen may reopen it"
	case models.StatusReopened:
		return "Waiting for the MC admin to reassign a department"
	default:
		return ""
	}
}
