package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HistoryAction tags what kind of transition an IssueHistory row records.
type HistoryAction string

const (
	ActionCreated            HistoryAction = "created"
	ActionVerified           HistoryAction = "verified"
	ActionWardAssigned       HistoryAction = "ward_assigned"
	ActionDepartmentAssigned HistoryAction = "department_assigned"
	ActionWorkerAssigned     HistoryAction = "worker_assigned"
	ActionWorkCompleted      HistoryAction = "work_completed"
	ActionDepartmentVerified HistoryAction = "department_verified"
	ActionFinalVerified      HistoryAction = "final_verified"
	ActionFeedbackSubmitted  HistoryAction = "feedback_submitted"
	ActionReopened           HistoryAction = "reopened"
	ActionTransferred        HistoryAction = "transferred"
	ActionPriorityUpdated    HistoryAction = "priority_updated"
	ActionWorkerChanged      HistoryAction = "worker_changed"
)

// IssueHistory is one immutable audit row per transition.
type IssueHistory struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IssueID    primitive.ObjectID `bson:"issue_id" json:"issue_id"`
	Status     IssueStatus        `bson:"status" json:"status"`
	ActionType HistoryAction      `bson:"action_type" json:"action_type"`
	Notes      string             `bson:"notes" json:"notes"`
	// Actor is the single party that performed the action.
	Actor Party `bson:"actor" json:"actor"`

	PreviousDepartmentID *primitive.ObjectID `bson:"previous_department_id,omitempty" json:"previous_department_id,omitempty"`
	NewDepartmentID      *primitive.ObjectID `bson:"new_department_id,omitempty" json:"new_department_id,omitempty"`
	PreviousWorkerID     *primitive.ObjectID `bson:"previous_worker_id,omitempty" json:"previous_worker_id,omitempty"`
	NewWorkerID          *primitive.ObjectID `bson:"new_worker_id,omitempty" json:"new_worker_id,omitempty"`
	AssignedWardID       *primitive.ObjectID `bson:"assigned_ward_id,omitempty" json:"assigned_ward_id,omitempty"`

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
