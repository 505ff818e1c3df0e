package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType is drawn from a closed allow-list.
type NotificationType string

const (
	NotifyIssueAssigned      NotificationType = "Issue Assigned"
	NotifyStatusUpdate       NotificationType = "Status Update"
	NotifyReassigned         NotificationType = "Reassigned"
	NotifyCompleted          NotificationType = "Completed"
	NotifyReopened           NotificationType = "Reopened"
	NotifyWorkCompleted      NotificationType = "Work Completed - Please verify"
	NotifyReadyForDepartment NotificationType = "Issue Verified - Ready for Department Assignment"
	NotifyAssignWorker       NotificationType = "Issue Assigned - Please assign worker"
	NotifyTransferred        NotificationType = "Issue Transferred - Please assign worker"
	NotifyProvideFeedback    NotificationType = "Issue Resolved - Please provide feedback"
	NotifyStartWork          NotificationType = "Issue Assigned - Please start work"
	NotifyFinalVerification  NotificationType = "Issue Ready for Final Verification"
)

var notificationTypes = map[NotificationType]struct{}{
	NotifyIssueAssigned:      {},
	NotifyStatusUpdate:       {},
	NotifyReassigned:         {},
	NotifyCompleted:          {},
	NotifyReopened:           {},
	NotifyWorkCompleted:      {},
	NotifyReadyForDepartment: {},
	NotifyAssignWorker:       {},
	NotifyTransferred:        {},
	NotifyProvideFeedback:    {},
	NotifyStartWork:          {},
	NotifyFinalVerification:  {},
}

// NormalizeNotificationType maps a requested type onto the allow-list.
// Unknown types degrade to NotifyStatusUpdate.
func NormalizeNotificationType(desired string) NotificationType {
	t := NotificationType(desired)
	if _, ok := notificationTypes[t]; ok {
		return t
	}
	return NotifyStatusUpdate
}

// Notification is a best-effort message alerting the next responsible party.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IssueID   primitive.ObjectID `bson:"issue_id" json:"issue_id"`
	Recipient Party              `bson:"recipient" json:"recipient"`
	Type      NotificationType   `bson:"type" json:"type"`
	Read      bool               `bson:"read_flag" json:"read_flag"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
