package models

import (
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	Roads       IssueCategory = "Roads"
	Sewage      IssueCategory = "Sewage"
	Water       IssueCategory = "Water"
	Electricity IssueCategory = "Electricity"
	Other       IssueCategory = "Other"
)

// Categories lists every valid IssueCategory.
var Categories = []IssueCategory{Roads, Sewage, Water, Electricity, Other}

// Valid reports whether c is one of the known categories.
func (c IssueCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// IssueStatus enum. The forward order is the order of the constants.
type IssueStatus string

const (
	StatusOpen                 IssueStatus = "open"
	StatusVerifiedByCouncillor IssueStatus = "verified_by_councillor"
	StatusAssignedToDepartment IssueStatus = "assigned_to_department"
	StatusInProgress           IssueStatus = "in-progress"
	StatusResolvedByWorker     IssueStatus = "resolved_by_worker"
	StatusDepartmentResolved   IssueStatus = "department_resolved"
	StatusVerifiedResolved     IssueStatus = "verified_resolved"
	StatusResolved             IssueStatus = "resolved"
	StatusReopened             IssueStatus = "reopened"
)

// Statuses lists every valid IssueStatus, forward states first.
var Statuses = []IssueStatus{
	StatusOpen,
	StatusVerifiedByCouncillor,
	StatusAssignedToDepartment,
	StatusInProgress,
	StatusResolvedByWorker,
	StatusDepartmentResolved,
	StatusVerifiedResolved,
	StatusResolved,
	StatusReopened,
}

// Valid reports whether s is one of the known statuses.
func (s IssueStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// HoldsWorker reports whether an issue in status s may carry a current worker.
func (s IssueStatus) HoldsWorker() bool {
	switch s {
	case StatusInProgress, StatusResolvedByWorker, StatusDepartmentResolved,
		StatusVerifiedResolved, StatusResolved:
		return true
	}
	return false
}

// Priority enum
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority coerces free-form input to a Priority. Anything it does not
// recognise becomes PriorityMedium.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// GeoPoint is an optional pair of coordinates attached to an issue.
type GeoPoint struct {
	Latitude  *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

// Issue represents a civic issue reported by a citizen and its workflow state.
type Issue struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Category    IssueCategory      `bson:"category" json:"category"`
	Description string             `bson:"description" json:"description"`
	Coordinates *GeoPoint          `bson:"gps_coordinates,omitempty" json:"gps_coordinates,omitempty"`
	Photos      []string           `bson:"photos" json:"photos"`

	WardID              *primitive.ObjectID `bson:"ward_id" json:"ward_id"`
	CurrentDepartmentID primitive.ObjectID  `bson:"current_department_id" json:"current_department_id"`
	CurrentWorkerID     *primitive.ObjectID `bson:"current_worker_id" json:"current_worker_id"`

	Status   IssueStatus `bson:"status" json:"status"`
	Priority Priority    `bson:"priority" json:"priority"`

	VerifiedByCouncillorID      *primitive.ObjectID `bson:"verified_by_councillor_id" json:"verified_by_councillor_id"`
	VerifiedAt                  *time.Time          `bson:"verified_at" json:"verified_at"`
	AssignedByMCAdminID         *primitive.ObjectID `bson:"assigned_by_mc_admin_id" json:"assigned_by_mc_admin_id"`
	AssignedToDepartmentAt      *time.Time          `bson:"assigned_to_department_at" json:"assigned_to_department_at"`
	AssignedByDepartmentAdminID *primitive.ObjectID `bson:"assigned_by_department_admin_id" json:"assigned_by_department_admin_id"`
	AssignedToWorkerAt          *time.Time          `bson:"assigned_to_worker_at" json:"assigned_to_worker_at"`
	ResolvedByWorkerID          *primitive.ObjectID `bson:"resolved_by_worker_id" json:"resolved_by_worker_id"`
	ResolvedByWorkerAt          *time.Time          `bson:"resolved_by_worker_at" json:"resolved_by_worker_at"`
	DepartmentVerifiedByID      *primitive.ObjectID `bson:"department_verified_by_id" json:"department_verified_by_id"`
	DepartmentVerifiedAt        *time.Time          `bson:"department_verified_at" json:"department_verified_at"`
	FinalVerifiedByCouncillorID *primitive.ObjectID `bson:"final_verified_by_councillor_id" json:"final_verified_by_councillor_id"`
	FinalVerifiedAt             *time.Time          `bson:"final_verified_at" json:"final_verified_at"`

	WorkerPhotos []string `bson:"worker_photos" json:"worker_photos"`
	WorkerNotes  string   `bson:"worker_notes" json:"worker_notes"`

	FeedbackRating      *int   `bson:"feedback_rating" json:"feedback_rating"`
	FeedbackDescription string `bson:"feedback_description" json:"feedback_description"`

	// Version is bumped on every write and used as the compare-and-set guard.
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Clone returns a deep copy of the issue so mutations never leak into the
// caller's copy before they are persisted.
func (i *Issue) Clone() *Issue {
	c := *i
	c.Photos = slices.Clone(i.Photos)
	c.WorkerPhotos = slices.Clone(i.WorkerPhotos)
	if i.Coordinates != nil {
		coords := *i.Coordinates
		c.Coordinates = &coords
	}
	if i.FeedbackRating != nil {
		r := *i.FeedbackRating
		c.FeedbackRating = &r
	}
	return &c
}

// ResetForReopen clears every workflow field that belongs to a stage after
// councillor verification. Ward, category, description, priority, coordinates,
// photos and the original councillor verification survive.
func (i *Issue) ResetForReopen() {
	i.CurrentWorkerID = nil
	i.AssignedByMCAdminID = nil
	i.AssignedToDepartmentAt = nil
	i.AssignedByDepartmentAdminID = nil
	i.AssignedToWorkerAt = nil
	i.DiscardCompletion()
	i.DepartmentVerifiedByID = nil
	i.DepartmentVerifiedAt = nil
	i.FinalVerifiedByCouncillorID = nil
	i.FinalVerifiedAt = nil
	i.FeedbackRating = nil
	i.FeedbackDescription = ""
}

// DiscardCompletion drops the worker's completion report: who resolved it,
// when, and the photos and notes they submitted.
func (i *Issue) DiscardCompletion() {
	i.ResolvedByWorkerID = nil
	i.ResolvedByWorkerAt = nil
	i.WorkerPhotos = []string{}
	i.WorkerNotes = ""
}
