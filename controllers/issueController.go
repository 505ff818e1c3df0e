package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"civicsync-workflow/models"
	"civicsync-workflow/services"
	authUtils "civicsync-workflow/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueController exposes the issue lifecycle over HTTP.
type IssueController struct {
	issues  *services.IssueService
	votes   *services.VoteService
	timeout time.Duration
}

func NewIssueController(issues *services.IssueService, votes *services.VoteService, timeout time.Duration) *IssueController {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &IssueController{issues: issues, votes: votes, timeout: timeout}
}

// begin resolves the caller and the :id path param and derives a request
// context. ok is false if a response was already written.
func (ic *IssueController) begin(c *gin.Context) (context.Context, context.CancelFunc, services.Caller, primitive.ObjectID, bool) {
	caller, ok := authUtils.CurrentCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, nil, services.Caller{}, primitive.NilObjectID, false
	}
	issueID, ok := pathObjectID(c, "id")
	if !ok {
		return nil, nil, services.Caller{}, primitive.NilObjectID, false
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), ic.timeout)
	return ctx, cancel, caller, issueID, true
}

func respondIssue(c *gin.Context, status int, issue *models.Issue) {
	c.JSON(status, gin.H{
		"issue":     issue,
		"next_step": services.NextStep(issue.Status),
	})
}

func (ic *IssueController) finish(c *gin.Context, issue *models.Issue, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	respondIssue(c, http.StatusOK, issue)
}

// CreateIssue handles a citizen's new report
func (ic *IssueController) CreateIssue(c *gin.Context) {
	caller, ok := authUtils.CurrentCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Category       string           `json:"category" binding:"required,issue_category"`
		Description    string           `json:"description" binding:"required,max=1000"`
		WardID         string           `json:"ward_id" binding:"omitempty,objectid"`
		Photos         []string         `json:"photos" binding:"omitempty,max=10,dive,required,max=500"`
		GPSCoordinates *models.GeoPoint `json:"gps_coordinates"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ic.timeout)
	defer cancel()

	issue, err := ic.issues.Create(ctx, caller, services.CreateIssueInput{
		Category:    models.IssueCategory(input.Category),
		Description: input.Description,
		WardID:      optionalObjectID(input.WardID),
		Photos:      input.Photos,
		Coordinates: input.GPSCoordinates,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondIssue(c, http.StatusCreated, issue)
}

// GetIssue returns the issue with its history, vote counts and what the
// caller may do next
func (ic *IssueController) GetIssue(c *gin.Context) {
	ctx, cancel, caller, issueID, ok := ic.begin(c)
	if !ok {
		return
	}
	defer cancel()

	issue, err := ic.issues.Get(ctx, issueID)
	if err != nil {
		respondError(c, err)
		return
	}
	history, err := ic.issues.History(ctx, issueID)
	if err != nil {
		respondError(c, err)
		return
	}
	votes, err := ic.votes.Summary(ctx, issueID)
	if err != nil {
		respondError(c, err)
		return
	}

	actions := services.AllowedActions(issue.Status, caller.Role)
	if actions == nil {
		actions = []services.Action{}
	}
	c.JSON(http.StatusOK, gin.H{
		"issue":           issue,
		"history":         history,
		"votes":           votes,
		"next_step":       services.NextStep(issue.Status),
		"allowed_actions": actions,
	})
}

// ListIssues is the role-facing queue, filtered by status, ward and department
func (ic *IssueController) ListIssues(c *gin.Context) {
	var query struct {
		Status       string `form:"status" binding:"omitempty,issue_status"`
		WardID       string `form:"ward_id" binding:"omitempty,objectid"`
		DepartmentID string `form:"department_id" binding:"omitempty,objectid"`
		WorkerID     string `form:"worker_id" binding:"omitempty,objectid"`
		Limit        string `form:"limit" binding:"omitempty,number"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := services.IssueFilter{
		WardID:       optionalObjectID(query.WardID),
		DepartmentID: optionalObjectID(query.DepartmentID),
		WorkerID:     optionalObjectID(query.WorkerID),
		Limit:        100,
	}
	if query.Status != "" {
		status := models.IssueStatus(query.Status)
		filter.Status = &status
	}
	if limit, err := strconv.ParseInt(query.Limit, 10, 64); err == nil && limit > 0 && limit <= 100 {
		filter.Limit = limit
	}

	ic.list(c, filter)
}

// MyIssues lists the calling citizen's own reports, newest first
func (ic *IssueController) MyIssues(c *gin.Context) {
	caller, ok := authUtils.CurrentCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	ic.list(c, services.IssueFilter{UserID: &caller.UserID})
}

func (ic *IssueController) list(c *gin.Context, filter services.IssueFilter) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ic.timeout)
	defer cancel()

	issues, err := ic.issues.List(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues, "count": len(issues)})
}

// VerifyIssue is the councillor's verification, or for a department admin
// the verification of completed work
func (ic *IssueController) VerifyIssue(c *gin.Context) {
	var input struct {
		WardID string `json:"ward_id" binding:"omitempty,objectid"`
		Notes  string `json:"notes" binding:"max=1000"`
	}
	if !bindOptionalJSON(c, &input) {
		return
	}

	ctx, cancel, caller, issueID, ok := ic.begin(c)
	if !ok {
		return
	}
	defer cancel()

	var (
		issue *models.Issue
		err   error
	)
	if caller.Role == models.RoleDepartmentAdmin {
		issue, err = ic.issues.VerifyCompletion(ctx, caller, issueID, input.Notes)
	} else {
		issue, err = ic.issues.Verify(ctx, caller, issueID, services.VerifyInput{
			WardID: optionalObjectID(input.WardID),
			Notes:  input.Notes,
		})
	}
	ic.finish(c, issue, err)
}

// SetPriority updates the issue priority; unknown values become Medium
func (ic *IssueController) SetPriority(c *gin.Context) {
	var input struct {
		Priority string `json:"priority" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel, caller, issueID, ok := ic.begin(c)
	if !ok {
		return
	}
	defer cancel()

	issue, err := ic.issues.SetPriority(ctx, caller, issueID, input.Priority)
	ic.finish(c, issue, err)
}

// AssignIssue routes the issue to a department (MC admin) or to a worker
// (department admin)
func (ic *IssueController) AssignIssue(c *gin.Context) {
	var input struct {
		DepartmentID string `json:"department_id" binding:"omitempty,objectid"`
		WorkerID     string `json:"worker_id" binding:"omitempty,objectid"`
		Notes        string `json:"notes" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel, caller, issueID, ok := ic.begin(c)
	if !ok {
		return
	}
	defer cancel()

	var (
		issue *models.Issue
		err   error
	)
	switch caller.Role {
	case models.RoleDepartmentAdmin:
		workerID := optionalObjectID(input.WorkerID)
		if workerID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "worker_id is required", "field": "worker_id"})
			return
		}
		issue, err = ic.issues.AssignWorker(ctx, caller, issueID, services.AssignWorkerInput{
			WorkerID: *workerID,
			Notes:    input.Notes,
		})
	default:
		deptID := optionalObjectID(input.DepartmentID)
		if deptID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "department_id is required", "field": "department_id"})
			return
		}
		issue, err = ic.issues.AssignDepartment(ctx, caller, issueID, services.AssignDepartmentInput{
			DepartmentID: *deptID,
			Notes:        input.Notes,
		})
	}
	ic.finish(c, issue, err)
}

// TransferIssue moves the issue to another department
func (ic *IssueController) TransferIssue(c *gin.Context) {
	var input struct {
		NewDepartmentID string `json:"new_department_id" binding:"required,objectid"`
		Reason          string `json:"reason" binding:"max=500"`
		Notes           string `json:"notes" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel, caller, issueID, ok := ic.begin(c)
	if !ok {
		return
	}
	defer cancel()

	issue, err := ic.issues.TransferDepartment(ctx, caller, issueID, services.TransferInput{
		NewDepartmentID: *optionalObjectID(input.NewDepartmentID),
		Reason:          input.Reason,
		Notes:           input.Notes,
	})
	ic.finish(c, issue, err)
}

// ChangeWorker reassigns the issue to another worker of the department
func (ic *IssueController) ChangeWorker(c *gin.Context) {
	var input struct {
		NewWorkerID string `json:"new_worker_id" binding:"required,objectid"`
		Notes       string `json:"notes" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel, caller, issueID, ok := ic.begin(c)
	if !ok {
		return
	}
	defer cancel()

	issue, err := ic.issues.ChangeWorker(ctx, caller, issueID, services.AssignWorkerInput{
		WorkerID: *optionalObjectID(input.NewWorkerID),
		Notes:    input.Notes,
	})
	ic.finish(c, issue, err)
}

// CompleteWork is the worker's completion report
func (ic *IssueController) CompleteWork(c *gin.Context) {
	var input struct {
		WorkPhotos []string `json:"work_photos" binding:"omitempty,max=10,dive,required,max=500"`
		Notes      string   `json:"notes" binding:"max=1000"`
	}
	if !bindOptionalJSON(c, &input) {
		return
	}

	ctx, cancel, caller, issueID, ok := ic.begin(c)
	if !ok {
		return
	}
	defer cancel()

	issue, err := ic.issues.CompleteWork(ctx, caller, issueID, services.CompleteWorkInput{
		WorkPhotos: input.WorkPhotos,
		Notes:      input.Notes,
	})
	ic.finish(c, issue, err)
}

// ResolveIssue is the councillor's final verification
func (ic *IssueController) ResolveIssue(c *gin.Context) {
	var input struct {
		Notes string `json:"notes" binding:"max=1000"`
	}
	if !bindOptionalJSON(c, &input) {
		return
	}

	ctx, cancel, caller, issueID, ok := ic.begin(c)
	if !ok {
		return
	}
	defer cancel()

	issue, err := ic.issues.FinalVerify(ctx, caller, issueID, input.Notes)
	ic.finish(c, issue, err)
}

// SubmitFeedback closes the issue with the citizen's rating
func (ic *IssueController) SubmitFeedback(c *gin.Context) {
	var input struct {
		Rating              *int   `json:"rating" binding:"required"`
		FeedbackDescription string `json:"feedback_description" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel, caller, issueID, ok := ic.begin(c)
	if !ok {
		return
	}
	defer cancel()

	issue, err := ic.issues.SubmitFeedback(ctx, caller, issueID, services.FeedbackInput{
		Rating:      *input.Rating,
		Description: input.FeedbackDescription,
	})
	ic.finish(c, issue, err)
}

// ReopenIssue sends a resolved issue back for reassignment
func (ic *IssueController) ReopenIssue(c *gin.Context) {
	var input struct {
		Reason string `json:"reason" binding:"max=500"`
	}
	if !bindOptionalJSON(c, &input) {
		return
	}

	ctx, cancel, caller, issueID, ok := ic.begin(c)
	if !ok {
		return
	}
	defer cancel()

	issue, err := ic.issues.Reopen(ctx, caller, issueID, input.Reason)
	ic.finish(c, issue, err)
}

// CastVote records whether the citizen confirms the issue exists
func (ic *IssueController) CastVote(c *gin.Context) {
	var input struct {
		VoteType string `json:"vote_type" binding:"required,vote_type"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel, caller, issueID, ok := ic.begin(c)
	if !ok {
		return
	}
	defer cancel()

	vote, err := ic.votes.Cast(ctx, caller, issueID, models.VoteType(input.VoteType))
	if err != nil {
		respondError(c, err)
		return
	}
	summary, err := ic.votes.Summary(ctx, issueID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vote": vote, "votes": summary})
}

// GetVotes returns vote counts per type
func (ic *IssueController) GetVotes(c *gin.Context) {
	ctx, cancel, _, issueID, ok := ic.begin(c)
	if !ok {
		return
	}
	defer cancel()

	summary, err := ic.votes.Summary(ctx, issueID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"votes": summary})
}
