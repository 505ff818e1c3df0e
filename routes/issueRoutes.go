package routes

import (
	"civicsync-workflow/controllers"
	"civicsync-workflow/middlewares"
	"civicsync-workflow/models"

	"github.com/gin-gonic/gin"
)

var staffRoles = []models.Role{
	models.RoleCouncillor,
	models.RoleMCAdmin,
	models.RoleDepartmentAdmin,
	models.RoleWorker,
	models.RoleSuperAdmin,
	models.RoleMLA,
}

// IssueRoutes sets up the issue lifecycle routes. limiter may be nil.
func IssueRoutes(r *gin.Engine, ic *controllers.IssueController, auth gin.HandlerFunc, limiter gin.HandlerFunc) {
	citizen := middlewares.RequireRoles(models.RoleCitizen)
	councillor := middlewares.RequireRoles(models.RoleCouncillor)

	create := []gin.HandlerFunc{auth, citizen}
	if limiter != nil {
		create = append(create, limiter)
	}
	create = append(create, ic.CreateIssue)
	r.POST("/api/issue", create...)

	issues := r.Group("/api/issues", auth)
	{
		issues.GET("", middlewares.RequireRoles(staffRoles...), ic.ListIssues)
		issues.GET("/mine", citizen, ic.MyIssues)
	}

	issue := r.Group("/api/issue/:id", auth)
	{
		issue.GET("", ic.GetIssue)
		issue.PUT("/verify", middlewares.RequireRoles(models.RoleCouncillor, models.RoleDepartmentAdmin), ic.VerifyIssue)
		issue.PUT("/priority", councillor, ic.SetPriority)
		issue.PUT("/assign", middlewares.RequireRoles(models.RoleMCAdmin, models.RoleDepartmentAdmin), ic.AssignIssue)
		issue.PUT("/transfer", middlewares.RequireRoles(models.RoleMCAdmin, models.RoleDepartmentAdmin), ic.TransferIssue)
		issue.PUT("/change-worker", middlewares.RequireRoles(models.RoleDepartmentAdmin), ic.ChangeWorker)
		issue.PUT("/complete", middlewares.RequireRoles(models.RoleWorker), ic.CompleteWork)
		issue.PUT("/resolve", councillor, ic.ResolveIssue)
		issue.PUT("/feedback", citizen, ic.SubmitFeedback)
		issue.PUT("/reopen", citizen, ic.ReopenIssue)
		issue.PUT("/vote", citizen, ic.CastVote)
		issue.GET("/votes", ic.GetVotes)
	}
}
