package routes

import (
	"civicsync-workflow/controllers"
	"civicsync-workflow/middlewares"
	"civicsync-workflow/models"

	"github.com/gin-gonic/gin"
)

// UserRoutes sets up the caller's own inbox and rewards
func UserRoutes(r *gin.Engine, uc *controllers.UserController, auth gin.HandlerFunc) {
	me := r.Group("/api/me", auth)
	{
		me.GET("/notifications", uc.GetNotifications)
		me.PUT("/notifications/:id/read", uc.MarkNotificationRead)
		me.GET("/rewards", middlewares.RequireRoles(models.RoleCitizen), uc.GetRewards)
	}
}
