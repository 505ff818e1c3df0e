package controllers

import (
	"context"
	"net/http"
	"time"

	"civicsync-workflow/services"
	authUtils "civicsync-workflow/utils"

	"github.com/gin-gonic/gin"
)

// UserController serves the caller's own inbox and reward ledger.
type UserController struct {
	notifications *services.NotificationDispatcher
	rewards       *services.RewardService
	directory     services.Directory
	timeout       time.Duration
}

func NewUserController(notifications *services.NotificationDispatcher, rewards *services.RewardService, directory services.Directory, timeout time.Duration) *UserController {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &UserController{notifications: notifications, rewards: rewards, directory: directory, timeout: timeout}
}

// GetNotifications lists the caller's notifications, newest first.
// ?unread=true limits to unread ones.
func (uc *UserController) GetNotifications(c *gin.Context) {
	caller, ok := authUtils.CurrentCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), uc.timeout)
	defer cancel()

	recipient, err := services.RecipientFor(ctx, uc.directory, caller)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := uc.notifications.Inbox(ctx, recipient, c.Query("unread") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "count": len(items)})
}

func (uc *UserController) MarkNotificationRead(c *gin.Context) {
	caller, ok := authUtils.CurrentCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), uc.timeout)
	defer cancel()

	recipient, err := services.RecipientFor(ctx, uc.directory, caller)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := uc.notifications.MarkRead(ctx, id, recipient); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (uc *UserController) GetRewards(c *gin.Context) {
	caller, ok := authUtils.CurrentCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), uc.timeout)
	defer cancel()

	reward, err := uc.rewards.Balance(ctx, caller.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reward)
}
