package authUtils

import (
	"civicsync-workflow/models"
	"civicsync-workflow/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Context keys set by the auth middleware.
const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// CurrentCaller returns the authenticated caller. ok is false when the
// request did not pass through the auth middleware.
func CurrentCaller(c *gin.Context) (services.Caller, bool) {
	rawID := c.GetString(UserIDKey)
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return services.Caller{}, false
	}
	return services.Caller{UserID: id, Role: CurrentRole(c)}, true
}

func CurrentRole(c *gin.Context) models.Role {
	return models.Role(c.GetString(RoleKey))
}
