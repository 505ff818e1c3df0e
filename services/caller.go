package services

import (
	"context"
	"fmt"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller is the authenticated identity performing an action. It is supplied
// by the auth middleware and trusted as-is.
type Caller struct {
	UserID primitive.ObjectID
	Role   models.Role
}

// RecipientFor maps a caller to the Party their notifications are addressed to.
func RecipientFor(ctx context.Context, dir Directory, caller Caller) (models.Party, error) {
	switch caller.Role {
	case models.RoleCitizen:
		return models.CitizenParty(caller.UserID), nil
	case models.RoleDepartmentAdmin:
		return models.DepartmentAdminParty(caller.UserID), nil
	case models.RoleCouncillor:
		c, err := dir.CouncillorByUser(ctx, caller.UserID)
		if err != nil {
			return models.Party{}, forbiddenIfMissing(err, "councillor")
		}
		return models.CouncillorParty(c.ID), nil
	case models.RoleMCAdmin:
		mc, err := dir.MCAdminByUser(ctx, caller.UserID)
		if err != nil {
			return models.Party{}, forbiddenIfMissing(err, "MC admin")
		}
		return models.MCAdminParty(mc.ID), nil
	case models.RoleWorker:
		w, err := dir.WorkerByUser(ctx, caller.UserID)
		if err != nil {
			return models.Party{}, forbiddenIfMissing(err, "worker")
		}
		return models.WorkerParty(w.ID), nil
	default:
		return models.Party{}, fmt.Errorf("%w: role %q receives no notifications", models.ErrForbidden, caller.Role)
	}
}
