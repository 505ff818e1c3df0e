package repository

import (
	"testing"

	"civicsync-workflow/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNotificationChannel(t *testing.T) {
	id, err := primitive.ObjectIDFromHex("64b7f0c2a1b2c3d4e5f60718")
	assert.NoError(t, err)

	assert.Equal(t, "notifications:worker:64b7f0c2a1b2c3d4e5f60718", NotificationChannel(models.WorkerParty(id)))
	assert.Equal(t, "notifications:mc_admin:64b7f0c2a1b2c3d4e5f60718", NotificationChannel(models.MCAdminParty(id)))
}
