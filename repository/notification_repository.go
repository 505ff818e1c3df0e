package repository

import (
	"context"
	"fmt"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository stores notifications in "notifications".
type NotificationRepository struct {
	coll *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{coll: db.Collection("notifications")}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipient models.Party, unreadOnly bool) ([]models.Notification, error) {
	query := bson.M{"recipient.kind": recipient.Kind, "recipient.id": recipient.ID}
	if unreadOnly {
		query["read_flag"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Notification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return out, nil
}

// MarkRead only matches notifications addressed to recipient, so a caller
// cannot flip someone else's flag.
func (r *NotificationRepository) MarkRead(ctx context.Context, id primitive.ObjectID, recipient models.Party) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "recipient.kind": recipient.Kind, "recipient.id": recipient.ID},
		bson.M{"$set": bson.M{"read_flag": true}},
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("notification %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}
