package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationStore struct {
	mu    sync.RWMutex
	items []models.Notification
}

func NewNotificationStore() *NotificationStore { return &NotificationStore{} }

func (s *NotificationStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	s.items = append(s.items, *n)
	return nil
}

// ListByRecipient returns newest first.
func (s *NotificationStore) ListByRecipient(_ context.Context, recipient models.Party, unreadOnly bool) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Notification{}
	for _, n := range s.items {
		if n.Recipient != recipient || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	slices.Reverse(out)
	return out, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, id primitive.ObjectID, recipient models.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].Recipient == recipient {
			s.items[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id.Hex(), models.ErrNotFound)
}

// All returns every stored notification in creation order.
func (s *NotificationStore) All() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}
