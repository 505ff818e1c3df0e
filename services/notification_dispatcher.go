package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"civicsync-workflow/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// NotificationIntent is a request to tell Recipient about an issue.
// DesiredType is normalised against the allow-list before storing.
type NotificationIntent struct {
	IssueID     primitive.ObjectID
	Recipient   models.Party
	DesiredType string
}

// Notifier accepts intents without reporting failure back to the caller.
type Notifier interface {
	Dispatch(ctx context.Context, intent NotificationIntent)
}

// DispatcherConfig sizes the asynchronous delivery pool.
type DispatcherConfig struct {
	Workers        int
	QueueSize      int
	DeliverTimeout time.Duration
}

// NotificationDispatcher stores notifications and publishes them to live
// listeners. Outside Run, Dispatch delivers inline; while Run is active
// intents are queued and delivered by a worker pool.
type NotificationDispatcher struct {
	store     NotificationStore
	publisher NotificationPublisher
	cfg       DispatcherConfig
	queue     chan NotificationIntent
	mu        sync.RWMutex
	running   bool
	now       func() time.Time
	logger    *slog.Logger
}

// NewNotificationDispatcher builds a dispatcher. publisher may be nil.
func NewNotificationDispatcher(store NotificationStore, publisher NotificationPublisher, cfg DispatcherConfig, opts ...Option) *NotificationDispatcher {
	o := buildOptions(opts)
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.DeliverTimeout <= 0 {
		cfg.DeliverTimeout = 5 * time.Second
	}
	return &NotificationDispatcher{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		queue:     make(chan NotificationIntent, cfg.QueueSize),
		now:       o.now,
		logger:    o.logger,
	}
}

// Notify normalises the intent, stores it, and publishes it. Publish errors
// are logged only; the stored notification is authoritative.
func (d *NotificationDispatcher) Notify(ctx context.Context, intent NotificationIntent) (*models.Notification, error) {
	if intent.IssueID.IsZero() || intent.Recipient.ID.IsZero() {
		return nil, &models.ValidationError{Field: "recipient", Message: "issue and recipient are required"}
	}

	n := &models.Notification{
		IssueID:   intent.IssueID,
		Recipient: intent.Recipient,
		Type:      models.NormalizeNotificationType(intent.DesiredType),
		Timestamp: d.now(),
	}
	if err := d.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification for %s: %w", intent.Recipient, err)
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, n); err != nil {
			d.logger.Warn("publish notification failed",
				"notification_id", n.ID.Hex(),
				"recipient", n.Recipient.String(),
				"error", err,
			)
		}
	}
	return n, nil
}

// Dispatch is the fire-and-forget entry point used by the lifecycle engine.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, intent NotificationIntent) {
	if d.enqueue(intent) {
		return
	}
	d.deliver(ctx, intent)
}

// enqueue hands intent to the worker pool. It reports false when Run is not
// active and the caller must deliver inline. The read lock keeps Run from
// stopping between the check and the send.
func (d *NotificationDispatcher) enqueue(intent NotificationIntent) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.running {
		return false
	}
	select {
	case d.queue <- intent:
	default:
		d.logger.Warn("notification queue full, dropping",
			"issue_id", intent.IssueID.Hex(),
			"recipient", intent.Recipient.String(),
			"type", intent.DesiredType,
		)
	}
	return true
}

// Run delivers queued intents until ctx is cancelled. It then switches
// Dispatch back to inline delivery, drains whatever is still queued and
// returns.
func (d *NotificationDispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	d.running = true
	d.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case intent := <-d.queue:
					d.deliver(context.WithoutCancel(gctx), intent)
				case <-gctx.Done():
					return nil
				}
			}
		})
	}
	err := g.Wait()

	d.mu.Lock()
	d.running = false
	d.mu.Unlock()

	d.drain(context.WithoutCancel(ctx))
	return err
}

func (d *NotificationDispatcher) drain(ctx context.Context) {
	for {
		select {
		case intent := <-d.queue:
			d.deliver(ctx, intent)
		default:
			return
		}
	}
}

func (d *NotificationDispatcher) deliver(ctx context.Context, intent NotificationIntent) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.DeliverTimeout)
	defer cancel()

	if _, err := d.Notify(ctx, intent); err != nil {
		d.logger.Warn("notification dispatch failed",
			"issue_id", intent.IssueID.Hex(),
			"recipient", intent.Recipient.String(),
			"type", intent.DesiredType,
			"error", err,
		)
	}
}

// Inbox lists a recipient's notifications, newest first.
func (d *NotificationDispatcher) Inbox(ctx context.Context, recipient models.Party, unreadOnly bool) ([]models.Notification, error) {
	return d.store.ListByRecipient(ctx, recipient, unreadOnly)
}

// MarkRead flips the read flag of a notification owned by recipient.
func (d *NotificationDispatcher) MarkRead(ctx context.Context, id primitive.ObjectID, recipient models.Party) error {
	return d.store.MarkRead(ctx, id, recipient)
}
