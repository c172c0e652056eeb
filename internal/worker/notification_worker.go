// Package worker consumes notification dispatch messages from AMQP and
// materializes them as inbox rows.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"splitfair/internal/amqp"
	"splitfair/internal/core"
)

// NotificationStore is the slice of the repository the worker writes to.
type NotificationStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (core.User, error)
	InsertNotification(ctx context.Context, n *core.Notification) error
}

// NotificationWorker turns queued dispatch messages into persisted
// notification rows. A message for an unknown recipient is dropped, not
// requeued: the user was deleted between publish and consume and the
// message can never succeed.
type NotificationWorker struct {
	storage NotificationStore
}

func NewNotificationWorker(storage NotificationStore) *NotificationWorker {
	return &NotificationWorker{storage: storage}
}

// HandleMessage processes a single notification dispatch message.
func (w *NotificationWorker) HandleMessage(ctx context.Context, msg *amqp.NotificationMessage) error {
	slog.InfoContext(ctx, "Processing notification message",
		"recipient", msg.RecipientID,
		"category", msg.Category)

	if msg.RecipientID == uuid.Nil {
		slog.WarnContext(ctx, "Dropping notification with no recipient",
			"category", msg.Category, "reference", msg.ReferenceID)
		return nil
	}

	if _, err := w.storage.GetUser(ctx, msg.RecipientID); err != nil {
		if core.IsNotFound(err) {
			slog.WarnContext(ctx, "Dropping notification for unknown recipient",
				"recipient", msg.RecipientID,
				"category", msg.Category)
			return nil
		}
		return fmt.Errorf("lookup recipient: %w", err)
	}

	n := core.Notification{
		UserID:      msg.RecipientID,
		Title:       msg.Title,
		Message:     msg.Message,
		Category:    core.NotificationCategory(msg.Category),
		ReferenceID: msg.ReferenceID,
		CreatedAt:   msg.Timestamp,
	}
	if err := w.storage.InsertNotification(ctx, &n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	slog.InfoContext(ctx, "Notification stored",
		"notification_id", n.ID,
		"recipient", n.UserID,
		"category", n.Category)

	return nil
}
