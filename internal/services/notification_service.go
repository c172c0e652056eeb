package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"splitfair/internal/amqp"
	"splitfair/internal/core"
	"splitfair/internal/storage"
)

// NotificationService exposes the per-user notification inbox and the
// debt reminder action. Inbox rows are written by the worker consuming
// the AMQP queue, not by this service.
type NotificationService struct {
	storage   *storage.SQLiteRepository
	publisher NotificationPublisher
}

func NewNotificationService(storage *storage.SQLiteRepository, publisher NotificationPublisher) *NotificationService {
	return &NotificationService{storage: storage, publisher: publisher}
}

func (s *NotificationService) ListByUser(ctx context.Context, userID uuid.UUID) ([]core.Notification, error) {
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.storage.ListNotificationsByUser(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.storage.CountUnreadNotifications(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.storage.MarkNotificationRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.storage.MarkAllNotificationsRead(ctx, userID)
}

// RemindDebt nudges the debtor of an unsettled debt. Settled debts are a
// validation failure rather than a silent no-op so callers can tell the
// reminder was not sent.
func (s *NotificationService) RemindDebt(ctx context.Context, debtID uuid.UUID) error {
	debt, err := s.storage.GetDebt(ctx, debtID)
	if err != nil {
		return err
	}
	if debt.Status == core.DebtSettled {
		return &core.ValidationError{Field: "debt", Reason: "already settled"}
	}

	creditor, err := s.storage.GetUser(ctx, debt.ToUser)
	if err != nil {
		return err
	}
	expense, err := s.storage.GetExpense(ctx, debt.ExpenseID)
	if err != nil {
		return err
	}

	if s.publisher == nil {
		return fmt.Errorf("notification publisher not available")
	}
	msg := amqp.NewNotificationMessage(debt.FromUser, "Payment reminder",
		fmt.Sprintf("%s is waiting for %s for %s",
			creditor.UserName, debt.Amount.StringFixed(2), expense.Description),
		string(core.NotifyDebtReminder), debt.ID.String())
	if err := s.publisher.PublishNotification(ctx, msg); err != nil {
		return fmt.Errorf("publish reminder: %w", err)
	}

	slog.InfoContext(ctx, "Debt reminder sent",
		"debt_id", debt.ID,
		"from_user", debt.FromUser,
		"to_user", debt.ToUser)
	return nil
}
