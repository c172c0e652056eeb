package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ShareUnpaid ShareStatus = "UNPAID"
	SharePaid   ShareStatus = "PAID"

	DebtUnsettled DebtStatus = "UNSETTLED"
	DebtSettled   DebtStatus = "SETTLED"

	BillDraft  BillStatus = "DRAFT"
	BillActive BillStatus = "ACTIVE"
	BillClosed BillStatus = "CLOSED"

	ExpensePending   ExpenseStatus = "PENDING"
	ExpenseCompleted ExpenseStatus = "COMPLETED"

	NotifyExpenseAdded NotificationCategory = "EXPENSE_ADDED"
	NotifyDebtReminder NotificationCategory = "DEBT_REMINDER"
)

type (
	ShareStatus          string
	DebtStatus           string
	BillStatus           string
	ExpenseStatus        string
	NotificationCategory string

	User struct {
		ID        uuid.UUID
		UserName  string
		Email     string
		CreatedAt time.Time
	}

	Group struct {
		ID        uuid.UUID
		Name      string
		Members   []uuid.UUID
		CreatedAt time.Time
	}

	// Bill aggregates expenses; TotalAmount is maintained as a running
	// delta, never recomputed on write.
	Bill struct {
		ID          uuid.UUID
		GroupID     uuid.UUID
		Name        string
		TotalAmount decimal.Decimal
		Status      BillStatus
		CreatedAt   time.Time
	}

	// Expense is the aggregate root of the reconciliation engine. Its
	// shares and debts are exclusively owned: they are replaced or removed
	// together with the expense, never independently authored.
	Expense struct {
		ID          uuid.UUID
		BillID      uuid.UUID // uuid.Nil when the expense is not attached to a bill
		Description string
		Amount      decimal.Decimal
		PaidBy      uuid.UUID
		CreatedBy   uuid.UUID
		Status      ExpenseStatus
		CreatedAt   time.Time
	}

	// Share is one member's allocated portion of an expense. Percentage
	// and Amount are both populated after normalization. Amount-based
	// shares keep their absolute value across expense-amount edits,
	// percentage-based shares are re-proportioned.
	Share struct {
		ID         uuid.UUID
		ExpenseID  uuid.UUID
		UserID     uuid.UUID
		Percentage decimal.Decimal
		Amount     decimal.Decimal
		// AmountFixed marks shares whose amount was supplied absolutely
		// rather than derived from the percentage.
		AmountFixed bool
		Status      ShareStatus
	}

	// Debt is a projection of a Share: who owes the payer and whether the
	// owing share has been paid. Debts are regenerated from shares on
	// every mutation, never independently authored.
	Debt struct {
		ID        uuid.UUID
		ExpenseID uuid.UUID
		FromUser  uuid.UUID
		ToUser    uuid.UUID
		Amount    decimal.Decimal
		Status    DebtStatus
	}

	Notification struct {
		ID          uuid.UUID
		UserID      uuid.UUID
		Title       string
		Message     string
		Category    NotificationCategory
		ReferenceID string
		Read        bool
		CreatedAt   time.Time
	}

	// PaymentStat is the aggregate paid total for one user within a group.
	PaymentStat struct {
		UserID    uuid.UUID
		UserName  string
		TotalPaid decimal.Decimal
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
)

func (s ShareStatus) Valid() bool {
	return s == ShareUnpaid || s == SharePaid
}

// DebtStatusFor maps a share status to the status of its projected debt.
func DebtStatusFor(s ShareStatus) DebtStatus {
	if s == SharePaid {
		return DebtSettled
	}
	return DebtUnsettled
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return &ValidationError{Field: "description", Reason: "too long (max 200 characters)"}
	}
	if e.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	if e.CreatedBy == uuid.Nil {
		return &ValidationError{Field: "created_by", Reason: "required"}
	}
	return nil
}

func (s Share) Validate() error {
	if s.UserID == uuid.Nil {
		return &ValidationError{Field: "user_id", Reason: "required"}
	}
	if s.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	if s.Percentage.IsNegative() || s.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return &ValidationError{Field: "percentage", Reason: "must be between 0 and 100"}
	}
	if !s.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown share status " + string(s.Status)}
	}
	return nil
}
