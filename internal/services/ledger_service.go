// Package services orchestrates the expense/share/debt reconciliation
// lifecycle over the SQLite store and dispatches notifications through
// AMQP after each commit.
package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"splitfair/internal/amqp"
	"splitfair/internal/core"
	"splitfair/internal/storage"
)

// NotificationPublisher is satisfied by *amqp.Client. Dispatch is
// fire-and-forget: errors are logged here and never surfaced to callers.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
}

// lockStripes bounds the number of expense mutexes; two expenses may
// share a stripe, which only costs needless serialization.
const lockStripes = 64

// LedgerService owns the create/update/delete lifecycle of expenses and
// keeps shares, debts and bill totals consistent. Reconciliations on the
// same expense are serialized through striped locks; the storage layer
// makes each reconciliation a single transaction.
type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher NotificationPublisher
	policy    core.DerivePolicy
	locks     [lockStripes]sync.Mutex
}

func NewLedgerService(storage *storage.SQLiteRepository, publisher NotificationPublisher, policy core.DerivePolicy) *LedgerService {
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
		policy:    policy,
	}
}

func (s *LedgerService) lockExpense(id uuid.UUID) func() {
	h := fnv.New32a()
	h.Write(id[:])
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// CreateExpenseInput describes a new expense; Allocations may be empty,
// in which case shares are attached later via SaveAllocations or
// AddShare.
type CreateExpenseInput struct {
	BillID      uuid.UUID
	Description string
	Amount      decimal.Decimal
	PaidBy      uuid.UUID
	CreatedBy   uuid.UUID
	Allocations []core.AllocationInput
}

// CreateExpense persists the expense (plus shares and debts when
// allocations are supplied) and applies its amount to the owning bill,
// activating DRAFT bills. If the payer differs from the creator they are
// notified after the commit.
func (s *LedgerService) CreateExpense(ctx context.Context, in CreateExpenseInput) (core.Expense, error) {
	expense := core.Expense{
		BillID:      in.BillID,
		Description: in.Description,
		Amount:      in.Amount,
		PaidBy:      in.PaidBy,
		CreatedBy:   in.CreatedBy,
		Status:      core.ExpensePending,
	}
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}

	if _, err := s.storage.GetUser(ctx, in.CreatedBy); err != nil {
		return core.Expense{}, err
	}
	if in.PaidBy != uuid.Nil {
		if _, err := s.storage.GetUser(ctx, in.PaidBy); err != nil {
			return core.Expense{}, err
		}
	}
	if in.BillID != uuid.Nil {
		if _, err := s.storage.GetBill(ctx, in.BillID); err != nil {
			return core.Expense{}, err
		}
	}

	var (
		shares []core.Share
		debts  []core.Debt
	)
	if len(in.Allocations) > 0 {
		var err error
		shares, err = core.AllocateShares(in.Amount, in.Allocations)
		if err != nil {
			return core.Expense{}, err
		}
		debts, err = core.DeriveDebts(shares, in.PaidBy, s.policy)
		if err != nil {
			return core.Expense{}, err
		}
	}

	if err := s.storage.CreateExpense(ctx, &expense, shares, debts); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	if expense.PaidBy != uuid.Nil && expense.PaidBy != expense.CreatedBy {
		s.notify(ctx, expense.PaidBy, "New expense",
			fmt.Sprintf("You were marked as having paid %s for %s",
				expense.Amount.StringFixed(2), expense.Description),
			core.NotifyExpenseAdded, expense.ID.String())
	}

	slog.InfoContext(ctx, "Expense created",
		"expense_id", expense.ID,
		"bill_id", expense.BillID,
		"amount", expense.Amount.StringFixed(2))

	return expense, nil
}

// UpdateExpensePatch carries the mutable expense fields; nil means
// unchanged.
type UpdateExpensePatch struct {
	Amount      *decimal.Decimal
	PaidBy      *uuid.UUID
	Description *string
}

// UpdateExpense applies the patch, moves the bill total by the amount
// delta, re-proportions percentage-based shares against the new amount
// and atomically replaces the full debt set. Calling it with nothing
// changed re-derives an identical ledger state.
func (s *LedgerService) UpdateExpense(ctx context.Context, id uuid.UUID, patch UpdateExpensePatch) (core.Expense, error) {
	unlock := s.lockExpense(id)
	defer unlock()

	expense, err := s.storage.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}

	oldAmount := expense.Amount
	if patch.Amount != nil {
		expense.Amount = *patch.Amount
	}
	if patch.Description != nil {
		expense.Description = *patch.Description
	}
	if patch.PaidBy != nil {
		if _, err := s.storage.GetUser(ctx, *patch.PaidBy); err != nil {
			return core.Expense{}, err
		}
		expense.PaidBy = *patch.PaidBy
	}
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}

	shares, err := s.storage.ListSharesByExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	shares = core.Reproportion(expense.Amount, shares)

	var debts []core.Debt
	if len(shares) > 0 {
		debts, err = core.DeriveDebts(shares, expense.PaidBy, s.policy)
		if err != nil {
			return core.Expense{}, err
		}
	}

	delta := expense.Amount.Sub(oldAmount)
	if err := s.storage.UpdateExpense(ctx, expense, shares, debts, delta); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense reconciled",
		"expense_id", expense.ID,
		"amount", expense.Amount.StringFixed(2),
		"delta", delta.StringFixed(2),
		"debts", len(debts))

	return expense, nil
}

// DeleteExpense removes the expense with its shares and debts and
// subtracts its amount from the bill total, all-or-nothing.
func (s *LedgerService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	unlock := s.lockExpense(id)
	defer unlock()

	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense deleted", "expense_id", id)
	return nil
}

// ShareInput is one caller-supplied allocation row for SaveAllocations:
// the client already split the money into absolute amounts.
type ShareInput struct {
	UserID uuid.UUID
	Amount decimal.Decimal
}

// SaveAllocations replaces the entire share and debt set of an expense
// with caller-computed amounts. Percentages are implied from
// declaredTotal; no proportional math is applied to the amounts
// themselves. Every non-payer recipient with a positive amount is
// notified after the commit.
func (s *LedgerService) SaveAllocations(ctx context.Context, expenseID uuid.UUID, inputs []ShareInput, declaredTotal decimal.Decimal) error {
	unlock := s.lockExpense(expenseID)
	defer unlock()

	expense, err := s.storage.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}

	allocations := make([]core.AllocationInput, len(inputs))
	for i, in := range inputs {
		if _, err := s.storage.GetUser(ctx, in.UserID); err != nil {
			return err
		}
		amount := in.Amount
		allocations[i] = core.AllocationInput{UserID: in.UserID, Amount: &amount}
	}

	shares, err := core.AllocateShares(declaredTotal, allocations)
	if err != nil {
		return err
	}
	debts, err := core.DeriveDebts(shares, expense.PaidBy, s.policy)
	if err != nil {
		return err
	}

	if err := s.storage.ReplaceAllocations(ctx, expenseID, shares, debts); err != nil {
		return fmt.Errorf("save allocations: %w", err)
	}

	groupSuffix := s.groupSuffix(ctx, expense.BillID)
	for _, share := range shares {
		if share.UserID == expense.PaidBy || !share.Amount.IsPositive() {
			continue
		}
		s.notify(ctx, share.UserID, "New expense",
			fmt.Sprintf("You were allocated %s%s", share.Amount.StringFixed(2), groupSuffix),
			core.NotifyExpenseAdded, expenseID.String())
	}

	slog.InfoContext(ctx, "Allocations saved",
		"expense_id", expenseID,
		"shares", len(shares),
		"debts", len(debts))

	return nil
}

// groupSuffix resolves " in <group>" for notification messages;
// best-effort, an unresolvable group just yields an empty suffix.
func (s *LedgerService) groupSuffix(ctx context.Context, billID uuid.UUID) string {
	if billID == uuid.Nil {
		return ""
	}
	bill, err := s.storage.GetBill(ctx, billID)
	if err != nil {
		return ""
	}
	group, err := s.storage.GetGroup(ctx, bill.GroupID)
	if err != nil {
		return ""
	}
	return " in " + group.Name
}

// UpdateShareStatus flips a share between PAID and UNPAID; every debt
// keyed by (expense, share user) follows as SETTLED/UNSETTLED in the
// same transaction.
func (s *LedgerService) UpdateShareStatus(ctx context.Context, shareID uuid.UUID, status string) (core.Share, error) {
	parsed := core.ShareStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !parsed.Valid() {
		return core.Share{}, &core.ValidationError{Field: "status", Reason: "unknown share status " + status}
	}
	share, err := s.storage.GetShare(ctx, shareID)
	if err != nil {
		return core.Share{}, err
	}

	unlock := s.lockExpense(share.ExpenseID)
	defer unlock()

	return s.storage.UpdateShareStatus(ctx, shareID, parsed)
}

// AddShare attaches a single percentage-based share to an existing
// expense and re-derives the debt set.
func (s *LedgerService) AddShare(ctx context.Context, expenseID, userID uuid.UUID, percentage decimal.Decimal) (core.Share, error) {
	unlock := s.lockExpense(expenseID)
	defer unlock()

	expense, err := s.storage.GetExpense(ctx, expenseID)
	if err != nil {
		return core.Share{}, err
	}
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return core.Share{}, err
	}

	shares, err := s.storage.ListSharesByExpense(ctx, expenseID)
	if err != nil {
		return core.Share{}, err
	}
	for _, existing := range shares {
		if existing.UserID == userID {
			return core.Share{}, &core.ValidationError{
				Field:  "user_id",
				Reason: fmt.Sprintf("duplicate allocation for user %s", userID),
			}
		}
	}

	share := core.Share{
		ExpenseID:  expenseID,
		UserID:     userID,
		Percentage: percentage,
		Amount:     core.ProportionalAmount(expense.Amount, percentage),
		Status:     core.ShareUnpaid,
	}
	if err := share.Validate(); err != nil {
		return core.Share{}, err
	}

	shares = append(shares, share)
	debts, err := core.DeriveDebts(shares, expense.PaidBy, s.policy)
	if err != nil {
		return core.Share{}, err
	}

	if err := s.storage.ReplaceAllocations(ctx, expenseID, shares, debts); err != nil {
		return core.Share{}, fmt.Errorf("add share: %w", err)
	}

	// insert assigned the new share's id in place
	return shares[len(shares)-1], nil
}

// RemoveShare drops one share and its debts, re-deriving the remainder.
func (s *LedgerService) RemoveShare(ctx context.Context, shareID uuid.UUID) error {
	share, err := s.storage.GetShare(ctx, shareID)
	if err != nil {
		return err
	}

	unlock := s.lockExpense(share.ExpenseID)
	defer unlock()

	expense, err := s.storage.GetExpense(ctx, share.ExpenseID)
	if err != nil {
		return err
	}

	shares, err := s.storage.ListSharesByExpense(ctx, share.ExpenseID)
	if err != nil {
		return err
	}
	remaining := shares[:0]
	for _, existing := range shares {
		if existing.ID != shareID {
			remaining = append(remaining, existing)
		}
	}

	var debts []core.Debt
	if len(remaining) > 0 {
		debts, err = core.DeriveDebts(remaining, expense.PaidBy, s.policy)
		if err != nil {
			return err
		}
	}

	if err := s.storage.ReplaceAllocations(ctx, share.ExpenseID, remaining, debts); err != nil {
		return fmt.Errorf("remove share: %w", err)
	}
	return nil
}

// CheckBillConsistency is the offline invariant check: the stored bill
// total must equal the sum of its expense amounts exactly (totals move
// by delta), and each expense's share sum must stay within one cent per
// extra share of the expense amount.
func (s *LedgerService) CheckBillConsistency(ctx context.Context, billID uuid.UUID) error {
	bill, err := s.storage.GetBill(ctx, billID)
	if err != nil {
		return err
	}
	expenses, err := s.storage.ListExpensesByBill(ctx, billID)
	if err != nil {
		return err
	}

	sum := decimal.Zero
	for _, e := range expenses {
		sum = sum.Add(e.Amount)
	}
	if !bill.TotalAmount.Equal(sum) {
		return &core.ConsistencyError{BillID: billID, Stored: bill.TotalAmount, Computed: sum}
	}

	for _, e := range expenses {
		shares, err := s.storage.ListSharesByExpense(ctx, e.ID)
		if err != nil {
			return err
		}
		if len(shares) == 0 {
			continue
		}
		if !core.WithinTolerance(e.Amount, core.ShareSum(shares), core.RoundingTolerance(len(shares))) {
			return &core.ConsistencyError{BillID: billID, Stored: e.Amount, Computed: core.ShareSum(shares)}
		}
	}
	return nil
}

// notify dispatches outside the commit boundary; failures are logged and
// dropped so they can never undo a committed ledger change.
func (s *LedgerService) notify(ctx context.Context, recipient uuid.UUID, title, message string, category core.NotificationCategory, referenceID string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Notification publisher not available, skipping dispatch",
			"recipient", recipient, "category", category)
		return
	}
	msg := amqp.NewNotificationMessage(recipient, title, message, string(category), referenceID)
	if err := s.publisher.PublishNotification(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish notification",
			"recipient", recipient,
			"category", category,
			"error", err)
	}
}

// --- Read surface ---

func (s *LedgerService) GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	return s.storage.GetExpense(ctx, id)
}

func (s *LedgerService) SharesByExpense(ctx context.Context, expenseID uuid.UUID) ([]core.Share, error) {
	if _, err := s.storage.GetExpense(ctx, expenseID); err != nil {
		return nil, err
	}
	return s.storage.ListSharesByExpense(ctx, expenseID)
}

func (s *LedgerService) SharesByUser(ctx context.Context, userID uuid.UUID) ([]core.Share, error) {
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.storage.ListSharesByUser(ctx, userID)
}

func (s *LedgerService) DebtsByExpense(ctx context.Context, expenseID uuid.UUID) ([]core.Debt, error) {
	if _, err := s.storage.GetExpense(ctx, expenseID); err != nil {
		return nil, err
	}
	return s.storage.ListDebtsByExpense(ctx, expenseID)
}

func (s *LedgerService) DebtsOwedBy(ctx context.Context, userID uuid.UUID) ([]core.Debt, error) {
	return s.storage.ListDebtsOwedBy(ctx, userID)
}

func (s *LedgerService) DebtsOwedTo(ctx context.Context, userID uuid.UUID) ([]core.Debt, error) {
	return s.storage.ListDebtsOwedTo(ctx, userID)
}

func (s *LedgerService) ExpensesByBill(ctx context.Context, billID uuid.UUID) ([]core.Expense, error) {
	if _, err := s.storage.GetBill(ctx, billID); err != nil {
		return nil, err
	}
	return s.storage.ListExpensesByBill(ctx, billID)
}

func (s *LedgerService) ExpensesByGroup(ctx context.Context, groupID uuid.UUID) ([]core.Expense, error) {
	if _, err := s.storage.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.storage.ListExpensesByGroup(ctx, groupID)
}

func (s *LedgerService) ExpensesByCreator(ctx context.Context, userID uuid.UUID) ([]core.Expense, error) {
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.storage.ListExpensesByCreator(ctx, userID)
}

func (s *LedgerService) ExpensesByPayer(ctx context.Context, userID uuid.UUID) ([]core.Expense, error) {
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.storage.ListExpensesByPayer(ctx, userID)
}

func (s *LedgerService) PaymentStatsByGroup(ctx context.Context, groupID uuid.UUID) ([]core.PaymentStat, error) {
	if _, err := s.storage.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.storage.PaymentStatsByGroup(ctx, groupID)
}

// Close releases the underlying storage.
func (s *LedgerService) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}
	return nil
}
