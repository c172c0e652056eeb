package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"splitfair/internal/core"
)

const expenseColumns = "id, bill_id, description, amount, paid_by, created_by, status, created_at"
const shareColumns = "id, expense_id, user_id, percentage, amount, amount_fixed, status"

func (r *SQLiteRepository) listExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListExpensesByBill(ctx context.Context, billID uuid.UUID) ([]core.Expense, error) {
	return r.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE bill_id = ? ORDER BY created_at, id",
		billID.String())
}

func (r *SQLiteRepository) ListExpensesByGroup(ctx context.Context, groupID uuid.UUID) ([]core.Expense, error) {
	return r.listExpenses(ctx,
		`SELECT e.id, e.bill_id, e.description, e.amount, e.paid_by, e.created_by, e.status, e.created_at
		 FROM expenses e JOIN bills b ON e.bill_id = b.id
		 WHERE b.group_id = ? ORDER BY e.created_at, e.id`,
		groupID.String())
}

func (r *SQLiteRepository) ListExpensesByCreator(ctx context.Context, userID uuid.UUID) ([]core.Expense, error) {
	return r.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE created_by = ? ORDER BY created_at, id",
		userID.String())
}

func (r *SQLiteRepository) ListExpensesByPayer(ctx context.Context, userID uuid.UUID) ([]core.Expense, error) {
	return r.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE paid_by = ? ORDER BY created_at, id",
		userID.String())
}

func (r *SQLiteRepository) listShares(ctx context.Context, query string, args ...any) ([]core.Share, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	var out []core.Share
	for rows.Next() {
		s, err := scanShare(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListSharesByExpense(ctx context.Context, expenseID uuid.UUID) ([]core.Share, error) {
	return r.listShares(ctx,
		"SELECT "+shareColumns+" FROM shares WHERE expense_id = ? ORDER BY user_id",
		expenseID.String())
}

func (r *SQLiteRepository) ListSharesByUser(ctx context.Context, userID uuid.UUID) ([]core.Share, error) {
	return r.listShares(ctx,
		"SELECT "+shareColumns+" FROM shares WHERE user_id = ? ORDER BY expense_id",
		userID.String())
}

func (r *SQLiteRepository) listDebts(ctx context.Context, query string, args ...any) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		var (
			d          core.Debt
			rawID      string
			rawExpense string
			rawFrom    string
			rawTo      string
			rawAmount  string
			rawStatus  string
		)
		if err := rows.Scan(&rawID, &rawExpense, &rawFrom, &rawTo, &rawAmount, &rawStatus); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		var err error
		if d.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("parse debt id: %w", err)
		}
		if d.ExpenseID, err = uuid.Parse(rawExpense); err != nil {
			return nil, fmt.Errorf("parse debt expense id: %w", err)
		}
		if d.FromUser, err = uuid.Parse(rawFrom); err != nil {
			return nil, fmt.Errorf("parse debt from user: %w", err)
		}
		if d.ToUser, err = uuid.Parse(rawTo); err != nil {
			return nil, fmt.Errorf("parse debt to user: %w", err)
		}
		if d.Amount, err = parseDec(rawAmount); err != nil {
			return nil, err
		}
		d.Status = core.DebtStatus(rawStatus)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate debts: %w", err)
	}
	return out, nil
}

const debtColumns = "id, expense_id, from_user, to_user, amount, status"

func (r *SQLiteRepository) GetDebt(ctx context.Context, id uuid.UUID) (core.Debt, error) {
	debts, err := r.listDebts(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE id = ?", id.String())
	if err != nil {
		return core.Debt{}, err
	}
	if len(debts) == 0 {
		return core.Debt{}, core.NewNotFound("Debt", id)
	}
	return debts[0], nil
}

func (r *SQLiteRepository) ListDebtsByExpense(ctx context.Context, expenseID uuid.UUID) ([]core.Debt, error) {
	return r.listDebts(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE expense_id = ? ORDER BY from_user",
		expenseID.String())
}

func (r *SQLiteRepository) ListDebtsOwedBy(ctx context.Context, userID uuid.UUID) ([]core.Debt, error) {
	return r.listDebts(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE from_user = ? ORDER BY expense_id",
		userID.String())
}

func (r *SQLiteRepository) ListDebtsOwedTo(ctx context.Context, userID uuid.UUID) ([]core.Debt, error) {
	return r.listDebts(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE to_user = ? ORDER BY expense_id",
		userID.String())
}

// PaymentStatsByGroup aggregates, per payer, the total amount of expenses
// paid within a group. Amounts are summed in Go because they are stored
// as exact decimal strings.
func (r *SQLiteRepository) PaymentStatsByGroup(ctx context.Context, groupID uuid.UUID) ([]core.PaymentStat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.paid_by, u.user_name, e.amount
		 FROM expenses e
		 JOIN bills b ON e.bill_id = b.id
		 JOIN users u ON e.paid_by = u.id
		 WHERE b.group_id = ? AND e.paid_by IS NOT NULL
		 ORDER BY u.user_name`,
		groupID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("payment stats: %w", err)
	}
	defer rows.Close()

	totals := make(map[uuid.UUID]*core.PaymentStat)
	var order []uuid.UUID
	for rows.Next() {
		var (
			rawPayer  sql.NullString
			userName  string
			rawAmount string
		)
		if err := rows.Scan(&rawPayer, &userName, &rawAmount); err != nil {
			return nil, fmt.Errorf("scan payment stat: %w", err)
		}
		payer, err := parseNullUUID(rawPayer)
		if err != nil {
			return nil, fmt.Errorf("parse payer id: %w", err)
		}
		amount, err := parseDec(rawAmount)
		if err != nil {
			return nil, err
		}
		stat, ok := totals[payer]
		if !ok {
			stat = &core.PaymentStat{UserID: payer, UserName: userName, TotalPaid: decimal.Zero}
			totals[payer] = stat
			order = append(order, payer)
		}
		stat.TotalPaid = stat.TotalPaid.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment stats: %w", err)
	}

	out := make([]core.PaymentStat, 0, len(order))
	for _, id := range order {
		out = append(out, *totals[id])
	}
	return out, nil
}
