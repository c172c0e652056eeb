// Package storage provides the SQLite-backed ledger repository. Every
// reconciliation write (expense + shares + debts + bill total) happens in
// a single transaction: either all rows change together or none do.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"splitfair/internal/core"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// parseDec converts a stored amount back to a decimal. Stored values are
// always produced by decimal.String, so a parse failure means row
// corruption, not caller error.
func parseDec(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt decimal column %q: %w", s, err)
	}
	return d, nil
}

func nullUUID(id uuid.UUID) sql.NullString {
	if id == uuid.Nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func parseNullUUID(ns sql.NullString) (uuid.UUID, error) {
	if !ns.Valid {
		return uuid.Nil, nil
	}
	return uuid.Parse(ns.String)
}

// --- Users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, u *core.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, user_name, email, created_at) VALUES (?, ?, ?, ?)",
		u.ID.String(), u.UserName, u.Email, u.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id uuid.UUID) (core.User, error) {
	var (
		u       core.User
		rawID   string
		created int64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_name, email, created_at FROM users WHERE id = ?", id.String(),
	).Scan(&rawID, &u.UserName, &u.Email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NewNotFound("User", id)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.ID, err = uuid.Parse(rawID)
	if err != nil {
		return core.User{}, fmt.Errorf("parse user id: %w", err)
	}
	u.CreatedAt = time.Unix(created, 0)
	return u, nil
}

// --- Groups ---

func (r *SQLiteRepository) CreateGroup(ctx context.Context, g *core.Group) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, created_at) VALUES (?, ?, ?)",
		g.ID.String(), g.Name, g.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	for _, member := range g.Members {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id) VALUES (?, ?)",
			g.ID.String(), member.String(),
		)
		if err != nil {
			return fmt.Errorf("insert group member: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetGroup(ctx context.Context, id uuid.UUID) (core.Group, error) {
	var (
		g       core.Group
		rawID   string
		created int64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM groups WHERE id = ?", id.String(),
	).Scan(&rawID, &g.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Group{}, core.NewNotFound("Group", id)
	}
	if err != nil {
		return core.Group{}, fmt.Errorf("get group: %w", err)
	}
	g.ID, err = uuid.Parse(rawID)
	if err != nil {
		return core.Group{}, fmt.Errorf("parse group id: %w", err)
	}
	g.CreatedAt = time.Unix(created, 0)

	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY user_id", id.String(),
	)
	if err != nil {
		return core.Group{}, fmt.Errorf("get group members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return core.Group{}, fmt.Errorf("scan group member: %w", err)
		}
		member, err := uuid.Parse(raw)
		if err != nil {
			return core.Group{}, fmt.Errorf("parse member id: %w", err)
		}
		g.Members = append(g.Members, member)
	}
	if err := rows.Err(); err != nil {
		return core.Group{}, fmt.Errorf("iterate group members: %w", err)
	}
	return g, nil
}

// --- Bills ---

func (r *SQLiteRepository) CreateBill(ctx context.Context, b *core.Bill) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if b.Status == "" {
		b.Status = core.BillDraft
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO bills (id, group_id, name, total_amount, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		b.ID.String(), b.GroupID.String(), b.Name, b.TotalAmount.String(), string(b.Status), b.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetBill(ctx context.Context, id uuid.UUID) (core.Bill, error) {
	return getBill(ctx, r.db, id)
}

// querier covers both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getBill(ctx context.Context, q querier, id uuid.UUID) (core.Bill, error) {
	var (
		b          core.Bill
		rawID      string
		rawGroup   string
		rawTotal   string
		rawStatus  string
		createdRaw int64
	)
	err := q.QueryRowContext(ctx,
		"SELECT id, group_id, name, total_amount, status, created_at FROM bills WHERE id = ?", id.String(),
	).Scan(&rawID, &rawGroup, &b.Name, &rawTotal, &rawStatus, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, core.NewNotFound("Bill", id)
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	if b.ID, err = uuid.Parse(rawID); err != nil {
		return core.Bill{}, fmt.Errorf("parse bill id: %w", err)
	}
	if b.GroupID, err = uuid.Parse(rawGroup); err != nil {
		return core.Bill{}, fmt.Errorf("parse bill group id: %w", err)
	}
	if b.TotalAmount, err = parseDec(rawTotal); err != nil {
		return core.Bill{}, err
	}
	b.Status = core.BillStatus(rawStatus)
	b.CreatedAt = time.Unix(createdRaw, 0)
	return b, nil
}

// applyBillDelta moves a bill's running total inside the caller's
// transaction and flips DRAFT bills to ACTIVE when asked. The total is
// never recomputed by summing expenses here; CheckBillConsistency does
// that offline.
func applyBillDelta(ctx context.Context, tx *sql.Tx, billID uuid.UUID, delta decimal.Decimal, activate bool) error {
	bill, err := getBill(ctx, tx, billID)
	if err != nil {
		return err
	}
	total := bill.TotalAmount.Add(delta)
	status := bill.Status
	if activate && status == core.BillDraft {
		status = core.BillActive
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE bills SET total_amount = ?, status = ? WHERE id = ?",
		total.String(), string(status), billID.String(),
	)
	if err != nil {
		return fmt.Errorf("update bill total: %w", err)
	}
	return nil
}

// --- Expenses ---

// CreateExpense persists an expense together with its initial shares and
// debts and applies the amount to the owning bill, all in one transaction.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e *core.Expense, shares []core.Share, debts []core.Debt) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Status == "" {
		e.Status = core.ExpensePending
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, bill_id, description, amount, paid_by, created_by, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), nullUUID(e.BillID), e.Description, e.Amount.String(),
		nullUUID(e.PaidBy), e.CreatedBy.String(), string(e.Status), e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	if err := insertShares(ctx, tx, e.ID, shares); err != nil {
		return err
	}
	if err := insertDebts(ctx, tx, e.ID, debts); err != nil {
		return err
	}

	if e.BillID != uuid.Nil {
		if err := applyBillDelta(ctx, tx, e.BillID, e.Amount, true); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, bill_id, description, amount, paid_by, created_by, status, created_at
		 FROM expenses WHERE id = ?`, id.String(),
	)
	e, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.NewNotFound("Expense", id)
	}
	return e, err
}

func scanExpense(scan func(...any) error) (core.Expense, error) {
	var (
		e         core.Expense
		rawID     string
		rawBill   sql.NullString
		rawAmount string
		rawPayer  sql.NullString
		rawBy     string
		rawStatus string
		created   int64
	)
	if err := scan(&rawID, &rawBill, &e.Description, &rawAmount, &rawPayer, &rawBy, &rawStatus, &created); err != nil {
		return core.Expense{}, err
	}
	var err error
	if e.ID, err = uuid.Parse(rawID); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense id: %w", err)
	}
	if e.BillID, err = parseNullUUID(rawBill); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense bill id: %w", err)
	}
	if e.Amount, err = parseDec(rawAmount); err != nil {
		return core.Expense{}, err
	}
	if e.PaidBy, err = parseNullUUID(rawPayer); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense payer id: %w", err)
	}
	if e.CreatedBy, err = uuid.Parse(rawBy); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense creator id: %w", err)
	}
	e.Status = core.ExpenseStatus(rawStatus)
	e.CreatedAt = time.Unix(created, 0)
	return e, nil
}

// UpdateExpense rewrites the expense row, atomically replaces its entire
// share and debt set (remove-then-insert, no partial overwrite) and moves
// the bill total by delta = newAmount - oldAmount.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense, shares []core.Share, debts []core.Debt, delta decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET description = ?, amount = ?, paid_by = ?, status = ? WHERE id = ?",
		e.Description, e.Amount.String(), nullUUID(e.PaidBy), string(e.Status), e.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFound("Expense", e.ID)
	}

	if err := replaceAllocations(ctx, tx, e.ID, shares, debts); err != nil {
		return err
	}

	if e.BillID != uuid.Nil && !delta.IsZero() {
		if err := applyBillDelta(ctx, tx, e.BillID, delta, false); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ReplaceAllocations swaps the full share and debt set of an expense in
// one transaction, leaving the expense row and bill total untouched.
func (r *SQLiteRepository) ReplaceAllocations(ctx context.Context, expenseID uuid.UUID, shares []core.Share, debts []core.Debt) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceAllocations(ctx, tx, expenseID, shares, debts); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func replaceAllocations(ctx context.Context, tx *sql.Tx, expenseID uuid.UUID, shares []core.Share, debts []core.Debt) error {
	// Explicit two-step replace: delete by foreign key, then insert the
	// new set. No intermediate state is observable outside the tx.
	if _, err := tx.ExecContext(ctx, "DELETE FROM debts WHERE expense_id = ?", expenseID.String()); err != nil {
		return fmt.Errorf("delete debts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM shares WHERE expense_id = ?", expenseID.String()); err != nil {
		return fmt.Errorf("delete shares: %w", err)
	}
	if err := insertShares(ctx, tx, expenseID, shares); err != nil {
		return err
	}
	return insertDebts(ctx, tx, expenseID, debts)
}

func insertShares(ctx context.Context, tx *sql.Tx, expenseID uuid.UUID, shares []core.Share) error {
	for i := range shares {
		s := &shares[i]
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.ExpenseID = expenseID
		fixed := 0
		if s.AmountFixed {
			fixed = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO shares (id, expense_id, user_id, percentage, amount, amount_fixed, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.ID.String(), expenseID.String(), s.UserID.String(),
			s.Percentage.String(), s.Amount.String(), fixed, string(s.Status),
		)
		if err != nil {
			return fmt.Errorf("insert share: %w", err)
		}
	}
	return nil
}

func insertDebts(ctx context.Context, tx *sql.Tx, expenseID uuid.UUID, debts []core.Debt) error {
	for i := range debts {
		d := &debts[i]
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		d.ExpenseID = expenseID
		_, err := tx.ExecContext(ctx,
			`INSERT INTO debts (id, expense_id, from_user, to_user, amount, status)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			d.ID.String(), expenseID.String(), d.FromUser.String(), d.ToUser.String(),
			d.Amount.String(), string(d.Status),
		)
		if err != nil {
			return fmt.Errorf("insert debt: %w", err)
		}
	}
	return nil
}

// DeleteExpense removes the expense, its shares and debts, and subtracts
// its amount from the owning bill, as one atomic unit.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, bill_id, description, amount, paid_by, created_by, status, created_at
		 FROM expenses WHERE id = ?`, id.String(),
	)
	e, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewNotFound("Expense", id)
	}
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM debts WHERE expense_id = ?", id.String()); err != nil {
		return fmt.Errorf("delete debts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM shares WHERE expense_id = ?", id.String()); err != nil {
		return fmt.Errorf("delete shares: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id.String()); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	if e.BillID != uuid.Nil {
		if err := applyBillDelta(ctx, tx, e.BillID, e.Amount.Neg(), false); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// --- Shares ---

func (r *SQLiteRepository) GetShare(ctx context.Context, id uuid.UUID) (core.Share, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, expense_id, user_id, percentage, amount, amount_fixed, status
		 FROM shares WHERE id = ?`, id.String(),
	)
	s, err := scanShare(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Share{}, core.NewNotFound("Share", id)
	}
	return s, err
}

func scanShare(scan func(...any) error) (core.Share, error) {
	var (
		s          core.Share
		rawID      string
		rawExpense string
		rawUser    string
		rawPct     string
		rawAmount  string
		fixed      int
		rawStatus  string
	)
	if err := scan(&rawID, &rawExpense, &rawUser, &rawPct, &rawAmount, &fixed, &rawStatus); err != nil {
		return core.Share{}, err
	}
	var err error
	if s.ID, err = uuid.Parse(rawID); err != nil {
		return core.Share{}, fmt.Errorf("parse share id: %w", err)
	}
	if s.ExpenseID, err = uuid.Parse(rawExpense); err != nil {
		return core.Share{}, fmt.Errorf("parse share expense id: %w", err)
	}
	if s.UserID, err = uuid.Parse(rawUser); err != nil {
		return core.Share{}, fmt.Errorf("parse share user id: %w", err)
	}
	if s.Percentage, err = parseDec(rawPct); err != nil {
		return core.Share{}, err
	}
	if s.Amount, err = parseDec(rawAmount); err != nil {
		return core.Share{}, err
	}
	s.AmountFixed = fixed != 0
	s.Status = core.ShareStatus(rawStatus)
	return s, nil
}

// UpdateShareStatus flips a share's paid flag and propagates the derived
// status to every debt keyed by (expense, share user) in the same
// transaction. Debt status is never written independently of its share.
func (r *SQLiteRepository) UpdateShareStatus(ctx context.Context, shareID uuid.UUID, status core.ShareStatus) (core.Share, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Share{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, expense_id, user_id, percentage, amount, amount_fixed, status
		 FROM shares WHERE id = ?`, shareID.String(),
	)
	share, err := scanShare(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Share{}, core.NewNotFound("Share", shareID)
	}
	if err != nil {
		return core.Share{}, fmt.Errorf("get share: %w", err)
	}

	share.Status = status
	if _, err := tx.ExecContext(ctx,
		"UPDATE shares SET status = ? WHERE id = ?", string(status), shareID.String(),
	); err != nil {
		return core.Share{}, fmt.Errorf("update share status: %w", err)
	}

	debtStatus := core.DebtStatusFor(status)
	if _, err := tx.ExecContext(ctx,
		"UPDATE debts SET status = ? WHERE expense_id = ? AND from_user = ?",
		string(debtStatus), share.ExpenseID.String(), share.UserID.String(),
	); err != nil {
		return core.Share{}, fmt.Errorf("propagate debt status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Share{}, fmt.Errorf("commit transaction: %w", err)
	}
	return share, nil
}

// --- Notifications ---

func (r *SQLiteRepository) InsertNotification(ctx context.Context, n *core.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	read := 0
	if n.Read {
		read = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, title, message, category, reference_id, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID.String(), n.UserID.String(), n.Title, n.Message, string(n.Category),
		n.ReferenceID, read, n.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, message, category, reference_id, is_read, created_at
		 FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id`, userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var (
			n        core.Notification
			rawID    string
			rawUser  string
			category string
			read     int
			created  int64
		)
		if err := rows.Scan(&rawID, &rawUser, &n.Title, &n.Message, &category, &n.ReferenceID, &read, &created); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if n.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("parse notification id: %w", err)
		}
		if n.UserID, err = uuid.Parse(rawUser); err != nil {
			return nil, fmt.Errorf("parse notification user id: %w", err)
		}
		n.Category = core.NotificationCategory(category)
		n.Read = read != 0
		n.CreatedAt = time.Unix(created, 0)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0", userID.String(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id = ?", id.String(),
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFound("Notification", id)
	}
	return nil
}

func (r *SQLiteRepository) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE user_id = ?", userID.String(),
	)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
