package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"splitfair/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps domain errors onto HTTP status codes. Unrecognized
// errors become a generic 500 so internals never leak to clients.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsNotFound(err):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case core.IsValidation(err),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrMissingPayer):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// pathID parses the {id} wildcard; a malformed UUID is a 400, not a 404.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id: " + r.PathValue("id")})
		return uuid.Nil, false
	}
	return id, true
}

// --- Wire representations ---

type userDTO struct {
	ID        uuid.UUID `json:"id"`
	UserName  string    `json:"user_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDTO(u core.User) userDTO {
	return userDTO{ID: u.ID, UserName: u.UserName, Email: u.Email, CreatedAt: u.CreatedAt}
}

type groupDTO struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Members   []uuid.UUID `json:"members"`
	CreatedAt time.Time   `json:"created_at"`
}

func toGroupDTO(g core.Group) groupDTO {
	return groupDTO{ID: g.ID, Name: g.Name, Members: g.Members, CreatedAt: g.CreatedAt}
}

type billDTO struct {
	ID          uuid.UUID `json:"id"`
	GroupID     uuid.UUID `json:"group_id"`
	Name        string    `json:"name"`
	TotalAmount string    `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toBillDTO(b core.Bill) billDTO {
	return billDTO{
		ID:          b.ID,
		GroupID:     b.GroupID,
		Name:        b.Name,
		TotalAmount: b.TotalAmount.StringFixed(2),
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
	}
}

type expenseDTO struct {
	ID          uuid.UUID  `json:"id"`
	BillID      *uuid.UUID `json:"bill_id,omitempty"`
	Description string     `json:"description"`
	Amount      string     `json:"amount"`
	PaidBy      *uuid.UUID `json:"paid_by,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toExpenseDTO(e core.Expense) expenseDTO {
	dto := expenseDTO{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount.StringFixed(2),
		CreatedBy:   e.CreatedBy,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
	}
	if e.BillID != uuid.Nil {
		billID := e.BillID
		dto.BillID = &billID
	}
	if e.PaidBy != uuid.Nil {
		paidBy := e.PaidBy
		dto.PaidBy = &paidBy
	}
	return dto
}

func toExpenseDTOs(expenses []core.Expense) []expenseDTO {
	out := make([]expenseDTO, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseDTO(e)
	}
	return out
}

type shareDTO struct {
	ID         uuid.UUID `json:"id"`
	ExpenseID  uuid.UUID `json:"expense_id"`
	UserID     uuid.UUID `json:"user_id"`
	Percentage string    `json:"percentage"`
	Amount     string    `json:"amount"`
	Status     string    `json:"status"`
}

func toShareDTO(s core.Share) shareDTO {
	return shareDTO{
		ID:         s.ID,
		ExpenseID:  s.ExpenseID,
		UserID:     s.UserID,
		Percentage: s.Percentage.StringFixed(2),
		Amount:     s.Amount.StringFixed(2),
		Status:     string(s.Status),
	}
}

func toShareDTOs(shares []core.Share) []shareDTO {
	out := make([]shareDTO, len(shares))
	for i, s := range shares {
		out[i] = toShareDTO(s)
	}
	return out
}

type debtDTO struct {
	ID        uuid.UUID `json:"id"`
	ExpenseID uuid.UUID `json:"expense_id"`
	FromUser  uuid.UUID `json:"from_user"`
	ToUser    uuid.UUID `json:"to_user"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
}

func toDebtDTO(d core.Debt) debtDTO {
	return debtDTO{
		ID:        d.ID,
		ExpenseID: d.ExpenseID,
		FromUser:  d.FromUser,
		ToUser:    d.ToUser,
		Amount:    d.Amount.StringFixed(2),
		Status:    string(d.Status),
	}
}

func toDebtDTOs(debts []core.Debt) []debtDTO {
	out := make([]debtDTO, len(debts))
	for i, d := range debts {
		out[i] = toDebtDTO(d)
	}
	return out
}

type notificationDTO struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Category    string    `json:"category"`
	ReferenceID string    `json:"reference_id"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

func toNotificationDTO(n core.Notification) notificationDTO {
	return notificationDTO{
		ID:          n.ID,
		UserID:      n.UserID,
		Title:       n.Title,
		Message:     n.Message,
		Category:    string(n.Category),
		ReferenceID: n.ReferenceID,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
}

type statDTO struct {
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	TotalPaid string    `json:"total_paid"`
}

// parseAmountField accepts amounts as JSON strings, with comma or dot
// decimal separators.
func parseAmountField(raw string) (decimal.Decimal, error) {
	return core.ParseAmount(raw)
}
