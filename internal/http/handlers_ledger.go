package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"splitfair/internal/core"
)

type createUserRequest struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserName == "" {
		respondError(w, r, &core.ValidationError{Field: "user_name", Reason: "required"})
		return
	}

	user := core.User{UserName: req.UserName, Email: req.Email}
	if err := s.storage.CreateUser(r.Context(), &user); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toUserDTO(user))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := s.storage.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserDTO(user))
}

// handleUserExpenses lists expenses by creator, or by payer with
// ?role=payer.
func (s *Server) handleUserExpenses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var (
		expenses []core.Expense
		err      error
	)
	switch role := r.URL.Query().Get("role"); role {
	case "", "creator":
		expenses, err = s.ledger.ExpensesByCreator(r.Context(), id)
	case "payer":
		expenses, err = s.ledger.ExpensesByPayer(r.Context(), id)
	default:
		respondError(w, r, &core.ValidationError{Field: "role", Reason: "must be creator or payer"})
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseDTOs(expenses))
}

func (s *Server) handleUserShares(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	shares, err := s.ledger.SharesByUser(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toShareDTOs(shares))
}

// handleUserDebts lists what the user owes; ?direction=owed flips to
// what others owe them.
func (s *Server) handleUserDebts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.storage.GetUser(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	var (
		debts []core.Debt
		err   error
	)
	switch direction := r.URL.Query().Get("direction"); direction {
	case "", "owing":
		debts, err = s.ledger.DebtsOwedBy(r.Context(), id)
	case "owed":
		debts, err = s.ledger.DebtsOwedTo(r.Context(), id)
	default:
		respondError(w, r, &core.ValidationError{Field: "direction", Reason: "must be owing or owed"})
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDebtDTOs(debts))
}

type createGroupRequest struct {
	Name    string      `json:"name"`
	Members []uuid.UUID `json:"members"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, r, &core.ValidationError{Field: "name", Reason: "required"})
		return
	}
	for _, member := range req.Members {
		if _, err := s.storage.GetUser(r.Context(), member); err != nil {
			respondError(w, r, err)
			return
		}
	}

	group := core.Group{Name: req.Name, Members: req.Members}
	if err := s.storage.CreateGroup(r.Context(), &group); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toGroupDTO(group))
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	group, err := s.storage.GetGroup(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGroupDTO(group))
}

func (s *Server) handleGroupExpenses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	expenses, err := s.ledger.ExpensesByGroup(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseDTOs(expenses))
}

func (s *Server) handleGroupStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	stats, err := s.ledger.PaymentStatsByGroup(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]statDTO, len(stats))
	for i, stat := range stats {
		out[i] = statDTO{UserID: stat.UserID, UserName: stat.UserName, TotalPaid: stat.TotalPaid.StringFixed(2)}
	}
	respondJSON(w, http.StatusOK, out)
}

type createBillRequest struct {
	GroupID uuid.UUID `json:"group_id"`
	Name    string    `json:"name"`
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, r, &core.ValidationError{Field: "name", Reason: "required"})
		return
	}
	if _, err := s.storage.GetGroup(r.Context(), req.GroupID); err != nil {
		respondError(w, r, err)
		return
	}

	bill := core.Bill{GroupID: req.GroupID, Name: req.Name}
	if err := s.storage.CreateBill(r.Context(), &bill); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toBillDTO(bill))
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	bill, err := s.storage.GetBill(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toBillDTO(bill))
}

func (s *Server) handleBillExpenses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	expenses, err := s.ledger.ExpensesByBill(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseDTOs(expenses))
}

type consistencyResponse struct {
	Consistent bool   `json:"consistent"`
	Detail     string `json:"detail,omitempty"`
}

func (s *Server) handleBillConsistency(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := s.ledger.CheckBillConsistency(r.Context(), id)
	var cerr *core.ConsistencyError
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, consistencyResponse{Consistent: true})
	case errors.As(err, &cerr):
		respondJSON(w, http.StatusOK, consistencyResponse{Consistent: false, Detail: cerr.Error()})
	default:
		respondError(w, r, err)
	}
}
