package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"splitfair/internal/core"
	"splitfair/internal/services"
)

type allocationRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	Percentage *string   `json:"percentage,omitempty"`
	Amount     *string   `json:"amount,omitempty"`
}

type createExpenseRequest struct {
	BillID      *uuid.UUID          `json:"bill_id,omitempty"`
	Description string              `json:"description"`
	Amount      string              `json:"amount"`
	PaidBy      *uuid.UUID          `json:"paid_by,omitempty"`
	CreatedBy   uuid.UUID           `json:"created_by"`
	Allocations []allocationRequest `json:"allocations,omitempty"`
}

func parseAllocations(reqs []allocationRequest) ([]core.AllocationInput, error) {
	out := make([]core.AllocationInput, len(reqs))
	for i, a := range reqs {
		in := core.AllocationInput{UserID: a.UserID}
		if a.Amount != nil {
			amount, err := parseAmountField(*a.Amount)
			if err != nil {
				return nil, &core.ValidationError{Field: "amount", Reason: "not a valid amount: " + *a.Amount}
			}
			in.Amount = &amount
		}
		if a.Percentage != nil {
			pct, err := decimal.NewFromString(*a.Percentage)
			if err != nil {
				return nil, &core.ValidationError{Field: "percentage", Reason: "not a valid percentage: " + *a.Percentage}
			}
			in.Percentage = &pct
		}
		out[i] = in
	}
	return out, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	amount, err := parseAmountField(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	allocations, err := parseAllocations(req.Allocations)
	if err != nil {
		respondError(w, r, err)
		return
	}

	input := services.CreateExpenseInput{
		Description: req.Description,
		Amount:      amount,
		CreatedBy:   req.CreatedBy,
		Allocations: allocations,
	}
	if req.BillID != nil {
		input.BillID = *req.BillID
	}
	if req.PaidBy != nil {
		input.PaidBy = *req.PaidBy
	}

	expense, err := s.ledger.CreateExpense(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toExpenseDTO(expense))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	expense, err := s.ledger.GetExpense(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseDTO(expense))
}

type updateExpenseRequest struct {
	Amount      *string    `json:"amount,omitempty"`
	PaidBy      *uuid.UUID `json:"paid_by,omitempty"`
	Description *string    `json:"description,omitempty"`
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch := services.UpdateExpensePatch{
		PaidBy:      req.PaidBy,
		Description: req.Description,
	}
	if req.Amount != nil {
		amount, err := parseAmountField(*req.Amount)
		if err != nil {
			respondError(w, r, err)
			return
		}
		patch.Amount = &amount
	}

	expense, err := s.ledger.UpdateExpense(r.Context(), id, patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseDTO(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type saveAllocationsRequest struct {
	Total  string `json:"total"`
	Shares []struct {
		UserID uuid.UUID `json:"user_id"`
		Amount string    `json:"amount"`
	} `json:"shares"`
}

func (s *Server) handleSaveAllocations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req saveAllocationsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	total, err := parseAmountField(req.Total)
	if err != nil {
		respondError(w, r, err)
		return
	}
	inputs := make([]services.ShareInput, len(req.Shares))
	for i, sh := range req.Shares {
		amount, err := parseAmountField(sh.Amount)
		if err != nil {
			respondError(w, r, err)
			return
		}
		inputs[i] = services.ShareInput{UserID: sh.UserID, Amount: amount}
	}

	if err := s.ledger.SaveAllocations(r.Context(), id, inputs, total); err != nil {
		respondError(w, r, err)
		return
	}

	shares, err := s.ledger.SharesByExpense(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toShareDTOs(shares))
}

func (s *Server) handleExpenseShares(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	shares, err := s.ledger.SharesByExpense(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toShareDTOs(shares))
}

type addShareRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	Percentage string    `json:"percentage"`
}

func (s *Server) handleAddShare(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req addShareRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pct, err := decimal.NewFromString(req.Percentage)
	if err != nil {
		respondError(w, r, &core.ValidationError{Field: "percentage", Reason: "not a valid percentage: " + req.Percentage})
		return
	}

	share, err := s.ledger.AddShare(r.Context(), id, req.UserID, pct)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toShareDTO(share))
}

func (s *Server) handleExpenseDebts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	debts, err := s.ledger.DebtsByExpense(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDebtDTOs(debts))
}

type updateShareStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateShareStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateShareStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	share, err := s.ledger.UpdateShareStatus(r.Context(), id, req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toShareDTO(share))
}

func (s *Server) handleRemoveShare(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.RemoveShare(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
