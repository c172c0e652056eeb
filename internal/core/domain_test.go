package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestExpenseValidate(t *testing.T) {
	creator := uuid.New()

	valid := Expense{
		Description: "Dinner",
		Amount:      dec("42.50"),
		CreatedBy:   creator,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Expense)
	}{
		{"empty description", func(e *Expense) { e.Description = "  " }},
		{"description too long", func(e *Expense) { e.Description = strings.Repeat("x", 201) }},
		{"negative amount", func(e *Expense) { e.Amount = dec("-1") }},
		{"missing creator", func(e *Expense) { e.CreatedBy = uuid.Nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			if err := e.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestShareValidate(t *testing.T) {
	valid := Share{
		UserID:     uuid.New(),
		Percentage: dec("50"),
		Amount:     dec("10"),
		Status:     ShareUnpaid,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid share rejected: %v", err)
	}

	bad := valid
	bad.Status = "PAYED"
	var ve *ValidationError
	if err := bad.Validate(); !errors.As(err, &ve) {
		t.Errorf("unknown status should be a ValidationError, got %v", err)
	}

	bad = valid
	bad.Percentage = dec("101")
	if err := bad.Validate(); err == nil {
		t.Error("percentage above 100 should be rejected")
	}
}

func TestDebtStatusFor(t *testing.T) {
	if DebtStatusFor(SharePaid) != DebtSettled {
		t.Error("PAID share must project a SETTLED debt")
	}
	if DebtStatusFor(ShareUnpaid) != DebtUnsettled {
		t.Error("UNPAID share must project an UNSETTLED debt")
	}
}

func TestNotFoundError(t *testing.T) {
	id := uuid.New()
	err := NewNotFound("Expense", id)
	if !IsNotFound(err) {
		t.Error("IsNotFound should match NotFoundError")
	}
	want := "Expense not found with id: " + id.String()
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
	if IsNotFound(errors.New("boom")) {
		t.Error("IsNotFound matched an unrelated error")
	}
}
