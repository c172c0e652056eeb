package core

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestDeriveDebts(t *testing.T) {
	payer := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	expenseID := uuid.New()

	shares := []Share{
		{ExpenseID: expenseID, UserID: payer, Percentage: dec("25"), Amount: dec("25")},
		{ExpenseID: expenseID, UserID: bob, Percentage: dec("25"), Amount: dec("25")},
		{ExpenseID: expenseID, UserID: carol, Percentage: dec("50"), Amount: dec("50"), Status: SharePaid},
	}
	shares[0].Status = ShareUnpaid
	shares[1].Status = ShareUnpaid

	debts, err := DeriveDebts(shares, payer, DerivePolicy{})
	if err != nil {
		t.Fatalf("DeriveDebts: %v", err)
	}
	if len(debts) != 2 {
		t.Fatalf("got %d debts, want 2 (payer excluded)", len(debts))
	}

	for _, d := range debts {
		if d.FromUser == d.ToUser {
			t.Error("self-debt emitted")
		}
		if d.ToUser != payer {
			t.Errorf("debt directed to %s, want payer %s", d.ToUser, payer)
		}
		if d.ExpenseID != expenseID {
			t.Errorf("debt expense = %s, want %s", d.ExpenseID, expenseID)
		}
	}

	if !debts[0].Amount.Equal(dec("25")) || debts[0].Status != DebtUnsettled {
		t.Errorf("bob's debt = %s %s, want 25 UNSETTLED", debts[0].Amount, debts[0].Status)
	}
	if !debts[1].Amount.Equal(dec("50")) || debts[1].Status != DebtSettled {
		t.Errorf("carol's debt = %s %s, want 50 SETTLED (paid share)", debts[1].Amount, debts[1].Status)
	}
}

func TestDeriveDebtsMissingPayer(t *testing.T) {
	shares := []Share{{UserID: uuid.New(), Amount: dec("10"), Status: ShareUnpaid}}
	_, err := DeriveDebts(shares, uuid.Nil, DerivePolicy{})
	if !errors.Is(err, ErrMissingPayer) {
		t.Fatalf("expected ErrMissingPayer, got %v", err)
	}
}

func TestDeriveDebtsZeroAmountPolicy(t *testing.T) {
	payer := uuid.New()
	freeloader := uuid.New()
	shares := []Share{
		{UserID: payer, Amount: dec("100"), Status: ShareUnpaid},
		{UserID: freeloader, Amount: dec("0"), Status: ShareUnpaid},
	}

	debts, err := DeriveDebts(shares, payer, DerivePolicy{})
	if err != nil {
		t.Fatalf("DeriveDebts: %v", err)
	}
	if len(debts) != 0 {
		t.Fatalf("default policy should skip zero-amount shares, got %d debts", len(debts))
	}

	debts, err = DeriveDebts(shares, payer, DerivePolicy{EmitZeroAmountDebts: true})
	if err != nil {
		t.Fatalf("DeriveDebts: %v", err)
	}
	if len(debts) != 1 || !debts[0].Amount.IsZero() {
		t.Fatalf("emit policy should keep the zero-amount debt, got %v", debts)
	}
}

func TestDeriveDebtsIdempotent(t *testing.T) {
	payer := uuid.New()
	bob := uuid.New()
	shares := []Share{
		{UserID: payer, Amount: dec("60"), Status: ShareUnpaid},
		{UserID: bob, Amount: dec("40"), Status: ShareUnpaid},
	}

	first, err := DeriveDebts(shares, payer, DerivePolicy{})
	if err != nil {
		t.Fatalf("DeriveDebts: %v", err)
	}
	second, err := DeriveDebts(shares, payer, DerivePolicy{})
	if err != nil {
		t.Fatalf("DeriveDebts: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("derivation not stable: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].FromUser != second[i].FromUser ||
			!first[i].Amount.Equal(second[i].Amount) ||
			first[i].Status != second[i].Status {
			t.Errorf("debt %d differs between derivations", i)
		}
	}
}
