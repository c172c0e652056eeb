package core

import "github.com/google/uuid"

// DerivePolicy controls edge-case behavior of debt derivation.
type DerivePolicy struct {
	// EmitZeroAmountDebts keeps debts whose share amount is exactly zero.
	// Off by default: a zero debt carries no information in any read path.
	EmitZeroAmountDebts bool
}

// DeriveDebts projects normalized shares into the pairwise debt set for
// an expense: one debt per non-payer share, owed to the payer, settled
// iff the originating share is paid. The payer's own share never emits a
// debt.
//
// Invariant: a debt exists for user U iff U has a share, U != payer and
// (unless the policy says otherwise) U's share amount is > 0.
func DeriveDebts(shares []Share, payer uuid.UUID, policy DerivePolicy) ([]Debt, error) {
	if payer == uuid.Nil {
		return nil, ErrMissingPayer
	}

	debts := make([]Debt, 0, len(shares))
	for _, s := range shares {
		if s.UserID == payer {
			continue
		}
		if s.Amount.IsZero() && !policy.EmitZeroAmountDebts {
			continue
		}
		debts = append(debts, Debt{
			ExpenseID: s.ExpenseID,
			FromUser:  s.UserID,
			ToUser:    payer,
			Amount:    s.Amount,
			Status:    DebtStatusFor(s.Status),
		})
	}
	return debts, nil
}
