package core

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationInput is one member's requested portion of an expense,
// expressed either as a percentage of the total or as an absolute amount.
// When both are present the amount wins and the percentage is re-derived.
type AllocationInput struct {
	UserID     uuid.UUID
	Percentage *decimal.Decimal
	Amount     *decimal.Decimal
}

// AllocateShares normalizes allocation inputs against the expense amount:
// every returned share carries both a percentage and a concrete amount.
//
// Explicit amounts are kept as supplied and their percentage derived via
// ImpliedPercentage; percentage-only inputs get their amount derived via
// ProportionalAmount. The allocator does not force the amounts to sum to
// the expense total: rounding may leave a residual of up to one cent per
// share, which CheckBillConsistency tolerates rather than corrects.
//
// Pure function: persistence and debt derivation are the caller's job.
func AllocateShares(total decimal.Decimal, inputs []AllocationInput) ([]Share, error) {
	if total.IsNegative() {
		return nil, &ValidationError{Field: "amount", Reason: "must not be negative"}
	}

	seen := make(map[uuid.UUID]struct{}, len(inputs))
	shares := make([]Share, 0, len(inputs))

	for _, in := range inputs {
		if in.UserID == uuid.Nil {
			return nil, &ValidationError{Field: "user_id", Reason: "required"}
		}
		if _, dup := seen[in.UserID]; dup {
			return nil, &ValidationError{
				Field:  "user_id",
				Reason: fmt.Sprintf("duplicate allocation for user %s", in.UserID),
			}
		}
		seen[in.UserID] = struct{}{}

		share := Share{
			UserID: in.UserID,
			Status: ShareUnpaid,
		}

		switch {
		case in.Amount != nil:
			if in.Amount.IsNegative() {
				return nil, &ValidationError{Field: "amount", Reason: "must not be negative"}
			}
			share.Amount = *in.Amount
			share.AmountFixed = true
			share.Percentage = ImpliedPercentage(*in.Amount, total)
		case in.Percentage != nil:
			if in.Percentage.IsNegative() || in.Percentage.GreaterThan(hundred) {
				return nil, &ValidationError{Field: "percentage", Reason: "must be between 0 and 100"}
			}
			share.Percentage = *in.Percentage
			share.Amount = ProportionalAmount(total, *in.Percentage)
		default:
			return nil, &ValidationError{
				Field:  "allocation",
				Reason: fmt.Sprintf("user %s has neither percentage nor amount", in.UserID),
			}
		}

		shares = append(shares, share)
	}

	return shares, nil
}

// Reproportion recomputes share amounts after the expense amount changed.
// Percentage-based shares are re-derived against the new total;
// amount-based shares keep their absolute amount but have their recorded
// percentage refreshed so reads stay coherent.
func Reproportion(newTotal decimal.Decimal, shares []Share) []Share {
	out := make([]Share, len(shares))
	for i, s := range shares {
		if s.AmountFixed {
			s.Percentage = ImpliedPercentage(s.Amount, newTotal)
		} else {
			s.Amount = ProportionalAmount(newTotal, s.Percentage)
		}
		out[i] = s
	}
	return out
}

// ShareSum is the total of the normalized share amounts.
func ShareSum(shares []Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}
