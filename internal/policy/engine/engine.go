package engine

import (
	"math"

	"github.com/smallbiznis/incentra/internal/policy/domain"
)

// Result is the outcome of computing the incentive for a deal amount.
type Result struct {
	Amount   float64
	Policy   *domain.IncentivePolicy
	Matched  bool
	BonusHit bool
}

// ComputeIncentive resolves the applicable policy for a deal amount and
// returns the rounded incentive. Selection among applicable active
// policies prefers the narrowest amount range; remaining ties go to the
// most recently created policy, then the highest ID.
func ComputeIncentive(amount float64, policies []domain.IncentivePolicy) (Result, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Result{}, domain.ErrInvalidAmount
	}

	selected := Select(amount, policies)
	if selected == nil {
		return Result{Amount: 0}, nil
	}

	incentive := amount * selected.CommissionRate / 100
	bonusHit := false
	if selected.BonusThreshold != nil && amount >= *selected.BonusThreshold {
		if selected.BonusAmount != nil {
			incentive += *selected.BonusAmount
		}
		bonusHit = true
	}

	return Result{
		Amount:   RoundHalfUp(incentive),
		Policy:   selected,
		Matched:  true,
		BonusHit: bonusHit,
	}, nil
}

// Select returns the policy that governs the amount, or nil when no
// active policy range contains it.
func Select(amount float64, policies []domain.IncentivePolicy) *domain.IncentivePolicy {
	var best *domain.IncentivePolicy
	for i := range policies {
		candidate := &policies[i]
		if !candidate.Active || !candidate.AppliesTo(amount) {
			continue
		}
		if best == nil || narrower(candidate, best) {
			best = candidate
		}
	}
	return best
}

// narrower reports whether a should be selected over b.
func narrower(a, b *domain.IncentivePolicy) bool {
	widthA, widthB := rangeWidth(a), rangeWidth(b)
	if widthA != widthB {
		return widthA < widthB
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func rangeWidth(p *domain.IncentivePolicy) float64 {
	if p.MinDealAmount == nil || p.MaxDealAmount == nil {
		return math.Inf(1)
	}
	return *p.MaxDealAmount - *p.MinDealAmount
}

// RoundHalfUp rounds to two decimals with ties going away from zero
// toward the larger value, matching money arithmetic elsewhere in the
// ledger.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
