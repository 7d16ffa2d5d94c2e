package budget

import "BidSentinel/internal/model"

// Gate enforces the minimum-budget and competition policies. It runs before
// the trust analyzer so hopeless listings never trigger a client lookup.
type Gate struct {
	CompetitionCeiling int
}

// Check returns a rejection reason, or "" when the listing passes. The three
// checks are independent and each produces a distinct reason.
// The normalized minimum and the floor are in the same unit per the currency
// policy. Elite listings may omit an explicit minimum; the elite pricing track
// supplies its own default amount.
func (g *Gate) Check(normalizedMin, floor float64, bidCount int, elite bool) string {
	if normalizedMin <= 0 && !elite {
		return model.ReasonBudgetMissing
	}
	if normalizedMin > 0 && normalizedMin < floor {
		return model.ReasonBudgetTooLow
	}
	if g.CompetitionCeiling > 0 && bidCount > g.CompetitionCeiling {
		return model.ReasonTooManyBids
	}
	return ""
}
