package pricing

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"BidSentinel/internal/currency"
	"BidSentinel/internal/model"
)

// Bid is a priced bid ready for submission. The currency is always consistent
// with the listing's currency policy; cross-currency bidding is not permitted.
type Bid struct {
	Amount       float64
	CurrencyCode string
	PeriodDays   int
	Description  string
}

// Pricer computes bid amounts. The rule is always bid at the listing's minimum
// budget: the goal is win-rate via lowest acceptable price, never a
// "competitive multiplier" above minimum.
type Pricer struct {
	Normalizer         *currency.Normalizer
	EliteDefaultAmount float64
	EliteMultiplier    float64
	Templates          []string
}

// Price computes the bid for a listing. Face-value currencies bid the minimum
// unconverted in the listing's own currency; all others bid the minimum
// converted to the base currency, rounded to two decimals. Elite listings with
// no explicit minimum fall back to the elite default amount times the category
// multiplier.
func (p *Pricer) Price(l *model.Listing, elite bool) (Bid, error) {
	bid := Bid{
		PeriodDays:  estimatePeriodDays(l.BudgetMin),
		Description: p.describe(l),
	}

	if l.BudgetMin <= 0 {
		if !elite {
			return Bid{}, fmt.Errorf("pricing: listing %d has no minimum budget", l.ID)
		}
		bid.Amount = currency.Round2(p.EliteDefaultAmount * p.EliteMultiplier)
		bid.CurrencyCode = p.Normalizer.Base()
		bid.PeriodDays = estimatePeriodDays(bid.Amount)
		return bid, nil
	}

	if p.Normalizer.FaceValue(l.CurrencyCode) {
		bid.Amount = l.BudgetMin
		bid.CurrencyCode = l.CurrencyCode
		return bid, nil
	}

	amount, err := p.Normalizer.Normalize(l.BudgetMin, l.CurrencyCode)
	if err != nil {
		return Bid{}, err
	}
	bid.Amount = amount
	bid.CurrencyCode = p.Normalizer.Base()
	return bid, nil
}

func (p *Pricer) describe(l *model.Listing) string {
	if len(p.Templates) == 0 {
		return ""
	}
	tpl := p.Templates[rand.IntN(len(p.Templates))]
	msg := strings.ReplaceAll(tpl, "{title}", l.Title)
	msg = strings.ReplaceAll(msg, "{days}", fmt.Sprintf("%d", estimatePeriodDays(l.BudgetMin)))
	return msg
}

// estimatePeriodDays maps a budget bracket to a delivery period.
func estimatePeriodDays(budgetMin float64) int {
	switch {
	case budgetMin < 100:
		return 3
	case budgetMin < 200:
		return 5
	case budgetMin < 500:
		return 7
	case budgetMin < 1000:
		return 10
	default:
		return 14
	}
}
