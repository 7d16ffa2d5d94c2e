package budget

import (
	"testing"

	"BidSentinel/internal/model"
)

func TestCheck(t *testing.T) {
	g := &Gate{CompetitionCeiling: 20}

	tests := []struct {
		name          string
		normalizedMin float64
		floor         float64
		bidCount      int
		elite         bool
		want          string
	}{
		{"passes at floor", 100, 100, 5, false, ""},
		{"passes above floor", 250, 100, 5, false, ""},
		{"below floor", 30, 100, 0, false, model.ReasonBudgetTooLow},
		{"missing budget", 0, 100, 0, false, model.ReasonBudgetMissing},
		{"missing budget elite", 0, 100, 0, true, ""},
		{"elite below floor still rejected", 30, 100, 0, true, model.ReasonBudgetTooLow},
		{"too many bids", 500, 100, 21, false, model.ReasonTooManyBids},
		{"at competition ceiling", 500, 100, 20, false, ""},
		{"local floor", 15000, 12000, 3, false, ""},
		{"below local floor", 8000, 12000, 3, false, model.ReasonBudgetTooLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Check(tt.normalizedMin, tt.floor, tt.bidCount, tt.elite)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCheck_NoCeiling(t *testing.T) {
	g := &Gate{}
	if got := g.Check(500, 100, 9999, false); got != "" {
		t.Errorf("zero ceiling must disable the competition check, got %q", got)
	}
}
