package scoring

import (
	"fmt"
	"strings"
)

// Factor represents a single factor's contribution to the quality score.
type Factor struct {
	Name       string
	Value      float64 // 0..1
	Weight     float64
	Weighted   float64
	Commentary string
}

func makeFactor(name string, value, weight float64, commentary string) Factor {
	v := clamp01(value)
	return Factor{
		Name:       name,
		Value:      v,
		Weight:     weight,
		Weighted:   v * weight,
		Commentary: commentary,
	}
}

// budgetAdequacy scales from 0 at the minimum acceptable budget to 1 at the
// ideal budget. Budgets at or below the floor contribute nothing.
func budgetAdequacy(normalizedMin, floor, ideal float64, weight float64) Factor {
	var v float64
	if ideal > floor {
		v = (normalizedMin - floor) / (ideal - floor)
	}
	return makeFactor("budget_adequacy", v, weight,
		fmt.Sprintf("budget=%.2f floor=%.2f ideal=%.2f", normalizedMin, floor, ideal))
}

// descriptionAdequacy scales on word count up to the configured ceiling.
func descriptionAdequacy(description string, wordCeiling int, weight float64) Factor {
	words := len(strings.Fields(description))
	var v float64
	if wordCeiling > 0 {
		v = float64(words) / float64(wordCeiling)
	}
	return makeFactor("description_adequacy", v, weight, fmt.Sprintf("words=%d", words))
}

// clientReputation carries the trust analyzer's 0..1 client score through.
func clientReputation(clientScore float64, weight float64) Factor {
	return makeFactor("client_reputation", clientScore, weight,
		fmt.Sprintf("client_score=%.2f", clientScore))
}

// competitionRoom scores 1 minus competition pressure: fewer existing bids
// leave more room. Bid counts above the ceiling are rejected at the budget
// gate before scoring, not here.
func competitionRoom(bidCount, ceiling int, weight float64) Factor {
	var pressure float64
	if ceiling > 0 {
		pressure = clamp01(float64(bidCount) / float64(ceiling))
	}
	return makeFactor("competition_room", 1-pressure, weight,
		fmt.Sprintf("bids=%d ceiling=%d", bidCount, ceiling))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
