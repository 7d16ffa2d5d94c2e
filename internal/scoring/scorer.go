package scoring

import (
	"time"

	"BidSentinel/internal/model"
)

// Weights for the four quality factors. Must sum to 1.
type Weights struct {
	Budget      float64
	Description float64
	Client      float64
	Competition float64
}

// Scorer produces the 0-100 quality score and the bid-ranking priority score.
type Scorer struct {
	Weights            Weights
	QualityThreshold   float64
	AcceptAll          bool // disables the quality gate: SCORE never rejects
	WordCeiling        int
	CompetitionCeiling int
	EarlyBirdWindow    time.Duration
	EarlyBirdBoost     float64
	EliteBoost         float64

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Input is everything the scorer needs for one listing. The normalized budget
// and floor arrive in the same unit per the currency policy; no comparison
// here mixes currencies.
type Input struct {
	Listing       *model.Listing
	NormalizedMin float64
	Floor         float64
	Ideal         float64
	ClientScore   float64 // 0..1, from the trust analyzer
	Elite         bool
}

// Score computes the weighted quality score and the priority score.
// QualityScore is always within [0, 100].
func (s *Scorer) Score(in Input) (model.ScoringResult, []Factor) {
	fb := budgetAdequacy(in.NormalizedMin, in.Floor, in.Ideal, s.Weights.Budget)
	fd := descriptionAdequacy(in.Listing.Description, s.WordCeiling, s.Weights.Description)
	fc := clientReputation(in.ClientScore, s.Weights.Client)
	fx := competitionRoom(in.Listing.BidCount, s.CompetitionCeiling, s.Weights.Competition)

	factors := []Factor{fb, fd, fc, fx}

	quality := (fb.Weighted + fd.Weighted + fc.Weighted + fx.Weighted) * 100
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}

	// Priority layers the quality score with freshness and elite boosts. It is
	// monotonic in quality: boosts are additive and non-negative.
	priority := quality
	if in.Elite {
		priority += s.EliteBoost
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if !in.Listing.PostedAt.IsZero() && now.Sub(in.Listing.PostedAt) <= s.EarlyBirdWindow {
		priority += s.EarlyBirdBoost
	}

	result := model.ScoringResult{QualityScore: quality, PriorityScore: priority}
	if !s.AcceptAll && quality < s.QualityThreshold {
		result.RejectionReason = model.ReasonLowQuality
	}
	return result, factors
}
