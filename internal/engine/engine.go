package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"BidSentinel/internal/agreement"
	"BidSentinel/internal/budget"
	"BidSentinel/internal/currency"
	"BidSentinel/internal/marketplace"
	"BidSentinel/internal/model"
	"BidSentinel/internal/pricing"
	"BidSentinel/internal/scoring"
	"BidSentinel/internal/state"
	"BidSentinel/internal/store"
	"BidSentinel/internal/trust"
)

// Deps wires the engine's collaborators and policy knobs.
type Deps struct {
	Client     marketplace.Client
	Normalizer *currency.Normalizer
	Gate       *budget.Gate
	Analyzer   *trust.Analyzer
	Scorer     *scoring.Scorer
	Pricer     *pricing.Pricer
	Agreements *agreement.Handler
	State      *state.Manager
	Store      store.Store
	PolicyFor  func(code string) model.CurrencyPolicy

	BidderID             int64
	EliteBudgetThreshold float64
	IdealBudget          float64
	DefaultFloor         float64
}

// Engine orchestrates the per-listing filter chain into an
// accept/reject/bid outcome. Stages run strictly sequentially with no
// backtracking; any stage may terminate the listing early.
type Engine struct {
	Deps
	log zerolog.Logger
}

func New(deps Deps, log zerolog.Logger) *Engine {
	return &Engine{Deps: deps, log: log.With().Str("component", "engine").Logger()}
}

// ProcessListing runs one listing through the full pipeline:
// DEDUP -> VALIDATE -> CURRENCY-NORMALIZE -> BUDGET-GATE -> TRUST-ANALYZE ->
// SCORE -> AGREEMENT-CHECK -> DAILY-GATE -> SUBMIT.
//
// All per-listing errors are recovered locally and reduce to a Rejected or
// Failed decision. The returned error is non-nil only for authentication
// failures, which must stop the run.
func (e *Engine) ProcessListing(ctx context.Context, l *model.Listing) (model.BidDecision, error) {
	// DEDUP-CHECK: silent skip, counted but not alarmed.
	if e.State.Seen(l.ID) {
		e.State.MarkDedupSkip()
		e.log.Debug().Int64("listing_id", l.ID).Msg("duplicate listing skipped")
		return model.Rejected(l.ID, model.ReasonDuplicate), nil
	}

	elite := l.Elite(e.EliteBudgetThreshold)

	// VALIDATE: malformed input never reaches scoring.
	if reason := validate(l, elite); reason != "" {
		return e.reject(l, reason, "validation failed"), nil
	}

	// Once the daily cap is hit, eligible listings resolve without further
	// scoring or client lookups. They are not marked processed: the cap is
	// about the day, not the listing.
	if e.State.DailyCapReached() {
		e.State.RecordRejected()
		e.log.Info().Int64("listing_id", l.ID).Str("reason", model.ReasonDailyLimitReached).
			Msg("listing rejected")
		return model.Rejected(l.ID, model.ReasonDailyLimitReached), nil
	}

	policy := e.PolicyFor(l.CurrencyCode)

	// CURRENCY-NORMALIZE
	var normalizedMin float64
	if l.BudgetMin > 0 {
		var err error
		normalizedMin, err = e.Normalizer.Normalize(l.BudgetMin, l.CurrencyCode)
		if err != nil {
			// No rate means non-eligible; a rate is never guessed. The next
			// rate refresh may supply one, so the listing stays out of the
			// dedup window and is reconsidered in a later cycle.
			return e.rejectTransient(l, model.ReasonConversionUnavailable, err.Error()), nil
		}
	}

	// BUDGET-GATE: runs before the trust analyzer so hopeless listings never
	// cost a client lookup.
	floor := e.floorFor(policy)
	if reason := e.Gate.Check(normalizedMin, floor, l.BidCount, elite); reason != "" {
		return e.reject(l, reason, fmt.Sprintf("normalized=%.2f floor=%.2f bids=%d", normalizedMin, floor, l.BidCount)), nil
	}

	// TRUST-ANALYZE
	profile, err := e.Client.FetchClientProfile(ctx, l.ClientRef)
	if err != nil {
		if errors.Is(err, marketplace.ErrAuth) {
			return model.BidDecision{}, err
		}
		if !e.Analyzer.FailOpen() {
			return e.reject(l, model.ReasonClientNotEligible, fmt.Sprintf("client lookup failed (fail-closed): %v", err)), nil
		}
		// Fail open by policy: a transient lookup error must not starve the
		// pipeline. The scorer sees a neutral client score.
		e.log.Warn().Int64("listing_id", l.ID).Err(err).Msg("client lookup failed, failing open")
		profile = nil
	}
	if profile != nil {
		verdict := e.Analyzer.Evaluate(profile, policy.TrustVariant)
		if !verdict.Eligible {
			return e.reject(l, model.ReasonClientNotEligible, verdict.Reason), nil
		}
	}

	// SCORE
	result, factors := e.Scorer.Score(scoring.Input{
		Listing:       l,
		NormalizedMin: normalizedMin,
		Floor:         floor,
		Ideal:         e.idealFor(policy),
		ClientScore:   trust.ClientScore(profile),
		Elite:         elite,
	})
	for _, f := range factors {
		e.log.Debug().Int64("listing_id", l.ID).Str("factor", f.Name).
			Float64("weighted", f.Weighted).Str("detail", f.Commentary).Msg("score factor")
	}
	if result.RejectionReason != "" {
		return e.reject(l, result.RejectionReason,
			fmt.Sprintf("quality=%.1f priority=%.1f", result.QualityScore, result.PriorityScore)), nil
	}

	// AGREEMENT-CHECK: failure is a hard skip for this listing, recorded
	// distinctly from a bid failure.
	if err := e.Agreements.EnsureSigned(ctx, l); err != nil {
		if errors.Is(err, marketplace.ErrAuth) {
			return model.BidDecision{}, err
		}
		return e.reject(l, model.ReasonAgreementFailed, err.Error()), nil
	}

	// RATE/DAILY-GATE: re-checked just before submission.
	if e.State.DailyCapReached() {
		e.State.RecordRejected()
		e.log.Info().Int64("listing_id", l.ID).Str("reason", model.ReasonDailyLimitReached).
			Msg("listing rejected")
		return model.Rejected(l.ID, model.ReasonDailyLimitReached), nil
	}

	// SUBMIT
	bid, err := e.Pricer.Price(l, elite)
	if err != nil {
		return e.rejectTransient(l, model.ReasonConversionUnavailable, err.Error()), nil
	}

	bidID, err := e.Client.SubmitBid(ctx, marketplace.BidRequest{
		ListingID:    l.ID,
		BidderID:     e.BidderID,
		Amount:       bid.Amount,
		CurrencyCode: bid.CurrencyCode,
		PeriodDays:   bid.PeriodDays,
		Description:  bid.Description,
	})
	if err != nil {
		if errors.Is(err, marketplace.ErrAuth) {
			return model.BidDecision{}, err
		}
		// Not marked processed: a failed submission may be retried in a
		// future independent cycle, never within this one.
		e.State.RecordFailed()
		e.recordBid(l, bid, 0, "failed")
		e.log.Error().Int64("listing_id", l.ID).Err(err).Msg("bid submission failed")
		return model.Failed(l.ID, err), nil
	}

	e.State.RecordSubmitted()
	e.State.MarkProcessed(l.ID)
	e.recordBid(l, bid, bidID, "success")
	e.log.Info().Int64("listing_id", l.ID).Int64("bid_id", bidID).
		Float64("amount", bid.Amount).Str("currency", bid.CurrencyCode).
		Float64("quality", result.QualityScore).Float64("priority", result.PriorityScore).
		Msg("bid submitted")
	return model.Submitted(l.ID, bid.Amount, bid.CurrencyCode, bidID), nil
}

// reject marks a policy rejection: deterministic, so the listing joins the
// dedup window and is never re-evaluated.
func (e *Engine) reject(l *model.Listing, reason, detail string) model.BidDecision {
	e.State.MarkProcessed(l.ID)
	return e.rejectTransient(l, reason, detail)
}

// rejectTransient records a rejection without adding the listing to the dedup
// window, for conditions that may clear between cycles.
func (e *Engine) rejectTransient(l *model.Listing, reason, detail string) model.BidDecision {
	e.State.RecordRejected()
	e.log.Info().Int64("listing_id", l.ID).Str("reason", reason).Str("detail", detail).
		Msg("listing rejected")
	return model.Rejected(l.ID, reason)
}

func (e *Engine) recordBid(l *model.Listing, bid pricing.Bid, bidID int64, status string) {
	rec := model.BidRecord{
		ListingID: l.ID,
		Title:     l.Title,
		Amount:    bid.Amount,
		Currency:  bid.CurrencyCode,
		BidID:     bidID,
		Status:    status,
		PlacedAt:  time.Now().UTC(),
	}
	if err := e.Store.RecordBid(rec); err != nil {
		e.log.Warn().Err(err).Msg("record bid failed")
	}
}

func (e *Engine) floorFor(policy model.CurrencyPolicy) float64 {
	if policy.MinimumBudget > 0 {
		return policy.MinimumBudget
	}
	return e.DefaultFloor
}

// idealFor returns the budget considered "fully adequate" for scoring, in the
// same unit the floor uses. Face-value markets scale the base-currency ideal
// by the ratio of their local floor to the default floor.
func (e *Engine) idealFor(policy model.CurrencyPolicy) float64 {
	if policy.FaceValue && e.DefaultFloor > 0 {
		return e.IdealBudget * (e.floorFor(policy) / e.DefaultFloor)
	}
	return e.IdealBudget
}

// validate rejects listings with structurally missing required fields before
// any further processing.
func validate(l *model.Listing, elite bool) string {
	if l.ID == 0 {
		return model.ReasonInvalidListing
	}
	if l.CurrencyCode == "" {
		return model.ReasonInvalidListing
	}
	if l.BudgetMin < 0 {
		return model.ReasonInvalidListing
	}
	if l.BudgetMin == 0 && l.BudgetMax == 0 && !elite {
		return model.ReasonInvalidListing
	}
	return ""
}
