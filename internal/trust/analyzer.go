package trust

import (
	"fmt"

	"BidSentinel/internal/model"
)

// Options configures the analyzer. All knobs are policy, not mechanics.
type Options struct {
	RatingFloor          float64
	RequireIdentity      bool
	RejectPhoneEmailOnly bool
	// FailClosedOnLookupError flips the deliberate fail-open default: by
	// policy, a failed client lookup keeps the listing eligible rather than
	// starving the pipeline on transient errors.
	FailClosedOnLookupError bool
}

// Result is the analyzer's verdict for one client.
type Result struct {
	Eligible bool
	Reason   string // human-readable rejection reason
}

// Analyzer evaluates a client's verification and reputation signals against
// the variant selected by the listing's currency policy.
type Analyzer struct {
	opts Options
}

func NewAnalyzer(opts Options) *Analyzer {
	return &Analyzer{opts: opts}
}

// FailOpen reports whether a lookup error should keep the client eligible.
func (a *Analyzer) FailOpen() bool { return !a.opts.FailClosedOnLookupError }

// Evaluate applies the trust variant to a fetched profile.
func (a *Analyzer) Evaluate(p *model.ClientProfile, variant model.TrustVariant) Result {
	switch variant {
	case model.TrustInverted:
		return a.evaluateInverted(p)
	default:
		return a.evaluateStrict(p)
	}
}

func (a *Analyzer) evaluateStrict(p *model.ClientProfile) Result {
	if !p.PaymentVerified && !p.DepositMade {
		return Result{Reason: "client has neither payment verification nor a deposit"}
	}
	if a.opts.RequireIdentity && !p.IdentityVerified {
		return Result{Reason: "client identity not verified"}
	}
	if a.opts.RejectPhoneEmailOnly && phoneEmailOnly(p) {
		return Result{Reason: "client has only phone/email verification"}
	}
	// Unrated clients pass; a rating only counts against a client once earned.
	if p.Rating > 0 && p.Rating < a.opts.RatingFloor {
		return Result{Reason: fmt.Sprintf("client rating %.1f below floor %.1f", p.Rating, a.opts.RatingFloor)}
	}
	return Result{Eligible: true}
}

// evaluateInverted deliberately targets newer clients with no payment
// verification, no deposit and no stored payment method, under a distinct
// risk model used in specific lower-budget currency markets.
func (a *Analyzer) evaluateInverted(p *model.ClientProfile) Result {
	if p.PaymentVerified || p.DepositMade || p.PaymentMethodVerified {
		return Result{Reason: "verified client excluded by inverted policy"}
	}
	if p.Rating > 0 && p.Rating < a.opts.RatingFloor {
		return Result{Reason: fmt.Sprintf("client rating %.1f below floor %.1f", p.Rating, a.opts.RatingFloor)}
	}
	return Result{Eligible: true}
}

func phoneEmailOnly(p *model.ClientProfile) bool {
	return (p.PhoneVerified || p.EmailVerified) &&
		!p.PaymentVerified && !p.DepositMade && !p.PaymentMethodVerified && !p.IdentityVerified
}

// ClientScore reduces a profile to a 0..1 reputation factor for the scorer.
// A nil profile (fail-open lookup) scores neutral.
func ClientScore(p *model.ClientProfile) float64 {
	if p == nil {
		return 0.5
	}
	score := 0.7*clamp01(p.Rating/5.0) + 0.3*clamp01(p.CompletionRate)
	return clamp01(score)
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
