package model

// Rejection reasons emitted by the decision pipeline. Each gate produces a
// distinct reason for observability.
const (
	ReasonDuplicate             = "duplicate"
	ReasonInvalidListing        = "invalid_listing"
	ReasonConversionUnavailable = "conversion_unavailable"
	ReasonBudgetMissing         = "budget_missing"
	ReasonBudgetTooLow          = "budget_too_low"
	ReasonTooManyBids           = "too_many_bids"
	ReasonClientNotEligible     = "client_not_eligible"
	ReasonLowQuality            = "low_quality"
	ReasonAgreementFailed       = "agreement_failed"
	ReasonDailyLimitReached     = "daily_limit_reached"
)

// Outcome is the terminal classification of a processed listing.
type Outcome string

const (
	OutcomeRejected  Outcome = "REJECTED"
	OutcomeEligible  Outcome = "ELIGIBLE"
	OutcomeSubmitted Outcome = "SUBMITTED"
	OutcomeFailed    Outcome = "FAILED"
)

// ScoringResult is the scorer's derived output. Never persisted.
type ScoringResult struct {
	QualityScore    float64 // 0-100
	PriorityScore   float64
	RejectionReason string // empty when the listing passes the quality gate
}

// BidDecision is the tagged outcome of the decision engine for one listing.
type BidDecision struct {
	ListingID    int64
	Outcome      Outcome
	Reason       string  // set for OutcomeRejected
	Amount       float64 // set for OutcomeEligible / OutcomeSubmitted
	CurrencyCode string
	BidID        int64 // set for OutcomeSubmitted
	Err          error // set for OutcomeFailed
}

// Rejected builds a terminal rejection decision.
func Rejected(listingID int64, reason string) BidDecision {
	return BidDecision{ListingID: listingID, Outcome: OutcomeRejected, Reason: reason}
}

// Eligible builds a pre-submission decision carrying the priced bid.
func Eligible(listingID int64, amount float64, currency string) BidDecision {
	return BidDecision{ListingID: listingID, Outcome: OutcomeEligible, Amount: amount, CurrencyCode: currency}
}

// Submitted builds a terminal success decision.
func Submitted(listingID int64, amount float64, currency string, bidID int64) BidDecision {
	return BidDecision{ListingID: listingID, Outcome: OutcomeSubmitted, Amount: amount, CurrencyCode: currency, BidID: bidID}
}

// Failed builds a terminal submission-failure decision. The listing is not
// retried within the same cycle.
func Failed(listingID int64, err error) BidDecision {
	return BidDecision{ListingID: listingID, Outcome: OutcomeFailed, Err: err}
}
