package marketplace

import (
	"context"
	"errors"
	"fmt"

	"BidSentinel/internal/model"
)

// ErrAuth indicates the marketplace rejected our credentials. Fatal: the run
// must stop rather than risk cascading submission failures.
var ErrAuth = errors.New("marketplace: authentication failed")

// ErrRateLimited indicates the marketplace throttled us (HTTP 429). Treated
// like a transport error for back-off purposes.
var ErrRateLimited = errors.New("marketplace: rate limited")

// TransportError wraps network failures, timeouts and throttling. The
// scheduler counts these toward its back-off threshold.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("marketplace: %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// BidRequest carries everything needed to submit one bid.
type BidRequest struct {
	ListingID    int64
	BidderID     int64
	Amount       float64
	CurrencyCode string
	PeriodDays   int
	Description  string
}

// Client is the narrow interface to the marketplace API.
type Client interface {
	FetchActiveListings(ctx context.Context, limit int) ([]model.Listing, error)
	FetchClientProfile(ctx context.Context, clientRef int64) (*model.ClientProfile, error)
	SubmitBid(ctx context.Context, req BidRequest) (int64, error)
	AgreementStatus(ctx context.Context, listingID int64, kind model.AgreementKind) (bool, error)
	SignAgreement(ctx context.Context, listingID int64, kind model.AgreementKind) error
	FetchCurrencyRates(ctx context.Context) (map[string]float64, error)
}
