package model

import "time"

// CycleState is the cross-cycle bookkeeping that makes repeated runs safe and
// idempotent. Owned exclusively by the state manager; external readers get
// copies, never the live value.
type CycleState struct {
	ProcessedListingIDs []int64   `json:"processed_listing_ids"` // rolling, oldest first
	BidsPlacedToday     int       `json:"bids_placed_today"`
	LastResetDate       string    `json:"last_reset_date"` // UTC date, 2006-01-02
	ConsecutiveErrors   int       `json:"consecutive_errors"`
	TotalBids           int       `json:"total_bids"`
	TotalRejected       int       `json:"total_rejected"`
	TotalFailed         int       `json:"total_failed"`
	DedupSkips          int       `json:"dedup_skips"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// BidRecord is one entry in the rolling observability window of recent bids.
type BidRecord struct {
	ListingID int64     `json:"listing_id"`
	Title     string    `json:"title"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	BidID     int64     `json:"bid_id"`
	Status    string    `json:"status"` // "success" or "failed"
	PlacedAt  time.Time `json:"placed_at"`
}
