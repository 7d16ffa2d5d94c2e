package model

import "time"

// AgreementKind identifies a legal agreement a listing may require before bidding.
type AgreementKind string

const (
	AgreementNDA        AgreementKind = "nda"
	AgreementIPContract AgreementKind = "ip_contract"
)

// Listing is a single open job posting fetched from the marketplace.
// Immutable once fetched within a cycle.
type Listing struct {
	ID           int64
	Title        string
	Description  string
	BudgetMin    float64
	BudgetMax    float64
	CurrencyCode string
	BidCount     int
	PostedAt     time.Time
	RequiresNDA  bool
	RequiresIP   bool
	Featured     bool
	Urgent       bool
	Sealed       bool
	Qualified    bool
	ClientRef    int64
}

// RequiredAgreements returns the agreements that must be signed before bidding.
func (l *Listing) RequiredAgreements() []AgreementKind {
	var kinds []AgreementKind
	if l.RequiresNDA {
		kinds = append(kinds, AgreementNDA)
	}
	if l.RequiresIP {
		kinds = append(kinds, AgreementIPContract)
	}
	return kinds
}

// Elite reports whether the listing belongs to the distinguished bidding track:
// budget at or above the elite bracket, or carrying a paid upgrade flag.
func (l *Listing) Elite(budgetThreshold float64) bool {
	if budgetThreshold > 0 && l.BudgetMin >= budgetThreshold {
		return true
	}
	return l.Featured || l.Urgent || l.Sealed || l.Qualified
}

// ClientProfile holds a client's verification and reputation signals.
// Fetched on demand per listing; never cached across cycles.
type ClientProfile struct {
	Rating                float64
	CompletionRate        float64
	ProjectsPosted        int
	PaymentVerified       bool
	DepositMade           bool
	PaymentMethodVerified bool
	IdentityVerified      bool
	PhoneVerified         bool
	EmailVerified         bool
}
