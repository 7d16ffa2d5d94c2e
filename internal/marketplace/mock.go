package marketplace

import (
	"context"
	"fmt"

	"BidSentinel/internal/model"
)

// MockClient returns controllable fixed data for development and testing.
type MockClient struct {
	Listings   []model.Listing
	FetchErr   error
	Profiles   map[int64]*model.ClientProfile
	ProfileErr error
	Rates      map[string]float64

	Signed    map[string]bool // "listingID/kind" -> signed
	StatusErr error
	SignErr   error

	NextBidID int64
	SubmitErr error
	Submitted []BidRequest
}

func agreementKey(listingID int64, kind model.AgreementKind) string {
	return fmt.Sprintf("%d/%s", listingID, kind)
}

func (m *MockClient) FetchActiveListings(_ context.Context, _ int) ([]model.Listing, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.Listings, nil
}

func (m *MockClient) FetchClientProfile(_ context.Context, clientRef int64) (*model.ClientProfile, error) {
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	if p, ok := m.Profiles[clientRef]; ok {
		return p, nil
	}
	return &model.ClientProfile{Rating: 4.5, PaymentVerified: true}, nil
}

func (m *MockClient) SubmitBid(_ context.Context, req BidRequest) (int64, error) {
	if m.SubmitErr != nil {
		return 0, m.SubmitErr
	}
	m.Submitted = append(m.Submitted, req)
	m.NextBidID++
	return m.NextBidID, nil
}

func (m *MockClient) AgreementStatus(_ context.Context, listingID int64, kind model.AgreementKind) (bool, error) {
	if m.StatusErr != nil {
		return false, m.StatusErr
	}
	return m.Signed[agreementKey(listingID, kind)], nil
}

func (m *MockClient) SignAgreement(_ context.Context, listingID int64, kind model.AgreementKind) error {
	if m.SignErr != nil {
		return m.SignErr
	}
	if m.Signed == nil {
		m.Signed = make(map[string]bool)
	}
	m.Signed[agreementKey(listingID, kind)] = true
	return nil
}

func (m *MockClient) FetchCurrencyRates(_ context.Context) (map[string]float64, error) {
	return m.Rates, nil
}
