package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BidSentinel/internal/model"
)

func TestFetchActiveListings_ParsesPayload(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Freelancer-OAuth-V1")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"result": {
				"projects": [{
					"id": 42,
					"title": "Scraper",
					"description": "Scrape product data",
					"owner_id": 9,
					"budget": {"minimum": 250, "maximum": 750},
					"currency": {"code": "USD"},
					"bid_stats": {"bid_count": 4},
					"time_submitted": 1735689600,
					"upgrades": {"featured": true, "NDA": true}
				}]
			}
		}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret-token", 0)
	listings, err := c.FetchActiveListings(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, int64(42), l.ID)
	assert.Equal(t, "Scraper", l.Title)
	assert.Equal(t, 250.0, l.BudgetMin)
	assert.Equal(t, 750.0, l.BudgetMax)
	assert.Equal(t, "USD", l.CurrencyCode)
	assert.Equal(t, 4, l.BidCount)
	assert.Equal(t, int64(9), l.ClientRef)
	assert.True(t, l.Featured)
	assert.True(t, l.RequiresNDA)
	assert.False(t, l.RequiresIP)
	assert.Equal(t, "secret-token", gotAuth)
}

func TestFetchClientProfile_ParsesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"result": {
				"status": {"payment_verified": true, "identity_verified": true},
				"employer_reputation": {
					"entire_history": {"overall": 4.7, "complete": 0.93, "projects": 12}
				}
			}
		}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "t", 0)
	p, err := c.FetchClientProfile(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 4.7, p.Rating)
	assert.Equal(t, 0.93, p.CompletionRate)
	assert.Equal(t, 12, p.ProjectsPosted)
	assert.True(t, p.PaymentVerified)
	assert.True(t, p.IdentityVerified)
	assert.False(t, p.DepositMade)
}

func TestSubmitBid(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"result": {"id": 555}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "t", 0)
	bidID, err := c.SubmitBid(context.Background(), BidRequest{
		ListingID:  42,
		BidderID:   777,
		Amount:     250,
		PeriodDays: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(555), bidID)
	assert.Equal(t, float64(42), gotPayload["project_id"])
	assert.Equal(t, float64(777), gotPayload["bidder_id"])
	assert.Equal(t, float64(100), gotPayload["milestone_percentage"])
}

func TestSubmitBid_NoBidID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": {}, "message": "already bid"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "t", 0)
	_, err := c.SubmitBid(context.Background(), BidRequest{ListingID: 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already bid")
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"unauthorized", http.StatusUnauthorized, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrAuth)
		}},
		{"forbidden", http.StatusForbidden, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrAuth)
		}},
		{"rate limited", http.StatusTooManyRequests, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrRateLimited)
			var te *TransportError
			assert.True(t, errors.As(err, &te), "throttling must count as a transport error")
		}},
		{"server error", http.StatusInternalServerError, func(t *testing.T, err error) {
			assert.NotErrorIs(t, err, ErrAuth)
			assert.NotErrorIs(t, err, ErrRateLimited)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL, "t", 0)
			_, err := c.FetchActiveListings(context.Background(), 10)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestTransportError(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", "t", 0)
	_, err := c.FetchActiveListings(context.Background(), 10)
	require.Error(t, err)

	var te *TransportError
	assert.True(t, errors.As(err, &te), "connection failures must surface as TransportError")
	assert.NotErrorIs(t, err, ErrAuth)
}

func TestFetchCurrencyRates_SkipsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"result": {
				"currencies": [
					{"code": "USD", "exchange_rate": 1.0},
					{"code": "INR", "exchange_rate": 83.0},
					{"code": "", "exchange_rate": 2.0},
					{"code": "BAD", "exchange_rate": 0}
				]
			}
		}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "t", 0)
	rates, err := c.FetchCurrencyRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 1.0, "INR": 83.0}, rates)
}

func TestMockClient_Agreements(t *testing.T) {
	m := &MockClient{}
	signed, err := m.AgreementStatus(context.Background(), 1, model.AgreementNDA)
	require.NoError(t, err)
	assert.False(t, signed)

	require.NoError(t, m.SignAgreement(context.Background(), 1, model.AgreementNDA))
	signed, err = m.AgreementStatus(context.Background(), 1, model.AgreementNDA)
	require.NoError(t, err)
	assert.True(t, signed)
}
