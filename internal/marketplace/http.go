package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"BidSentinel/internal/model"
)

// HTTPClient implements Client against the marketplace REST API.
type HTTPClient struct {
	BaseURL    string
	OAuthToken string
	Client     *http.Client
}

// NewHTTPClient creates a client with an explicit per-call timeout.
func NewHTTPClient(baseURL, oauthToken string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		BaseURL:    baseURL,
		OAuthToken: oauthToken,
		Client:     &http.Client{Timeout: timeout},
	}
}

// listingPayload is the expected JSON shape of one active project.
type listingPayload struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OwnerID     int64  `json:"owner_id"`
	Budget      struct {
		Minimum float64 `json:"minimum"`
		Maximum float64 `json:"maximum"`
	} `json:"budget"`
	Currency struct {
		Code string `json:"code"`
	} `json:"currency"`
	BidStats struct {
		BidCount int `json:"bid_count"`
	} `json:"bid_stats"`
	TimeSubmitted int64 `json:"time_submitted"`
	Upgrades      struct {
		Featured   bool `json:"featured"`
		Urgent     bool `json:"urgent"`
		Sealed     bool `json:"sealed"`
		NDA        bool `json:"NDA"`
		IPContract bool `json:"ip_contract"`
		Qualified  bool `json:"qualified"`
	} `json:"upgrades"`
}

func (p *listingPayload) toListing() model.Listing {
	return model.Listing{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		BudgetMin:    p.Budget.Minimum,
		BudgetMax:    p.Budget.Maximum,
		CurrencyCode: p.Currency.Code,
		BidCount:     p.BidStats.BidCount,
		PostedAt:     time.Unix(p.TimeSubmitted, 0).UTC(),
		RequiresNDA:  p.Upgrades.NDA,
		RequiresIP:   p.Upgrades.IPContract,
		Featured:     p.Upgrades.Featured,
		Urgent:       p.Upgrades.Urgent,
		Sealed:       p.Upgrades.Sealed,
		Qualified:    p.Upgrades.Qualified,
		ClientRef:    p.OwnerID,
	}
}

func (c *HTTPClient) FetchActiveListings(ctx context.Context, limit int) ([]model.Listing, error) {
	endpoint := fmt.Sprintf("%s/projects/0.1/projects/active/?limit=%d&full_description=true&job_details=true&compact=false",
		c.BaseURL, limit)

	var result struct {
		Result struct {
			Projects []listingPayload `json:"projects"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, "fetch listings", endpoint, &result); err != nil {
		return nil, err
	}

	listings := make([]model.Listing, 0, len(result.Result.Projects))
	for i := range result.Result.Projects {
		listings = append(listings, result.Result.Projects[i].toListing())
	}
	return listings, nil
}

func (c *HTTPClient) FetchClientProfile(ctx context.Context, clientRef int64) (*model.ClientProfile, error) {
	endpoint := fmt.Sprintf("%s/users/0.1/users/%d/?employer_reputation=true&status=true", c.BaseURL, clientRef)

	var result struct {
		Result struct {
			Status struct {
				PaymentVerified       bool `json:"payment_verified"`
				DepositMade           bool `json:"deposit_made"`
				PaymentMethodVerified bool `json:"payment_method_verified"`
				IdentityVerified      bool `json:"identity_verified"`
				PhoneVerified         bool `json:"phone_verified"`
				EmailVerified         bool `json:"email_verified"`
			} `json:"status"`
			EmployerReputation struct {
				EntireHistory struct {
					Overall  float64 `json:"overall"`
					Complete float64 `json:"complete"`
					Projects int     `json:"projects"`
				} `json:"entire_history"`
			} `json:"employer_reputation"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, "fetch client profile", endpoint, &result); err != nil {
		return nil, err
	}

	r := result.Result
	return &model.ClientProfile{
		Rating:                r.EmployerReputation.EntireHistory.Overall,
		CompletionRate:        r.EmployerReputation.EntireHistory.Complete,
		ProjectsPosted:        r.EmployerReputation.EntireHistory.Projects,
		PaymentVerified:       r.Status.PaymentVerified,
		DepositMade:           r.Status.DepositMade,
		PaymentMethodVerified: r.Status.PaymentMethodVerified,
		IdentityVerified:      r.Status.IdentityVerified,
		PhoneVerified:         r.Status.PhoneVerified,
		EmailVerified:         r.Status.EmailVerified,
	}, nil
}

func (c *HTTPClient) SubmitBid(ctx context.Context, req BidRequest) (int64, error) {
	endpoint := fmt.Sprintf("%s/projects/0.1/bids/", c.BaseURL)
	payload := map[string]any{
		"project_id":           req.ListingID,
		"bidder_id":            req.BidderID,
		"amount":               req.Amount,
		"period":               req.PeriodDays,
		"milestone_percentage": 100,
		"description":          req.Description,
	}

	var result struct {
		Result struct {
			ID int64 `json:"id"`
		} `json:"result"`
		Message string `json:"message"`
	}
	if err := c.postJSON(ctx, "submit bid", endpoint, payload, &result); err != nil {
		return 0, err
	}
	if result.Result.ID == 0 {
		return 0, fmt.Errorf("submit bid: marketplace returned no bid id: %s", result.Message)
	}
	return result.Result.ID, nil
}

func (c *HTTPClient) AgreementStatus(ctx context.Context, listingID int64, kind model.AgreementKind) (bool, error) {
	endpoint := fmt.Sprintf("%s/projects/0.1/projects/%d/agreements/%s/", c.BaseURL, listingID, kind)

	var result struct {
		Result struct {
			Signed bool `json:"signed"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, "agreement status", endpoint, &result); err != nil {
		return false, err
	}
	return result.Result.Signed, nil
}

func (c *HTTPClient) SignAgreement(ctx context.Context, listingID int64, kind model.AgreementKind) error {
	endpoint := fmt.Sprintf("%s/projects/0.1/projects/%d/agreements/%s/sign/", c.BaseURL, listingID, kind)

	var result struct {
		Status string `json:"status"`
	}
	if err := c.postJSON(ctx, "sign agreement", endpoint, map[string]any{}, &result); err != nil {
		return err
	}
	return nil
}

func (c *HTTPClient) FetchCurrencyRates(ctx context.Context) (map[string]float64, error) {
	endpoint := fmt.Sprintf("%s/projects/0.1/currencies/", c.BaseURL)

	var result struct {
		Result struct {
			Currencies []struct {
				Code         string  `json:"code"`
				ExchangeRate float64 `json:"exchange_rate"`
			} `json:"currencies"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, "fetch currency rates", endpoint, &result); err != nil {
		return nil, err
	}

	rates := make(map[string]float64, len(result.Result.Currencies))
	for _, cur := range result.Result.Currencies {
		if cur.Code != "" && cur.ExchangeRate > 0 {
			rates[cur.Code] = cur.ExchangeRate
		}
	}
	return rates, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, op, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	return c.do(op, req, out)
}

func (c *HTTPClient) postJSON(ctx context.Context, op, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal payload: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *HTTPClient) do(op string, req *http.Request, out any) error {
	req.Header.Set("Freelancer-OAuth-V1", c.OAuthToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, ErrAuth)
	case resp.StatusCode == http.StatusTooManyRequests:
		// Throttling counts toward the scheduler's back-off threshold.
		return &TransportError{Op: op, Err: ErrRateLimited}
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: status %d, body: %s", op, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
