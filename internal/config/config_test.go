package config

import (
	"os"
	"path/filepath"
	"testing"

	"BidSentinel/internal/model"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("a missing config file must not fail: %v", err)
	}

	if cfg.Marketplace.FetchLimit != 30 {
		t.Errorf("expected fetch limit 30, got %d", cfg.Marketplace.FetchLimit)
	}
	if cfg.Bidding.DailyCap != 50 {
		t.Errorf("expected daily cap 50, got %d", cfg.Bidding.DailyCap)
	}
	if cfg.Bidding.BaseCurrency != "USD" {
		t.Errorf("expected USD base currency, got %s", cfg.Bidding.BaseCurrency)
	}
	if cfg.Schedule.PollIntervalSeconds != 120 {
		t.Errorf("expected 120s poll interval, got %d", cfg.Schedule.PollIntervalSeconds)
	}

	inr, ok := cfg.Bidding.CurrencyPolicies["INR"]
	if !ok {
		t.Fatal("expected a default INR policy")
	}
	if !inr.FaceValue || inr.MinimumBudget != 12000 || inr.TrustVariant != model.TrustInverted {
		t.Errorf("unexpected INR policy: %+v", inr)
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
marketplace:
  oauth_token: file-token
  user_id: 123
  fetch_limit: 10
bidding:
  daily_cap: 5
  currency_policies:
    INR:
      minimum_budget: 20000
      face_value: true
      trust_variant: inverted
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MARKETPLACE_OAUTH_TOKEN", "env-token")
	t.Setenv("DAILY_BID_CAP", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Marketplace.OAuthToken != "env-token" {
		t.Errorf("env must override file, got %s", cfg.Marketplace.OAuthToken)
	}
	if cfg.Marketplace.UserID != 123 {
		t.Errorf("expected user id 123, got %d", cfg.Marketplace.UserID)
	}
	if cfg.Bidding.DailyCap != 7 {
		t.Errorf("expected daily cap 7 from env, got %d", cfg.Bidding.DailyCap)
	}
	if cfg.Marketplace.FetchLimit != 10 {
		t.Errorf("expected fetch limit 10 from file, got %d", cfg.Marketplace.FetchLimit)
	}
	if got := cfg.Bidding.CurrencyPolicies["INR"].MinimumBudget; got != 20000 {
		t.Errorf("expected INR floor 20000 from file, got %.0f", got)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Marketplace.OAuthToken = "tok"
		cfg.Marketplace.UserID = 1
		cfg.applyDefaults()
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Errorf("default config with credentials must validate: %v", err)
	}

	cfg := base()
	cfg.Marketplace.OAuthToken = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing token must fail validation")
	}

	cfg = base()
	cfg.Marketplace.UserID = 0
	if err := cfg.Validate(); err == nil {
		t.Error("missing user id must fail validation")
	}

	cfg = base()
	cfg.Scoring.WeightBudget = 0.9
	if err := cfg.Validate(); err == nil {
		t.Error("weights not summing to 1 must fail validation")
	}
}

func TestPolicyFor_Fallback(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	p := cfg.PolicyFor("EUR")
	if p.FaceValue {
		t.Error("unknown currencies must not be face-value")
	}
	if p.MinimumBudget != cfg.Bidding.DefaultMinimumBudget {
		t.Errorf("expected default floor %.0f, got %.0f", cfg.Bidding.DefaultMinimumBudget, p.MinimumBudget)
	}
	if p.TrustVariant != model.TrustStrict {
		t.Errorf("expected strict trust variant, got %s", p.TrustVariant)
	}

	if got := cfg.PolicyFor("PKR"); !got.FaceValue {
		t.Error("PKR must be a face-value market by default")
	}
}
