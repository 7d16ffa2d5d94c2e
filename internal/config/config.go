package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"BidSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Marketplace struct {
		BaseURL        string `yaml:"base_url"`
		OAuthToken     string `yaml:"oauth_token"`
		UserID         int64  `yaml:"user_id"`
		FetchLimit     int    `yaml:"fetch_limit"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"marketplace"`

	Bidding struct {
		DailyCap             int                             `yaml:"daily_cap"`
		CompetitionCeiling   int                             `yaml:"competition_ceiling"`
		BaseCurrency         string                          `yaml:"base_currency"`
		DefaultMinimumBudget float64                         `yaml:"default_minimum_budget"`
		CurrencyPolicies     map[string]model.CurrencyPolicy `yaml:"currency_policies"`
		EliteBudgetThreshold float64                         `yaml:"elite_budget_threshold"`
		EliteDefaultAmount   float64                         `yaml:"elite_default_amount"`
		EliteMultiplier      float64                         `yaml:"elite_multiplier"`
		Templates            []string                        `yaml:"templates"`
	} `yaml:"bidding"`

	Trust struct {
		RatingFloor          float64 `yaml:"rating_floor"`
		RequireIdentity      bool    `yaml:"require_identity"`
		RejectPhoneEmailOnly bool    `yaml:"reject_phone_email_only"`
		// Fail-open on client lookup errors is a deliberate business policy:
		// over-bidding risk is preferred to starving the pipeline on
		// transient errors. Set true to fail closed instead.
		FailClosedOnLookupError bool `yaml:"fail_closed_on_lookup_error"`
	} `yaml:"trust"`

	Scoring struct {
		QualityThreshold       float64 `yaml:"quality_threshold"`
		AcceptAll              bool    `yaml:"accept_all"` // disables the quality gate entirely
		WeightBudget           float64 `yaml:"weight_budget"`
		WeightDescription      float64 `yaml:"weight_description"`
		WeightClient           float64 `yaml:"weight_client"`
		WeightCompetition      float64 `yaml:"weight_competition"`
		IdealBudget            float64 `yaml:"ideal_budget"`
		DescriptionWordCeiling int     `yaml:"description_word_ceiling"`
		EarlyBirdWindowMinutes int     `yaml:"early_bird_window_minutes"`
		EarlyBirdBoost         float64 `yaml:"early_bird_boost"`
		EliteBoost             float64 `yaml:"elite_boost"`
	} `yaml:"scoring"`

	Schedule struct {
		PollIntervalSeconds     int `yaml:"poll_interval_seconds"`
		PeakPollIntervalSeconds int `yaml:"peak_poll_interval_seconds"`
		PeakStartHourUTC        int `yaml:"peak_start_hour_utc"`
		PeakEndHourUTC          int `yaml:"peak_end_hour_utc"`
		MaxConsecutiveErrors    int `yaml:"max_consecutive_errors"`
		BackoffBaseSeconds      int `yaml:"backoff_base_seconds"`
		BackoffMaxSeconds       int `yaml:"backoff_max_seconds"`
	} `yaml:"schedule"`

	Store struct {
		SQLitePath  string `yaml:"sqlite_path"`
		DedupWindow int    `yaml:"dedup_window"`
		BidWindow   int    `yaml:"bid_window"`
	} `yaml:"store"`

	Status struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"status"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`

	LogLevel string `yaml:"log_level"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("MARKETPLACE_OAUTH_TOKEN"); v != "" {
		cfg.Marketplace.OAuthToken = v
	}
	if v := os.Getenv("MARKETPLACE_USER_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Marketplace.UserID = id
		}
	}
	if v := os.Getenv("MARKETPLACE_BASE_URL"); v != "" {
		cfg.Marketplace.BaseURL = v
	}
	if v := os.Getenv("DAILY_BID_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bidding.DailyCap = n
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("STATUS_ADDR"); v != "" {
		cfg.Status.ListenAddr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Marketplace.BaseURL == "" {
		c.Marketplace.BaseURL = "https://www.freelancer.com/api"
	}
	if c.Marketplace.FetchLimit == 0 {
		c.Marketplace.FetchLimit = 30
	}
	if c.Marketplace.TimeoutSeconds == 0 {
		c.Marketplace.TimeoutSeconds = 30
	}

	if c.Bidding.DailyCap == 0 {
		c.Bidding.DailyCap = 50
	}
	if c.Bidding.CompetitionCeiling == 0 {
		c.Bidding.CompetitionCeiling = 20
	}
	if c.Bidding.BaseCurrency == "" {
		c.Bidding.BaseCurrency = "USD"
	}
	if c.Bidding.DefaultMinimumBudget == 0 {
		c.Bidding.DefaultMinimumBudget = 100
	}
	if c.Bidding.CurrencyPolicies == nil {
		// INR and PKR are bid-at-face-value markets: competitive bidding there
		// requires matching local-currency expectations. Both default to the
		// inverted client-trust variant.
		c.Bidding.CurrencyPolicies = map[string]model.CurrencyPolicy{
			"INR": {MinimumBudget: 12000, FaceValue: true, TrustVariant: model.TrustInverted},
			"PKR": {MinimumBudget: 12000, FaceValue: true, TrustVariant: model.TrustInverted},
		}
	}
	for code, p := range c.Bidding.CurrencyPolicies {
		if p.TrustVariant == "" {
			p.TrustVariant = model.TrustStrict
			c.Bidding.CurrencyPolicies[code] = p
		}
	}
	if c.Bidding.EliteBudgetThreshold == 0 {
		c.Bidding.EliteBudgetThreshold = 500
	}
	if c.Bidding.EliteDefaultAmount == 0 {
		c.Bidding.EliteDefaultAmount = 250
	}
	if c.Bidding.EliteMultiplier == 0 {
		c.Bidding.EliteMultiplier = 1.0
	}
	if len(c.Bidding.Templates) == 0 {
		c.Bidding.Templates = []string{
			"Hello! I've reviewed \"{title}\" and it aligns well with my expertise. " +
				"I can start immediately and deliver within {days} days. Looking forward to discussing the details.",
		}
	}

	if c.Trust.RatingFloor == 0 {
		c.Trust.RatingFloor = 3.0
	}

	if c.Scoring.QualityThreshold == 0 {
		c.Scoring.QualityThreshold = 50
	}
	if c.Scoring.WeightBudget == 0 && c.Scoring.WeightDescription == 0 &&
		c.Scoring.WeightClient == 0 && c.Scoring.WeightCompetition == 0 {
		c.Scoring.WeightBudget = 0.35
		c.Scoring.WeightDescription = 0.20
		c.Scoring.WeightClient = 0.30
		c.Scoring.WeightCompetition = 0.15
	}
	if c.Scoring.IdealBudget == 0 {
		c.Scoring.IdealBudget = 500
	}
	if c.Scoring.DescriptionWordCeiling == 0 {
		c.Scoring.DescriptionWordCeiling = 200
	}
	if c.Scoring.EarlyBirdWindowMinutes == 0 {
		c.Scoring.EarlyBirdWindowMinutes = 10
	}
	if c.Scoring.EarlyBirdBoost == 0 {
		c.Scoring.EarlyBirdBoost = 10
	}
	if c.Scoring.EliteBoost == 0 {
		c.Scoring.EliteBoost = 15
	}

	if c.Schedule.PollIntervalSeconds == 0 {
		c.Schedule.PollIntervalSeconds = 120
	}
	if c.Schedule.PeakPollIntervalSeconds == 0 {
		c.Schedule.PeakPollIntervalSeconds = 30
	}
	if c.Schedule.PeakStartHourUTC == 0 && c.Schedule.PeakEndHourUTC == 0 {
		c.Schedule.PeakStartHourUTC = 8
		c.Schedule.PeakEndHourUTC = 20
	}
	if c.Schedule.MaxConsecutiveErrors == 0 {
		c.Schedule.MaxConsecutiveErrors = 5
	}
	if c.Schedule.BackoffBaseSeconds == 0 {
		c.Schedule.BackoffBaseSeconds = 60
	}
	if c.Schedule.BackoffMaxSeconds == 0 {
		c.Schedule.BackoffMaxSeconds = 300
	}

	if c.Store.DedupWindow == 0 {
		c.Store.DedupWindow = 1000
	}
	if c.Store.BidWindow == 0 {
		c.Store.BidWindow = 200
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks that all required fields are set. A missing credential or
// account id is a startup-fatal condition, not a per-cycle error.
func (c *Config) Validate() error {
	if c.Marketplace.OAuthToken == "" {
		return fmt.Errorf("marketplace.oauth_token is required (set MARKETPLACE_OAUTH_TOKEN)")
	}
	if c.Marketplace.UserID == 0 {
		return fmt.Errorf("marketplace.user_id is required (set MARKETPLACE_USER_ID)")
	}
	sum := c.Scoring.WeightBudget + c.Scoring.WeightDescription +
		c.Scoring.WeightClient + c.Scoring.WeightCompetition
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("scoring weights must sum to 1, got %.3f", sum)
	}
	if c.Bidding.DailyCap < 0 {
		return fmt.Errorf("bidding.daily_cap must not be negative")
	}
	return nil
}

// PolicyFor returns the currency policy for a code, falling back to the
// convert-to-base default with the strict trust variant.
func (c *Config) PolicyFor(code string) model.CurrencyPolicy {
	if p, ok := c.Bidding.CurrencyPolicies[code]; ok {
		return p
	}
	return model.CurrencyPolicy{
		MinimumBudget: c.Bidding.DefaultMinimumBudget,
		FaceValue:     false,
		TrustVariant:  model.TrustStrict,
	}
}
