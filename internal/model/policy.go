package model

// TrustVariant selects which client-trust rule set applies for a currency market.
type TrustVariant string

const (
	// TrustStrict requires payment verification or a deposit, plus a rating floor.
	TrustStrict TrustVariant = "strict"
	// TrustInverted deliberately targets newer clients with no payment
	// verification and no deposit, under a distinct risk model. Used for
	// specific lower-budget currency markets.
	TrustInverted TrustVariant = "inverted"
)

// CurrencyPolicy is the per-currency-code rule loaded once per run.
type CurrencyPolicy struct {
	MinimumBudget float64      `yaml:"minimum_budget"`
	FaceValue     bool         `yaml:"face_value"`
	TrustVariant  TrustVariant `yaml:"trust_variant"`
}
