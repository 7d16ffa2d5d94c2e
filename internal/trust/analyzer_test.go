package trust

import (
	"testing"

	"BidSentinel/internal/model"
)

func TestEvaluateStrict(t *testing.T) {
	a := NewAnalyzer(Options{RatingFloor: 3.0})

	tests := []struct {
		name     string
		profile  model.ClientProfile
		eligible bool
	}{
		{"payment verified", model.ClientProfile{PaymentVerified: true, Rating: 4.2}, true},
		{"deposit only", model.ClientProfile{DepositMade: true}, true},
		{"neither payment nor deposit", model.ClientProfile{PaymentMethodVerified: true, Rating: 5}, false},
		{"rating below floor", model.ClientProfile{PaymentVerified: true, Rating: 2.1}, false},
		{"unrated passes", model.ClientProfile{PaymentVerified: true, Rating: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.Evaluate(&tt.profile, model.TrustStrict)
			if res.Eligible != tt.eligible {
				t.Errorf("expected eligible=%v, got %v (reason: %s)", tt.eligible, res.Eligible, res.Reason)
			}
		})
	}
}

func TestEvaluateStrict_OptionalChecks(t *testing.T) {
	a := NewAnalyzer(Options{RatingFloor: 3.0, RequireIdentity: true, RejectPhoneEmailOnly: true})

	res := a.Evaluate(&model.ClientProfile{PaymentVerified: true, Rating: 4}, model.TrustStrict)
	if res.Eligible {
		t.Error("expected identity requirement to reject")
	}

	res = a.Evaluate(&model.ClientProfile{PaymentVerified: true, IdentityVerified: true, Rating: 4}, model.TrustStrict)
	if !res.Eligible {
		t.Errorf("expected eligible, got rejection: %s", res.Reason)
	}
}

func TestEvaluateInverted(t *testing.T) {
	// The inverted variant targets clients with no verification signals at all.
	a := NewAnalyzer(Options{RatingFloor: 3.0})

	tests := []struct {
		name     string
		profile  model.ClientProfile
		eligible bool
	}{
		{"fully unverified", model.ClientProfile{}, true},
		{"unverified with good rating", model.ClientProfile{Rating: 4.8}, true},
		{"payment verified excluded", model.ClientProfile{PaymentVerified: true}, false},
		{"deposit excluded", model.ClientProfile{DepositMade: true}, false},
		{"stored payment method excluded", model.ClientProfile{PaymentMethodVerified: true}, false},
		{"rating below floor", model.ClientProfile{Rating: 1.5}, false},
		{"phone/email only still eligible", model.ClientProfile{PhoneVerified: true, EmailVerified: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.Evaluate(&tt.profile, model.TrustInverted)
			if res.Eligible != tt.eligible {
				t.Errorf("expected eligible=%v, got %v (reason: %s)", tt.eligible, res.Eligible, res.Reason)
			}
		})
	}
}

func TestFailOpen(t *testing.T) {
	if !NewAnalyzer(Options{}).FailOpen() {
		t.Error("fail-open must be the default")
	}
	if NewAnalyzer(Options{FailClosedOnLookupError: true}).FailOpen() {
		t.Error("fail-closed config must disable fail-open")
	}
}

func TestClientScore(t *testing.T) {
	if got := ClientScore(nil); got != 0.5 {
		t.Errorf("nil profile must score neutral 0.5, got %.2f", got)
	}
	perfect := ClientScore(&model.ClientProfile{Rating: 5, CompletionRate: 1})
	if perfect < 0.999 || perfect > 1.0 {
		t.Errorf("perfect profile must score 1.0, got %.4f", perfect)
	}
	zero := ClientScore(&model.ClientProfile{})
	if zero != 0 {
		t.Errorf("empty profile must score 0, got %.2f", zero)
	}
}
