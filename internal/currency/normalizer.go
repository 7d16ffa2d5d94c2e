package currency

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"BidSentinel/internal/model"
)

// ErrConversionUnavailable indicates no exchange rate is known for a currency.
// The caller treats the listing as non-eligible; a rate is never guessed.
var ErrConversionUnavailable = errors.New("currency: conversion unavailable")

// Normalizer converts monetary amounts into the base currency, except for
// face-value currencies, which pass through unchanged. The policy table, not
// call-site code, decides conversion: converting a currency the pricing rule
// must preserve produces wildly uncompetitive bids.
type Normalizer struct {
	base      string
	faceValue map[string]bool

	mu    sync.RWMutex
	rates map[string]float64 // units per one unit of base currency
}

// New builds a Normalizer from the per-currency policy table.
func New(baseCurrency string, policies map[string]model.CurrencyPolicy) *Normalizer {
	fv := make(map[string]bool, len(policies))
	for code, p := range policies {
		if p.FaceValue {
			fv[code] = true
		}
	}
	return &Normalizer{
		base:      baseCurrency,
		faceValue: fv,
		rates:     FallbackRates(),
	}
}

// SetRates replaces the rate table. Called at startup and on the daily refresh.
func (n *Normalizer) SetRates(rates map[string]float64) {
	if len(rates) == 0 {
		return
	}
	n.mu.Lock()
	n.rates = rates
	n.mu.Unlock()
}

// FaceValue reports whether amounts in this currency must be preserved as-is.
func (n *Normalizer) FaceValue(code string) bool { return n.faceValue[code] }

// Base returns the base currency code.
func (n *Normalizer) Base() string { return n.base }

// Normalize converts an amount for comparison against policy floors. Face-value
// currencies and the base currency are returned unchanged; everything else is
// converted via the rate table and rounded to two decimals.
func (n *Normalizer) Normalize(amount float64, code string) (float64, error) {
	if code == n.base || n.faceValue[code] {
		return amount, nil
	}

	n.mu.RLock()
	rate, ok := n.rates[code]
	n.mu.RUnlock()
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("%s: %w", code, ErrConversionUnavailable)
	}
	return Round2(amount / rate), nil
}

// Round2 rounds half away from zero to two decimal places. This is the
// documented rounding rule for all converted bid amounts.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FallbackRates is the static rate table used until the marketplace rate
// endpoint has been queried successfully.
func FallbackRates() map[string]float64 {
	return map[string]float64{
		"USD": 1.0,
		"EUR": 0.92,
		"GBP": 0.79,
		"AUD": 1.52,
		"CAD": 1.35,
		"INR": 83.0,
		"PKR": 278.0,
		"PHP": 56.0,
		"BRL": 5.0,
		"MXN": 17.0,
		"JPY": 150.0,
		"CNY": 7.2,
		"ZAR": 18.5,
		"NGN": 450.0,
		"EGP": 31.0,
		"AED": 3.67,
		"SAR": 3.75,
	}
}
