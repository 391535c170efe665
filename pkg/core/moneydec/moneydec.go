// Package moneydec provides the fixed-point decimal helpers §3/§9 require:
// money quantities use decimal.Decimal end-to-end, rounded half-to-even to
// six places for storage; ratio/statistical outputs stay float64.
package moneydec

import (
	"github.com/shopspring/decimal"

	"fundamentalengine/pkg/models"
)

// StorageScale is the number of decimal places §4.A mandates for storage.
const StorageScale = 6

// Round applies half-to-even rounding to StorageScale places, matching
// decimal.Decimal's banker's-rounding RoundBank.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(StorageScale)
}

// SafeDivRatio divides two money quantities into a float64 ratio,
// returning an undefined Metric rather than Inf/NaN when the denominator
// is zero, per the RatioKernel division-by-zero policy.
func SafeDivRatio(numerator, denominator decimal.Decimal) models.Metric {
	if denominator.IsZero() {
		return models.Undefined()
	}
	f, _ := numerator.Div(denominator).Float64()
	return models.M(f)
}

// SafeDivFloat is the float64 equivalent used once values have already
// been converted for statistical computation (trend analysis, sensitivity,
// neural net features).
func SafeDivFloat(numerator, denominator float64) models.Metric {
	if denominator == 0 {
		return models.Undefined()
	}
	return models.M(numerator / denominator)
}

// GrowthRate computes (current-prior)/|prior|, undefined when prior is
// zero or when current and prior have opposite signs (§4.A: "growth
// ratios over periods with sign change of the base value are undefined").
func GrowthRate(current, prior decimal.Decimal) models.Metric {
	if prior.IsZero() {
		return models.Undefined()
	}
	if current.Sign() != 0 && prior.Sign() != 0 && current.Sign() != prior.Sign() {
		return models.Undefined()
	}
	f, _ := current.Sub(prior).Div(prior.Abs()).Float64()
	return models.M(f)
}

// F converts a decimal to float64 for contexts that require double
// precision (valuation models, statistics). Money stays decimal up to the
// point it must be combined with a double-precision rate.
func F(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// D converts a float64 back to decimal for storage, e.g. a computed fair
// value.
func D(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
