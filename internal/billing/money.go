package billing

import "github.com/shopspring/decimal"

// Round2 rounds a monetary value to 2 decimal places, half away from zero.
//
// Every derived amount in this package is rounded at the step that produces
// it, never deferred to a final pass: later steps consume the already
// rounded value of earlier ones, so changing the rounding order changes
// totals by cents. Going through decimal avoids the float artifacts of
// rounding the scaled integer directly (1.005*100 is 100.49999... in
// float64).
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
