package formulas

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds a value to two decimal places (half away from zero).
// Accumulate at full precision and call this only when presenting a result.
// NaN and ±Inf are returned unchanged.
func Round2(v float64) float64 {
	if !Finite(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Round2Ptr is Round2 for optional values.
func Round2Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := Round2(*v)
	return &r
}

// Finite reports whether every value is neither NaN nor infinite.
func Finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
