package formulas

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sum returns the sum of the values; zero for an empty slice.
func Sum(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return floats.Sum(data)
}

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// MaxIndex returns the index of the largest value. When several entries share
// the maximum the first one wins. Returns -1 for an empty slice.
func MaxIndex(data []float64) int {
	if len(data) == 0 {
		return -1
	}
	return floats.MaxIdx(data)
}

// MinIndex returns the index of the smallest value, first one on ties.
// Returns -1 for an empty slice.
func MinIndex(data []float64) int {
	if len(data) == 0 {
		return -1
	}
	return floats.MinIdx(data)
}

// Ratio divides numerator by the magnitude of denominator.
// A zero denominator yields 0 rather than +Inf.
func Ratio(numerator, denominator float64) float64 {
	if denominator < 0 {
		denominator = -denominator
	}
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// Percent returns part/whole*100, or 0 when whole is zero.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
