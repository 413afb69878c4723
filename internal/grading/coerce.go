package grading

import (
	"math"
	"strconv"
	"strings"
)

// CoerceScore turns raw user input into a score. Non-numeric, negative and
// non-finite values become 0; nil and blank strings report ok=false (unset).
func CoerceScore(raw any) (value float64, ok bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return nonNegative(v), true
	case float32:
		return nonNegative(float64(v)), true
	case int:
		return nonNegative(float64(v)), true
	case int64:
		return nonNegative(float64(v)), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, true
		}
		return nonNegative(f), true
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		if err != nil {
			return 0, true
		}
		return nonNegative(f), true
	}
	return 0, true
}

// CoercePoints clamps a maximum-point value to >= 0
func CoercePoints(v float64) float64 {
	return nonNegative(v)
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
