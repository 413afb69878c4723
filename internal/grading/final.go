package grading

import (
	"fmt"
	"math"
)

// Term weights of the final grade
const (
	MidtermShare = 0.40
	FinalsShare  = 0.60
)

// PassingGrade is the inclusive lower bound of a passing final grade
const PassingGrade = 75.0

// Remarks attached to an equivalent grade
const (
	RemarkPassed = "PASSED"
	RemarkFailed = "FAILED"
)

// equivalentScale is evaluated top to bottom; the first matching floor wins
var equivalentScale = []struct {
	floor      float64
	equivalent float64
}{
	{98, 1.00},
	{96, 1.25},
	{93, 1.50},
	{PassingGrade, 2.00},
}

const failingEquivalent = 5.00

// FinalGrade is the composed result of both terms
type FinalGrade struct {
	Value      float64 `json:"value"`
	Rounded    float64 `json:"rounded"`
	Equivalent float64 `json:"equivalent"`
	Remark     string  `json:"remark"`
}

// ComposeFinalGrade weighs the two term percentages into a final grade.
// Thresholds use the unrounded value; Rounded is for display only.
func ComposeFinalGrade(midterm, finals float64) FinalGrade {
	value := nonNegative(midterm)*MidtermShare + nonNegative(finals)*FinalsShare
	equivalent, remark := Equivalent(value)
	return FinalGrade{
		Value:      value,
		Rounded:    Round2(value),
		Equivalent: equivalent,
		Remark:     remark,
	}
}

// Equivalent maps a final grade to the institution's grade-point scale
func Equivalent(finalGrade float64) (float64, string) {
	for _, step := range equivalentScale {
		if finalGrade >= step.floor {
			return step.equivalent, RemarkPassed
		}
	}
	return failingEquivalent, RemarkFailed
}

// FormatEquivalent renders an equivalent grade the way it is printed on grade sheets
func FormatEquivalent(equivalent float64) string {
	return fmt.Sprintf("%.2f", equivalent)
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
