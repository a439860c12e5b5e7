package analytics

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Round2 rounds v to two decimal places, half to even on the exact binary value.
// 2.675 is stored as 2.67499... and rounds to 2.67; 1.125 is exact and rounds to 1.12.
func Round2(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo rounds v to the given number of decimal places. Negative zero is normalized to 0.
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	// FormatFloat with a fixed precision converts the exact binary value and breaks ties to even.
	d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', int(places), 64))
	if err != nil {
		return v
	}
	return d.InexactFloat64()
}
