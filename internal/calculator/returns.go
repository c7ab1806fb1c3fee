package calculator

import (
	"errors"
	"math"
)

// ErrInputType is returned when the price input is not a sequence.
var ErrInputType = errors.New("prices is not a sequence")

// AbsoluteReturn computes the day-over-day price change. The first entry is
// nil because no prior price exists.
func AbsoluteReturn(prices []float64) ([]*float64, error) {
	if prices == nil {
		return nil, ErrInputType
	}
	out := make([]*float64, len(prices))
	for i := 1; i < len(prices); i++ {
		v := prices[i] - prices[i-1]
		out[i] = &v
	}
	return out, nil
}

// PercentReturn computes each day's change relative to the prior day's price.
// It is index-aligned with prices; the first entry is nil.
func PercentReturn(prices []float64) ([]*float64, error) {
	abs, err := AbsoluteReturn(prices)
	if err != nil {
		return nil, err
	}
	if len(abs) == 0 {
		return abs, nil
	}

	// Drop the leading null, divide by yesterday's price, then put it back.
	rest := abs[1:]
	out := make([]*float64, 0, len(abs))
	out = append(out, nil)
	for i, r := range rest {
		if r == nil {
			out = append(out, nil)
			continue
		}
		v := *r / prices[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out = append(out, nil)
			continue
		}
		out = append(out, &v)
	}
	return out, nil
}
