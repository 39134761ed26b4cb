package calculator

import (
	"errors"
	"fmt"
)

// ErrInsufficientData indicates a series is shorter than the window a metric needs.
var ErrInsufficientData = errors.New("not enough data for calculation")

// MomentumReturn computes the simple return of the latest close against the
// close lookback bars earlier: closes[n-1]/closes[n-lookback] - 1.
func MomentumReturn(closes []float64, lookback int) (float64, error) {
	if lookback <= 0 {
		return 0, errors.New("lookback must be positive")
	}
	if len(closes) < lookback {
		return 0, fmt.Errorf("%w: need %d closes, have %d", ErrInsufficientData, lookback, len(closes))
	}
	base := closes[len(closes)-lookback]
	if base <= 0 {
		return 0, fmt.Errorf("non-positive base price %v", base)
	}
	return closes[len(closes)-1]/base - 1, nil
}
