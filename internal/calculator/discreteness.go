package calculator

import "fmt"

// Discreteness computes the signed information discreteness of a price series:
// the sign of the cumulative return times the fraction of down days minus the
// fraction of up days. Both fractions are taken over the bar count. Smooth
// uptrends score strongly negative, choppy ones drift toward zero.
func Discreteness(closes []float64) (float64, error) {
	if len(closes) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 closes, have %d", ErrInsufficientData, len(closes))
	}
	if closes[0] <= 0 {
		return 0, fmt.Errorf("non-positive starting price %v", closes[0])
	}
	pos, neg := 0, 0
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			return 0, fmt.Errorf("non-positive price at index %d", i-1)
		}
		change := closes[i]/closes[i-1] - 1
		switch {
		case change > 0:
			pos++
		case change < 0:
			neg++
		}
	}
	n := float64(len(closes))
	posFrac := float64(pos) / n
	negFrac := float64(neg) / n
	cumulative := closes[len(closes)-1]/closes[0] - 1
	return signOf(cumulative) * (negFrac - posFrac), nil
}

func signOf(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
