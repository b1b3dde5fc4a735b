package technical

import (
	"math"
	"sort"
)

// Volatility is the population standard deviation of the closes
func Volatility(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}

	mean := 0.0
	for _, c := range closes {
		mean += c
	}
	mean /= float64(len(closes))

	variance := 0.0
	for _, c := range closes {
		diff := c - mean
		variance += diff * diff
	}

	return math.Sqrt(variance / float64(len(closes)))
}

// MaxDrawdown computes the worst running peak-to-trough loss over the window,
// expressed as a positive percentage
func MaxDrawdown(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}

	peak := closes[0]
	maxDrawdown := 0.0

	for _, c := range closes[1:] {
		if c > peak {
			peak = c
			continue
		}
		if peak > 0 {
			drawdown := (peak - c) / peak * 100
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// ValueAtRisk returns the empirical quantile of period-over-period returns at
// the given confidence level: the return at rank floor((1-confidence)*N) of
// the ascending return list. A worse-than-usual period shows up as a negative
// return.
func ValueAtRisk(closes []float64, confidence float64) float64 {
	if len(closes) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	if len(returns) == 0 {
		return 0
	}

	sort.Float64s(returns)

	rank := int(math.Floor((1 - confidence) * float64(len(returns))))
	if rank < 0 {
		rank = 0
	}
	if rank >= len(returns) {
		rank = len(returns) - 1
	}

	return returns[rank]
}
