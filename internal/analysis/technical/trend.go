package technical

import (
	"github.com/ndefokin/botarmy/models"
)

// Trend classification labels
const (
	TrendStrongUptrend   = "strong uptrend"
	TrendStrongDowntrend = "strong downtrend"
	TrendReversal        = "reversal"
	TrendConsolidation   = "consolidation"
)

// Minimum closes required for trend classification
const trendMinPoints = 20

// ClassifyTrend classifies the price trend from least-squares slopes over the
// last 5, 10 and 20 closes. Returns an empty string when fewer than 20 points
// are available so callers can treat it as "no signal".
func ClassifyTrend(candles []models.Candle) string {
	if len(candles) < trendMinPoints {
		return ""
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	shortSlope := LeastSquaresSlope(closes[len(closes)-5:])
	mediumSlope := LeastSquaresSlope(closes[len(closes)-10:])
	longSlope := LeastSquaresSlope(closes[len(closes)-20:])

	switch {
	case shortSlope > 0 && mediumSlope > 0 && longSlope > 0:
		return TrendStrongUptrend
	case shortSlope < 0 && mediumSlope < 0 && longSlope < 0:
		return TrendStrongDowntrend
	case shortSlope > 0 && mediumSlope < 0:
		return TrendReversal
	default:
		return TrendConsolidation
	}
}

// LeastSquaresSlope fits a least-squares line through the values and returns
// its slope per index step
func LeastSquaresSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}

	// x is the index 0..n-1
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return 0
	}

	return (n*sumXY - sumX*sumY) / denominator
}
