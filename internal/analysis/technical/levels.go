package technical

import (
	"github.com/ndefokin/botarmy/models"
)

// Minimum points required for level detection
const (
	levelsMinPoints = 10
	fibMinPoints    = 50
)

// FibonacciLevels holds the classic retracement prices for a price range
type FibonacciLevels struct {
	Level382 float64 `json:"level_382"`
	Level500 float64 `json:"level_500"`
	Level618 float64 `json:"level_618"`
}

// SupportResistance returns the window low as support and the window high as
// resistance. ok is false when fewer than 10 points are available.
func SupportResistance(candles []models.Candle) (support, resistance float64, ok bool) {
	if len(candles) < levelsMinPoints {
		return 0, 0, false
	}

	support = candles[0].Low
	resistance = candles[0].High

	for _, c := range candles[1:] {
		if c.Low < support {
			support = c.Low
		}
		if c.High > resistance {
			resistance = c.High
		}
	}

	return support, resistance, true
}

// Fibonacci computes the 38.2%, 50% and 61.8% retracement prices from the
// series high and low. ok is false when fewer than 50 points are available.
func Fibonacci(candles []models.Candle) (FibonacciLevels, bool) {
	if len(candles) < fibMinPoints {
		return FibonacciLevels{}, false
	}

	low, high, _ := SupportResistance(candles)
	priceRange := high - low

	return FibonacciLevels{
		Level382: high - priceRange*0.382,
		Level500: high - priceRange*0.5,
		Level618: high - priceRange*0.618,
	}, true
}
