package technical

import (
	"github.com/ndefokin/botarmy/models"
)

// Volume profile labels
const (
	VolumeBreakout      = "breakout"
	VolumeConsolidation = "consolidation"
	VolumeNormal        = "normal"
)

// VolumeProfile classifies the latest volume against the window average.
// Returns an empty string when no volume data is present.
func VolumeProfile(candles []models.Candle) string {
	if len(candles) < 2 {
		return ""
	}

	var total int64
	for _, c := range candles {
		total += c.Volume
	}
	if total == 0 {
		return ""
	}

	average := float64(total) / float64(len(candles))
	current := float64(candles[len(candles)-1].Volume)

	switch {
	case current > 2*average:
		return VolumeBreakout
	case current < 0.5*average:
		return VolumeConsolidation
	default:
		return VolumeNormal
	}
}

// VolumeFlow splits recent volume into up-candle and down-candle volume and
// classifies the dominant side. Looks at the last 5 candles.
func VolumeFlow(candles []models.Candle) (string, float64) {
	if len(candles) < 5 {
		return models.SentimentNeutral, 0.5
	}

	var upVolume, downVolume int64
	for i := len(candles) - 5; i < len(candles); i++ {
		if candles[i].Close > candles[i].Open {
			upVolume += candles[i].Volume
		} else {
			downVolume += candles[i].Volume
		}
	}

	// Without volume data the flow is unreadable
	volumeRatio := 0.5
	if upVolume+downVolume > 0 {
		volumeRatio = float64(upVolume) / float64(upVolume+downVolume)
	}

	flow := models.SentimentNeutral
	if volumeRatio > 0.65 {
		flow = models.SentimentBullish
	} else if volumeRatio < 0.35 {
		flow = models.SentimentBearish
	}

	return flow, volumeRatio
}
