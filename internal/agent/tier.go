package agent

import (
	"github.com/ndefokin/botarmy/models"
)

// tierBands lists the tier lower bounds above the base training tier,
// ordered ascending. The bands are fixed and non-overlapping.
var tierBands = []struct {
	Name string
	Min  float64
}{
	{models.TierSkilled, 0.60},
	{models.TierExpert, 0.70},
	{models.TierElite, 0.80},
	{models.TierExceptional, 0.90},
	{models.TierTopTier, 0.95},
}

// TierFor maps a confidence value to its performance tier
func TierFor(confidence float64) string {
	tier := models.TierTraining
	for _, band := range tierBands {
		if confidence >= band.Min {
			tier = band.Name
		}
	}
	return tier
}

// TiersCrossed returns every tier band the agent newly entered when its
// confidence moved from oldConfidence to newConfidence. Because training
// confidence is monotone, a band already crossed in a prior run can never be
// reported again.
func TiersCrossed(oldConfidence, newConfidence float64) []string {
	var crossed []string
	for _, band := range tierBands {
		if oldConfidence < band.Min && newConfidence >= band.Min {
			crossed = append(crossed, band.Name)
		}
	}
	return crossed
}
