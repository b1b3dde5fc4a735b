package risk

import (
	"github.com/ndefokin/botarmy/internal/analysis/technical"
	"github.com/ndefokin/botarmy/internal/config"
	"github.com/ndefokin/botarmy/models"
)

// VaR confidence level used for risk bucketing
const varConfidence = 0.95

// Assess computes a risk read from the close series and buckets it into
// low/medium/high. The bucket decides the recommended position-size fraction;
// collaborators use the recommendation, this core never enforces it.
func Assess(closes []float64, cal config.Calibration) models.RiskAssessment {
	assessment := models.RiskAssessment{
		Volatility:  technical.Volatility(closes),
		MaxDrawdown: technical.MaxDrawdown(closes),
		ValueAtRisk: technical.ValueAtRisk(closes, varConfidence),
	}

	// Express volatility relative to the last close so thresholds hold
	// across instruments with different price scales
	volatilityPct := 0.0
	if len(closes) > 0 && closes[len(closes)-1] != 0 {
		volatilityPct = assessment.Volatility / closes[len(closes)-1] * 100
	}

	// The VaR quantile is a (usually negative) return; only the loss side
	// moves the bucket
	varLossPct := -assessment.ValueAtRisk * 100
	if varLossPct < 0 {
		varLossPct = 0
	}

	switch {
	case volatilityPct > cal.Risk.HighVolatilityPct || assessment.MaxDrawdown > cal.Risk.HighDrawdownPct || varLossPct > cal.Risk.HighVaRPct:
		assessment.Level = models.RiskHigh
		assessment.PositionFraction = cal.Risk.HighPositionPct
	case volatilityPct > cal.Risk.MediumVolatilityPct || varLossPct > cal.Risk.MediumVaRPct:
		assessment.Level = models.RiskMedium
		assessment.PositionFraction = cal.Risk.MediumPositionPct
	default:
		assessment.Level = models.RiskLow
		assessment.PositionFraction = cal.Risk.LowPositionPct
	}

	return assessment
}
