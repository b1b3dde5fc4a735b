package training

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ndefokin/botarmy/internal/agent"
	"github.com/ndefokin/botarmy/internal/analysis/risk"
	"github.com/ndefokin/botarmy/internal/analysis/technical"
	"github.com/ndefokin/botarmy/internal/config"
	"github.com/ndefokin/botarmy/models"
)

// ErrEmptySeries is returned when training is invoked without candle data
var ErrEmptySeries = errors.New("candle series is empty")

// Rolling window used to accumulate volatility for the experience formula
const volatilityWindow = 20

// Proximity (as a fraction of price) within which a support or resistance
// level counts as a discovered pattern
const levelProximity = 0.01

// Trainer trains individual agents against a candle series
type Trainer struct {
	cal          config.Calibration
	historyLimit int
}

// NewTrainer creates a trainer with the given calibration
func NewTrainer(cal config.Calibration, historyLimit int) *Trainer {
	if historyLimit <= 0 {
		historyLimit = agent.DefaultHistoryLimit
	}
	return &Trainer{cal: cal, historyLimit: historyLimit}
}

// Train runs one training pass for a single agent. The agent record is owned
// exclusively by this call for its duration; the series is shared read-only.
func (t *Trainer) Train(a *models.Agent, series *models.CandleSeries) (models.LearningEvent, error) {
	if series == nil || series.Len() == 0 {
		return models.LearningEvent{}, ErrEmptySeries
	}

	candles := series.Candles
	closes := series.Closes()

	// Experience grows with data volume; volatility dominates the gain in
	// choppy markets
	totalVolatility := sumRollingVolatility(closes, volatilityWindow)
	totalVolume := int64(0)
	for _, c := range candles {
		totalVolume += c.Volume
	}
	experienceGained := t.cal.Experience.CandleWeight*float64(len(candles)) +
		t.cal.Experience.VolatilityWeight*totalVolatility +
		t.cal.Experience.VolumeWeight*float64(totalVolume)

	// Confidence moves by a small exploration jitter scaled by data size and
	// specialization. The cap keeps residual uncertainty; training never
	// lowers confidence.
	boost := t.cal.Confidence.JitterMin +
		rand.Float64()*(t.cal.Confidence.JitterMax-t.cal.Confidence.JitterMin)
	if len(candles) > t.cal.Confidence.LargeSeriesCandles {
		boost *= t.cal.Confidence.LargeSeriesMultiplier
	}
	if a.Specialization == models.SpecializationTechnical {
		boost *= t.cal.Confidence.SpecialtyMultiplier
	}

	oldConfidence := a.Confidence
	newConfidence := math.Min(t.cal.Confidence.Cap, oldConfidence+boost)
	confidenceGained := newConfidence - oldConfidence

	patterns := discoverPatterns(candles)
	assessment := risk.Assess(closes, t.cal)

	// Engine upgrades are monotonic, one step at a time
	if confidenceGained > t.cal.Engine.UpgradeGainThreshold {
		switch {
		case a.AnalysisEngine == models.EngineEnsemble && newConfidence >= t.cal.Engine.TopTierConfidence:
			a.AnalysisEngine = models.EngineTopTier
		case a.AnalysisEngine == models.EngineBaseline && newConfidence >= t.cal.Engine.EnsembleConfidence:
			a.AnalysisEngine = models.EngineEnsemble
		}
	}

	last := candles[len(candles)-1]
	event := models.LearningEvent{
		Timestamp:          time.Now(),
		CandlesProcessed:   len(candles),
		ExperienceGained:   experienceGained,
		ConfidenceGained:   confidenceGained,
		DiscoveredPatterns: patterns,
		EngineUsed:         a.AnalysisEngine,
		MarketSnapshot: models.MarketSnapshot{
			Price:      last.Close,
			Volume:     last.Volume,
			Trend:      technical.ClassifyTrend(candles),
			Volatility: assessment.Volatility,
		},
		RiskAssessment: assessment,
	}

	a.Experience += experienceGained
	a.Confidence = newConfidence
	a.LastTrainingTime = event.Timestamp
	agent.AppendLearningEvent(a, event, t.historyLimit)

	return event, nil
}

// discoverPatterns collects every non-empty classification the analysis
// library produces for the series
func discoverPatterns(candles []models.Candle) []string {
	var patterns []string

	if trend := technical.ClassifyTrend(candles); trend != "" {
		patterns = append(patterns, trend)
	}
	if profile := technical.VolumeProfile(candles); profile != "" {
		patterns = append(patterns, "volume "+profile)
	}

	if support, resistance, ok := technical.SupportResistance(candles); ok {
		price := candles[len(candles)-1].Close
		if price > 0 {
			if math.Abs(price-support)/price < levelProximity {
				patterns = append(patterns, fmt.Sprintf("price testing support %.5f", support))
			}
			if math.Abs(resistance-price)/price < levelProximity {
				patterns = append(patterns, fmt.Sprintf("price testing resistance %.5f", resistance))
			}
		}
	}

	if levels, ok := technical.Fibonacci(candles); ok {
		price := candles[len(candles)-1].Close
		if price > 0 && math.Abs(price-levels.Level618)/price < levelProximity {
			patterns = append(patterns, "price at 61.8% retracement")
		}
	}

	return patterns
}

// sumRollingVolatility accumulates the close-price standard deviation over a
// sliding window across the whole series
func sumRollingVolatility(closes []float64, window int) float64 {
	if len(closes) < 2 {
		return 0
	}

	total := 0.0
	for i := window; i <= len(closes); i += window {
		total += technical.Volatility(closes[i-window : i])
	}
	// Tail shorter than one window still contributes
	if rem := len(closes) % window; rem >= 2 {
		total += technical.Volatility(closes[len(closes)-rem:])
	}

	return total
}
