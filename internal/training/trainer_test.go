package training

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ndefokin/botarmy/internal/config"
	"github.com/ndefokin/botarmy/models"
)

func makeSeries(n int) *models.CandleSeries {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		base := 100 + math.Sin(float64(i)/10)*5 + float64(i)*0.01
		candles[i] = models.Candle{
			Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			Open:      base,
			High:      base + 1,
			Low:       base - 1,
			Close:     base + 0.5,
			Volume:    1000 + int64(i%7)*100,
		}
	}
	return &models.CandleSeries{Candles: candles, QualityScore: 100}
}

// fixedJitterCalibration pins the confidence jitter so training is
// deterministic under test
func fixedJitterCalibration(jitter float64) config.Calibration {
	cal := config.DefaultCalibration()
	cal.Confidence.JitterMin = jitter
	cal.Confidence.JitterMax = jitter
	return cal
}

func TestTrainEmptySeries(t *testing.T) {
	trainer := NewTrainer(config.DefaultCalibration(), 0)
	a := &models.Agent{Confidence: 0.5, Active: true}

	if _, err := trainer.Train(a, &models.CandleSeries{}); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("Train() error = %v, want ErrEmptySeries", err)
	}
	if _, err := trainer.Train(a, nil); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("Train(nil) error = %v, want ErrEmptySeries", err)
	}
}

func TestTrainConfidenceMonotonicAndCapped(t *testing.T) {
	trainer := NewTrainer(config.DefaultCalibration(), 0)
	series := makeSeries(100)
	a := &models.Agent{Confidence: 0.5, Specialization: models.SpecializationTechnical, Active: true}

	for i := 0; i < 600; i++ {
		before := a.Confidence
		if _, err := trainer.Train(a, series); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		if a.Confidence < before {
			t.Fatalf("confidence decreased from %v to %v", before, a.Confidence)
		}
		if a.Confidence > 0.98 {
			t.Fatalf("confidence %v exceeded the 0.98 cap", a.Confidence)
		}
	}

	// 600 passes at the minimum jitter must have hit the cap
	if a.Confidence != 0.98 {
		t.Errorf("confidence = %v after 600 passes, want the 0.98 cap", a.Confidence)
	}
}

func TestTrainExperienceFormula(t *testing.T) {
	// Zero out the stochastic-free components one at a time
	cal := fixedJitterCalibration(0.005)
	cal.Experience.VolatilityWeight = 0
	cal.Experience.VolumeWeight = 0
	trainer := NewTrainer(cal, 0)

	series := makeSeries(200)
	a := &models.Agent{Confidence: 0.5, Active: true}

	event, err := trainer.Train(a, series)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	// Only the candle-count term remains: 0.1 * 200
	if math.Abs(event.ExperienceGained-20) > 1e-9 {
		t.Errorf("experience gained = %v, want 20", event.ExperienceGained)
	}
	if math.Abs(a.Experience-20) > 1e-9 {
		t.Errorf("agent experience = %v, want 20", a.Experience)
	}
}

func TestTrainLargeSeriesMultiplier(t *testing.T) {
	cal := fixedJitterCalibration(0.004)
	trainer := NewTrainer(cal, 0)

	small := &models.Agent{Confidence: 0.5, Active: true}
	large := &models.Agent{Confidence: 0.5, Active: true}

	if _, err := trainer.Train(small, makeSeries(500)); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if _, err := trainer.Train(large, makeSeries(1200)); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	if math.Abs(small.Confidence-0.504) > 1e-9 {
		t.Errorf("small-series confidence = %v, want 0.504", small.Confidence)
	}
	if math.Abs(large.Confidence-0.506) > 1e-9 {
		t.Errorf("large-series confidence = %v, want 0.506 (1.5x multiplier)", large.Confidence)
	}
}

func TestTrainRecordsLearningEvent(t *testing.T) {
	trainer := NewTrainer(config.DefaultCalibration(), 3)
	series := makeSeries(100)
	a := &models.Agent{Confidence: 0.5, Active: true}

	before := time.Now()
	event, err := trainer.Train(a, series)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	if a.LastTrainingTime.Before(before) {
		t.Error("lastTrainingTime not updated")
	}
	if len(a.LearningHistory) != 1 {
		t.Fatalf("history length = %d, want 1", len(a.LearningHistory))
	}
	if event.CandlesProcessed != 100 {
		t.Errorf("candles processed = %d, want 100", event.CandlesProcessed)
	}
	if len(event.DiscoveredPatterns) == 0 {
		t.Error("no patterns discovered on a 100-candle series")
	}
	if event.RiskAssessment.Level == "" {
		t.Error("risk assessment missing from learning event")
	}
	if event.RiskAssessment.PositionFraction <= 0 {
		t.Error("risk assessment carries no position-size recommendation")
	}

	// History ring buffer honors its cap
	for i := 0; i < 10; i++ {
		if _, err := trainer.Train(a, series); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
	}
	if len(a.LearningHistory) != 3 {
		t.Errorf("history length = %d, want cap of 3", len(a.LearningHistory))
	}
}

func TestEngineUpgradeMonotonicOneStep(t *testing.T) {
	trainer := NewTrainer(fixedJitterCalibration(0.01), 0)
	series := makeSeries(100)

	// An agent just under the ensemble threshold upgrades exactly one step
	a := &models.Agent{Confidence: 0.795, AnalysisEngine: models.EngineBaseline, Active: true}
	if _, err := trainer.Train(a, series); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if a.AnalysisEngine != models.EngineEnsemble {
		t.Errorf("engine = %q, want ensemble", a.AnalysisEngine)
	}

	// Even with very high confidence a baseline engine cannot skip a step
	b := &models.Agent{Confidence: 0.93, AnalysisEngine: models.EngineBaseline, Active: true}
	if _, err := trainer.Train(b, series); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if b.AnalysisEngine != models.EngineEnsemble {
		t.Errorf("engine = %q, want ensemble (no step skipping)", b.AnalysisEngine)
	}

	// The next qualifying pass finishes the climb
	if _, err := trainer.Train(b, series); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if b.AnalysisEngine != models.EngineTopTier {
		t.Errorf("engine = %q, want top-tier", b.AnalysisEngine)
	}
}

func TestEngineNeverDowngrades(t *testing.T) {
	// A tiny gain below the upgrade threshold must leave the engine alone
	cal := fixedJitterCalibration(0.001)
	trainer := NewTrainer(cal, 0)
	series := makeSeries(100)

	a := &models.Agent{Confidence: 0.97, AnalysisEngine: models.EngineTopTier, Active: true}
	for i := 0; i < 20; i++ {
		if _, err := trainer.Train(a, series); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		if a.AnalysisEngine != models.EngineTopTier {
			t.Fatalf("engine downgraded to %q", a.AnalysisEngine)
		}
	}
}
