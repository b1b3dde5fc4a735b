package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Calibration holds the tunable weights and thresholds of the training
// formulas. Defaults reproduce the original calibration; a YAML file can
// override any subset of them.
type Calibration struct {
	Experience struct {
		CandleWeight     float64 `yaml:"candle_weight"`
		VolatilityWeight float64 `yaml:"volatility_weight"`
		VolumeWeight     float64 `yaml:"volume_weight"`
	} `yaml:"experience"`

	Confidence struct {
		JitterMin             float64 `yaml:"jitter_min"`
		JitterMax             float64 `yaml:"jitter_max"`
		LargeSeriesCandles    int     `yaml:"large_series_candles"`
		LargeSeriesMultiplier float64 `yaml:"large_series_multiplier"`
		SpecialtyMultiplier   float64 `yaml:"specialty_multiplier"`
		Cap                   float64 `yaml:"cap"`
	} `yaml:"confidence"`

	Engine struct {
		UpgradeGainThreshold float64 `yaml:"upgrade_gain_threshold"`
		EnsembleConfidence   float64 `yaml:"ensemble_confidence"`
		TopTierConfidence    float64 `yaml:"top_tier_confidence"`
	} `yaml:"engine"`

	Risk struct {
		MediumVolatilityPct float64 `yaml:"medium_volatility_pct"`
		HighVolatilityPct   float64 `yaml:"high_volatility_pct"`
		HighDrawdownPct     float64 `yaml:"high_drawdown_pct"`
		MediumVaRPct        float64 `yaml:"medium_var_pct"`
		HighVaRPct          float64 `yaml:"high_var_pct"`
		LowPositionPct      float64 `yaml:"low_position_pct"`
		MediumPositionPct   float64 `yaml:"medium_position_pct"`
		HighPositionPct     float64 `yaml:"high_position_pct"`
	} `yaml:"risk"`
}

// DefaultCalibration returns the baseline training calibration
func DefaultCalibration() Calibration {
	var c Calibration

	c.Experience.CandleWeight = 0.1
	c.Experience.VolatilityWeight = 10.0
	c.Experience.VolumeWeight = 0.001

	c.Confidence.JitterMin = 0.001
	c.Confidence.JitterMax = 0.01
	c.Confidence.LargeSeriesCandles = 1000
	c.Confidence.LargeSeriesMultiplier = 1.5
	c.Confidence.SpecialtyMultiplier = 1.2
	c.Confidence.Cap = 0.98

	c.Engine.UpgradeGainThreshold = 0.005
	c.Engine.EnsembleConfidence = 0.8
	c.Engine.TopTierConfidence = 0.9

	c.Risk.MediumVolatilityPct = 1.0
	c.Risk.HighVolatilityPct = 2.5
	c.Risk.HighDrawdownPct = 10.0
	c.Risk.MediumVaRPct = 3.0
	c.Risk.HighVaRPct = 5.0
	c.Risk.LowPositionPct = 0.05
	c.Risk.MediumPositionPct = 0.03
	c.Risk.HighPositionPct = 0.01

	return c
}

// LoadCalibration reads calibration overrides from a YAML file. An empty
// path returns the defaults unchanged.
func LoadCalibration(path string) (Calibration, error) {
	cal := DefaultCalibration()
	if path == "" {
		return cal, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cal, fmt.Errorf("read calibration file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cal); err != nil {
		return cal, fmt.Errorf("parse calibration file: %w", err)
	}

	return cal, nil
}
