package models

import (
	"time"
)

// Candle represents a single price candle
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume,omitempty"`
}

// Valid reports whether the candle satisfies the basic OHLC invariants
func (c Candle) Valid() bool {
	if c.High < c.Low {
		return false
	}
	if c.High < c.Open || c.High < c.Close {
		return false
	}
	if c.Low > c.Open || c.Low > c.Close {
		return false
	}
	return true
}

// CandleSeries is a validated, time-ordered candle sequence produced by the parser
type CandleSeries struct {
	Candles      []Candle `json:"candles"`
	QualityScore float64  `json:"quality_score"` // 0-100, degraded by gaps and outliers
}

// Len returns the number of candles in the series
func (s *CandleSeries) Len() int {
	return len(s.Candles)
}

// Closes extracts the close price series
func (s *CandleSeries) Closes() []float64 {
	closes := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		closes[i] = c.Close
	}
	return closes
}

// Trading signal constants
const (
	SignalBuy  = "BUY"
	SignalSell = "SELL"
	SignalHold = "HOLD"
)

// Market sentiment constants
const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentNeutral = "neutral"
	SentimentNone    = "none"
)

// Agent strategy constants
const (
	StrategyScalping = "scalping"
	StrategySwing    = "swing"
	StrategyMomentum = "momentum"
	StrategyReversal = "reversal"
	StrategyBreakout = "breakout"
	StrategyGrid     = "grid"
)

// Agent specialization constants
const (
	SpecializationTechnical   = "technical"
	SpecializationPattern     = "pattern"
	SpecializationVolume      = "volume"
	SpecializationVolatility  = "volatility"
	SpecializationFundamental = "fundamental"
)

// Analysis engine tags, ordered from weakest to strongest
const (
	EngineBaseline = "baseline"
	EngineEnsemble = "ensemble"
	EngineTopTier  = "top-tier"
)

// Performance tier constants derived from confidence bands
const (
	TierTraining    = "training"    // < 0.60
	TierSkilled     = "skilled"     // [0.60, 0.70)
	TierExpert      = "expert"      // [0.70, 0.80)
	TierElite       = "elite"       // [0.80, 0.90)
	TierExceptional = "exceptional" // [0.90, 0.95)
	TierTopTier     = "top-tier"    // >= 0.95
)

// Risk level constants
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// RiskProfile holds the fixed risk limits assigned to an agent at creation
type RiskProfile struct {
	Name            string  `json:"name"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	MaxPositionSize float64 `json:"max_position_size"`
	StopLossPct     float64 `json:"stop_loss_pct"`
	TakeProfitRatio float64 `json:"take_profit_ratio"`
}

// Agent represents one simulated trading bot with persistent identity
type Agent struct {
	ID               string          `json:"id"`
	SequenceNumber   int             `json:"sequence_number"`
	Name             string          `json:"name"`
	Strategy         string          `json:"strategy"`
	Specialization   string          `json:"specialization"`
	AnalysisEngine   string          `json:"analysis_engine"`
	Experience       float64         `json:"experience"`
	Confidence       float64         `json:"confidence"`
	Wins             int             `json:"wins"`
	Losses           int             `json:"losses"`
	TotalTrades      int             `json:"total_trades"`
	CumulativeProfit float64         `json:"cumulative_profit"`
	RiskProfile      RiskProfile     `json:"risk_profile"`
	LearningHistory  []LearningEvent `json:"learning_history,omitempty"`
	LastTrainingTime time.Time       `json:"last_training_time"`
	Active           bool            `json:"active"`
}

// WinRate returns the fraction of closed trades the agent won
func (a *Agent) WinRate() float64 {
	closed := a.Wins + a.Losses
	if closed == 0 {
		return 0
	}
	return float64(a.Wins) / float64(closed)
}

// MarketSnapshot summarizes market conditions at training time
type MarketSnapshot struct {
	Price      float64 `json:"price"`
	Volume     int64   `json:"volume"`
	Trend      string  `json:"trend"`
	Volatility float64 `json:"volatility"`
}

// RiskAssessment is the per-training risk read computed from volatility metrics
type RiskAssessment struct {
	Level            string  `json:"level"`
	Volatility       float64 `json:"volatility"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	ValueAtRisk      float64 `json:"value_at_risk"`
	PositionFraction float64 `json:"position_fraction"` // recommended fraction of capital
}

// LearningEvent records a single training pass in an agent's history
type LearningEvent struct {
	Timestamp          time.Time      `json:"timestamp"`
	CandlesProcessed   int            `json:"candles_processed"`
	ExperienceGained   float64        `json:"experience_gained"`
	ConfidenceGained   float64        `json:"confidence_gained"`
	DiscoveredPatterns []string       `json:"discovered_patterns,omitempty"`
	EngineUsed         string         `json:"engine_used"`
	MarketSnapshot     MarketSnapshot `json:"market_snapshot"`
	RiskAssessment     RiskAssessment `json:"risk_assessment"`
}

// TrainingRun aggregates the results of one population training invocation
type TrainingRun struct {
	StartedAt             time.Time      `json:"started_at"`
	AgentsProcessed       int            `json:"agents_processed"`
	CandlesProcessed      int            `json:"candles_processed"`
	TotalExperienceGained float64        `json:"total_experience_gained"`
	TotalConfidenceGained float64        `json:"total_confidence_gained"`
	NewEliteCount         int            `json:"new_elite_count"`
	TierUps               map[string]int `json:"tier_ups"`
	Errors                []string       `json:"errors,omitempty"`
	Elapsed               time.Duration  `json:"elapsed"`
	DataQualityScore      float64        `json:"data_quality_score"`
}

// MarketContext is the input handed to every consensus analysis source
type MarketContext struct {
	Symbol      string    `json:"symbol"`
	Price       float64   `json:"price"`
	Volume      int64     `json:"volume"`
	RecentTrend string    `json:"recent_trend"`
	Candles     []Candle  `json:"-"`
	Timestamp   time.Time `json:"timestamp"`
}

// SourceOpinion is one analysis source's answer to a consensus query
type SourceOpinion struct {
	SourceName string   `json:"source_name"`
	Sentiment  string   `json:"sentiment"`
	Signal     string   `json:"signal"`
	Confidence float64  `json:"confidence"`
	Rationale  string   `json:"rationale,omitempty"`
	Insights   []string `json:"insights,omitempty"`
}

// ConsensusAnalysis is the merged decision across all responding sources
type ConsensusAnalysis struct {
	Sentiment      string    `json:"sentiment"`
	Signal         string    `json:"signal"`
	Confidence     float64   `json:"confidence"`
	AgreementScore float64   `json:"agreement_score"`
	SourceCount    int       `json:"source_count"`
	KeyInsights    []string  `json:"key_insights,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
