package consensus

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ndefokin/botarmy/internal/analysis/technical"
	"github.com/ndefokin/botarmy/models"
)

// ErrInsufficientData is returned by built-in sources when the market context
// carries too little history for their indicator set
var ErrInsufficientData = errors.New("insufficient candle history for analysis")

// TrendSource votes from the least-squares trend classification
type TrendSource struct{}

// Name implements models.AnalysisSource
func (TrendSource) Name() string { return "trend-regression" }

// Opinion implements models.AnalysisSource
func (s TrendSource) Opinion(ctx context.Context, market models.MarketContext) (models.SourceOpinion, error) {
	if err := ctx.Err(); err != nil {
		return models.SourceOpinion{}, err
	}

	trend := technical.ClassifyTrend(market.Candles)
	if trend == "" {
		return models.SourceOpinion{}, ErrInsufficientData
	}

	closes := make([]float64, len(market.Candles))
	for i, c := range market.Candles {
		closes[i] = c.Close
	}
	slope := technical.LeastSquaresSlope(closes[len(closes)-20:])

	// Slope magnitude relative to price scales the conviction
	strength := 0.0
	if market.Price > 0 {
		strength = math.Min(0.4, math.Abs(slope)/market.Price*1000)
	}

	opinion := models.SourceOpinion{
		SourceName: s.Name(),
		Confidence: 0.5 + strength,
		Rationale:  fmt.Sprintf("trend classified as %s, slope %.6f", trend, slope),
		Insights:   []string{trend},
	}

	switch trend {
	case technical.TrendStrongUptrend:
		opinion.Sentiment = models.SentimentBullish
		opinion.Signal = models.SignalBuy
	case technical.TrendStrongDowntrend:
		opinion.Sentiment = models.SentimentBearish
		opinion.Signal = models.SignalSell
	case technical.TrendReversal:
		opinion.Sentiment = models.SentimentBearish
		opinion.Signal = models.SignalHold
		opinion.Insights = append(opinion.Insights, "short-term reversal against medium trend")
	default:
		opinion.Sentiment = models.SentimentNeutral
		opinion.Signal = models.SignalHold
	}

	return opinion, nil
}

// PatternSource votes from price-action patterns on the last candles
type PatternSource struct{}

// Name implements models.AnalysisSource
func (PatternSource) Name() string { return "price-action" }

// Opinion implements models.AnalysisSource
func (s PatternSource) Opinion(ctx context.Context, market models.MarketContext) (models.SourceOpinion, error) {
	if err := ctx.Err(); err != nil {
		return models.SourceOpinion{}, err
	}

	candles := market.Candles
	if len(candles) < 10 {
		return models.SourceOpinion{}, ErrInsufficientData
	}

	opinion := models.SourceOpinion{
		SourceName: s.Name(),
		Sentiment:  models.SentimentNeutral,
		Signal:     models.SignalHold,
		Confidence: 0.5,
	}

	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	// Bullish engulfing
	if last.Close > last.Open &&
		prev.Close < prev.Open &&
		last.Open < prev.Close &&
		last.Close > prev.Open {
		opinion.Sentiment = models.SentimentBullish
		opinion.Signal = models.SignalBuy
		opinion.Confidence = 0.7
		opinion.Insights = append(opinion.Insights, "bullish engulfing pattern")
	}

	// Bearish engulfing
	if last.Close < last.Open &&
		prev.Close > prev.Open &&
		last.Open > prev.Close &&
		last.Close < prev.Open {
		opinion.Sentiment = models.SentimentBearish
		opinion.Signal = models.SignalSell
		opinion.Confidence = 0.7
		opinion.Insights = append(opinion.Insights, "bearish engulfing pattern")
	}

	// Momentum over the last 10 candles backs up or tempers the pattern read
	reference := candles[len(candles)-10].Close
	if reference > 0 {
		momentum := (last.Close - reference) / reference
		switch {
		case momentum > 0.01:
			opinion.Insights = append(opinion.Insights, "strong positive momentum")
			if opinion.Sentiment == models.SentimentNeutral {
				opinion.Sentiment = models.SentimentBullish
				opinion.Confidence = 0.55
			}
		case momentum < -0.01:
			opinion.Insights = append(opinion.Insights, "strong negative momentum")
			if opinion.Sentiment == models.SentimentNeutral {
				opinion.Sentiment = models.SentimentBearish
				opinion.Confidence = 0.55
			}
		}
	}

	opinion.Rationale = fmt.Sprintf("price action over last %d candles", len(candles))

	return opinion, nil
}

// VolumeSource votes from the up/down volume split and the volume profile
type VolumeSource struct{}

// Name implements models.AnalysisSource
func (VolumeSource) Name() string { return "volume-flow" }

// Opinion implements models.AnalysisSource
func (s VolumeSource) Opinion(ctx context.Context, market models.MarketContext) (models.SourceOpinion, error) {
	if err := ctx.Err(); err != nil {
		return models.SourceOpinion{}, err
	}

	candles := market.Candles
	if len(candles) < 5 {
		return models.SourceOpinion{}, ErrInsufficientData
	}

	flow, ratio := technical.VolumeFlow(candles)

	opinion := models.SourceOpinion{
		SourceName: s.Name(),
		Sentiment:  flow,
		Signal:     models.SignalHold,
		Confidence: 0.5 + math.Abs(ratio-0.5)/2,
		Rationale:  fmt.Sprintf("up-volume ratio %.2f", ratio),
	}

	profile := technical.VolumeProfile(candles)
	switch profile {
	case technical.VolumeBreakout:
		opinion.Insights = append(opinion.Insights, "volume breakout")
		// A breakout confirms the flow direction strongly enough to act on
		if flow == models.SentimentBullish {
			opinion.Signal = models.SignalBuy
		} else if flow == models.SentimentBearish {
			opinion.Signal = models.SignalSell
		}
	case technical.VolumeConsolidation:
		opinion.Insights = append(opinion.Insights, "volume consolidation")
	case "":
		// No volume data at all makes this source blind
		return models.SourceOpinion{}, ErrInsufficientData
	}

	return opinion, nil
}
