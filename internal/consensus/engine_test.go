package consensus

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ndefokin/botarmy/models"
)

// fakeSource returns a scripted opinion, optionally after a delay
type fakeSource struct {
	name    string
	opinion models.SourceOpinion
	err     error
	delay   time.Duration
}

func (f fakeSource) Name() string { return f.name }

func (f fakeSource) Opinion(ctx context.Context, market models.MarketContext) (models.SourceOpinion, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return models.SourceOpinion{}, ctx.Err()
		}
	}
	if f.err != nil {
		return models.SourceOpinion{}, f.err
	}
	return f.opinion, nil
}

func opinion(name, sentiment, signal string, confidence float64, insights ...string) fakeSource {
	return fakeSource{
		name: name,
		opinion: models.SourceOpinion{
			SourceName: name,
			Sentiment:  sentiment,
			Signal:     signal,
			Confidence: confidence,
			Insights:   insights,
		},
	}
}

func TestConsensusTieBreaks(t *testing.T) {
	engine := NewEngine(time.Second,
		opinion("a", models.SentimentBullish, models.SignalBuy, 0.9),
		opinion("b", models.SentimentBearish, models.SignalSell, 0.9),
		opinion("c", models.SentimentNeutral, models.SignalHold, 0.9),
	)

	analysis, err := engine.Analyze(context.Background(), models.MarketContext{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if analysis.Sentiment != models.SentimentNeutral {
		t.Errorf("sentiment = %q, want neutral on a three-way tie", analysis.Sentiment)
	}
	if analysis.Signal != models.SignalHold {
		t.Errorf("signal = %q, want HOLD on a three-way tie", analysis.Signal)
	}
	if analysis.SourceCount != 3 {
		t.Errorf("sourceCount = %d, want 3", analysis.SourceCount)
	}
}

func TestConsensusPluralityAndAgreement(t *testing.T) {
	engine := NewEngine(time.Second,
		opinion("a", models.SentimentBullish, models.SignalBuy, 0.8),
		opinion("b", models.SentimentBullish, models.SignalBuy, 0.8),
		opinion("c", models.SentimentBearish, models.SignalSell, 0.5),
	)

	analysis, err := engine.Analyze(context.Background(), models.MarketContext{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if analysis.Sentiment != models.SentimentBullish {
		t.Errorf("sentiment = %q, want bullish", analysis.Sentiment)
	}
	if analysis.Signal != models.SignalBuy {
		t.Errorf("signal = %q, want BUY", analysis.Signal)
	}
	if math.Abs(analysis.Confidence-0.7) > 1e-9 {
		t.Errorf("confidence = %v, want 0.7 (mean)", analysis.Confidence)
	}
	if math.Abs(analysis.AgreementScore-2.0/3.0) > 1e-9 {
		t.Errorf("agreement = %v, want 2/3", analysis.AgreementScore)
	}
}

func TestConsensusDegradesOnTimeouts(t *testing.T) {
	slow := fakeSource{name: "slow", delay: 500 * time.Millisecond}
	failing := fakeSource{name: "broken", err: errors.New("backend down")}

	engine := NewEngine(50*time.Millisecond,
		opinion("a", models.SentimentBullish, models.SignalBuy, 0.8),
		slow,
		opinion("b", models.SentimentBullish, models.SignalBuy, 0.6),
		failing,
		opinion("c", models.SentimentNeutral, models.SignalHold, 0.4),
	)

	analysis, err := engine.Analyze(context.Background(), models.MarketContext{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if analysis.SourceCount != 3 {
		t.Errorf("sourceCount = %d, want 3 (slow and broken sources excluded)", analysis.SourceCount)
	}
	if analysis.Sentiment != models.SentimentBullish {
		t.Errorf("sentiment = %q, want bullish from the responding majority", analysis.Sentiment)
	}
}

func TestConsensusNoSources(t *testing.T) {
	engine := NewEngine(50*time.Millisecond,
		fakeSource{name: "a", err: errors.New("down")},
		fakeSource{name: "b", delay: time.Second},
	)

	if _, err := engine.Analyze(context.Background(), models.MarketContext{}); !errors.Is(err, ErrNoConsensus) {
		t.Errorf("Analyze() error = %v, want ErrNoConsensus", err)
	}
}

func TestConsensusInsightsDedupedAndCapped(t *testing.T) {
	engine := NewEngine(time.Second,
		opinion("a", models.SentimentBullish, models.SignalBuy, 0.8, "uptrend", "breakout", "momentum"),
		opinion("b", models.SentimentBullish, models.SignalBuy, 0.8, "uptrend", "support held", "volume surge"),
		opinion("c", models.SentimentBullish, models.SignalBuy, 0.8, "fib retracement", "one more", "and another"),
	)

	analysis, err := engine.Analyze(context.Background(), models.MarketContext{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(analysis.KeyInsights) != maxKeyInsights {
		t.Fatalf("keyInsights length = %d, want cap of %d", len(analysis.KeyInsights), maxKeyInsights)
	}
	seen := make(map[string]bool)
	for _, insight := range analysis.KeyInsights {
		if seen[insight] {
			t.Errorf("duplicate insight %q", insight)
		}
		seen[insight] = true
	}
}

func TestConsensusIgnoresNoneSentiment(t *testing.T) {
	engine := NewEngine(time.Second,
		opinion("a", models.SentimentNone, models.SignalHold, 0.3),
		opinion("b", models.SentimentBearish, models.SignalSell, 0.6),
	)

	analysis, err := engine.Analyze(context.Background(), models.MarketContext{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.Sentiment != models.SentimentBearish {
		t.Errorf("sentiment = %q, want bearish (none votes excluded)", analysis.Sentiment)
	}
	if analysis.SourceCount != 2 {
		t.Errorf("sourceCount = %d, want 2", analysis.SourceCount)
	}
}

func TestConsensusStateless(t *testing.T) {
	engine := NewEngine(time.Second,
		opinion("a", models.SentimentBullish, models.SignalBuy, 0.8),
		opinion("b", models.SentimentBearish, models.SignalSell, 0.6),
		opinion("c", models.SentimentBullish, models.SignalBuy, 0.7),
	)

	first, err := engine.Analyze(context.Background(), models.MarketContext{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	second, err := engine.Analyze(context.Background(), models.MarketContext{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if first.Sentiment != second.Sentiment || first.Signal != second.Signal ||
		first.Confidence != second.Confidence || first.AgreementScore != second.AgreementScore {
		t.Error("repeated Analyze() calls diverged; engine retained state between calls")
	}
}
