package consensus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ndefokin/botarmy/models"
)

// ErrNoConsensus is returned when zero sources respond. Callers should treat
// it as a hard stop, unlike a low agreement score which merely flags caution.
var ErrNoConsensus = errors.New("no analysis source responded")

// DefaultSourceTimeout bounds each source query
const DefaultSourceTimeout = 2 * time.Second

// Maximum insight strings surfaced to downstream display
const maxKeyInsights = 5

// Engine reduces independent source opinions into one consensus decision.
// It holds no state between calls beyond the configured source set.
type Engine struct {
	sources []models.AnalysisSource
	timeout time.Duration
}

// NewEngine creates a consensus engine over a fixed source set
func NewEngine(timeout time.Duration, sources ...models.AnalysisSource) *Engine {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	return &Engine{sources: sources, timeout: timeout}
}

// Analyze queries every source concurrently and merges the responses. A
// source that errors or times out is excluded from the vote; the call fails
// only when nobody responds.
func (e *Engine) Analyze(ctx context.Context, market models.MarketContext) (*models.ConsensusAnalysis, error) {
	var (
		mu       sync.Mutex
		opinions []models.SourceOpinion
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, source := range e.sources {
		source := source
		g.Go(func() error {
			sourceCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			opinion, err := querySource(sourceCtx, source, market)
			if err != nil {
				// Excluded from the vote, never fatal to the call
				log.Debug().Err(err).Str("source", source.Name()).Msg("Analysis source excluded")
				return nil
			}

			mu.Lock()
			opinions = append(opinions, opinion)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(opinions) == 0 {
		return nil, ErrNoConsensus
	}

	return reduce(opinions), nil
}

// querySource runs one source query and enforces its timeout even when the
// implementation ignores ctx
func querySource(ctx context.Context, source models.AnalysisSource, market models.MarketContext) (models.SourceOpinion, error) {
	type result struct {
		opinion models.SourceOpinion
		err     error
	}

	ch := make(chan result, 1)
	go func() {
		opinion, err := source.Opinion(ctx, market)
		ch <- result{opinion, err}
	}()

	select {
	case r := <-ch:
		return r.opinion, r.err
	case <-ctx.Done():
		return models.SourceOpinion{}, ctx.Err()
	}
}

// reduce merges responding opinions into the consensus decision
func reduce(opinions []models.SourceOpinion) *models.ConsensusAnalysis {
	sentimentVotes := make(map[string]int)
	signalVotes := make(map[string]int)
	totalConfidence := 0.0

	for _, op := range opinions {
		if op.Sentiment != "" && op.Sentiment != models.SentimentNone {
			sentimentVotes[op.Sentiment]++
		}
		if op.Signal != "" {
			signalVotes[op.Signal]++
		}
		totalConfidence += op.Confidence
	}

	// Plurality with conservative tie-breaks
	sentiment, sentimentCount := plurality(sentimentVotes, models.SentimentNeutral)
	signal, signalCount := plurality(signalVotes, models.SignalHold)

	responding := float64(len(opinions))
	agreement := (float64(sentimentCount)/responding + float64(signalCount)/responding) / 2

	return &models.ConsensusAnalysis{
		Sentiment:      sentiment,
		Signal:         signal,
		Confidence:     totalConfidence / responding,
		AgreementScore: agreement,
		SourceCount:    len(opinions),
		KeyInsights:    collectInsights(opinions),
		Timestamp:      time.Now(),
	}
}

// plurality picks the option with the most votes; any tie resolves to the
// conservative fallback
func plurality(votes map[string]int, fallback string) (string, int) {
	winner := fallback
	winnerVotes := 0
	tied := false

	for option, count := range votes {
		switch {
		case count > winnerVotes:
			winner = option
			winnerVotes = count
			tied = false
		case count == winnerVotes && option != winner:
			tied = true
		}
	}

	if tied || winnerVotes == 0 {
		return fallback, votes[fallback]
	}
	return winner, winnerVotes
}

// collectInsights dedupes and caps the union of source insights
func collectInsights(opinions []models.SourceOpinion) []string {
	seen := make(map[string]bool)
	var insights []string

	for _, op := range opinions {
		for _, insight := range op.Insights {
			if insight == "" || seen[insight] {
				continue
			}
			seen[insight] = true
			insights = append(insights, insight)
			if len(insights) == maxKeyInsights {
				return insights
			}
		}
	}

	return insights
}
