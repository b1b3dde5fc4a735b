package training

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ndefokin/botarmy/internal/agent"
	"github.com/ndefokin/botarmy/models"
)

// DefaultBatchSize bounds per-batch concurrency against large populations
const DefaultBatchSize = 50

// AgentTrainer trains one agent against a shared read-only series
type AgentTrainer interface {
	Train(a *models.Agent, series *models.CandleSeries) (models.LearningEvent, error)
}

// BatchTrainer drives concurrent training of a whole population in
// fixed-size batches
type BatchTrainer struct {
	trainer   AgentTrainer
	batchSize int
}

// NewBatchTrainer creates a population trainer
func NewBatchTrainer(trainer AgentTrainer, batchSize int) *BatchTrainer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchTrainer{trainer: trainer, batchSize: batchSize}
}

// TrainPopulation trains every active agent against the series. Agents within
// a batch train concurrently and independently; batches run strictly one
// after another. A single agent's failure is recorded and never aborts the
// run. Cancellation is honored between batches and yields a valid partial
// result.
func (bt *BatchTrainer) TrainPopulation(ctx context.Context, agents []*models.Agent, series *models.CandleSeries) (*models.TrainingRun, error) {
	if series == nil || series.Len() == 0 {
		return nil, ErrEmptySeries
	}

	run := &models.TrainingRun{
		StartedAt:        time.Now(),
		TierUps:          make(map[string]int),
		DataQualityScore: series.QualityScore,
	}

	// Aggregate counters are the only shared mutable state; every write
	// goes through this mutex
	var mu sync.Mutex

	totalBatches := (len(agents) + bt.batchSize - 1) / bt.batchSize

	for batchIndex := 0; batchIndex < totalBatches; batchIndex++ {
		// Cooperative cancellation between batches: completed batches
		// remain valid and are reported as a partial run
		if err := ctx.Err(); err != nil {
			log.Warn().
				Int("batches_completed", batchIndex).
				Int("batches_total", totalBatches).
				Msg("Training cancelled, reporting partial run")
			break
		}

		start := batchIndex * bt.batchSize
		end := start + bt.batchSize
		if end > len(agents) {
			end = len(agents)
		}

		var wg sync.WaitGroup
		for _, a := range agents[start:end] {
			if !a.Active {
				continue
			}

			wg.Add(1)
			go func(a *models.Agent) {
				defer wg.Done()
				bt.trainOne(a, series, run, &mu)
			}(a)
		}
		wg.Wait()

		log.Debug().
			Int("batch", batchIndex+1).
			Int("batches_total", totalBatches).
			Int("agents_processed", run.AgentsProcessed).
			Msg("Batch complete")
	}

	run.Elapsed = time.Since(run.StartedAt)

	return run, nil
}

// trainOne trains a single agent and folds the outcome into the aggregate
// counters. The agent record is owned by this goroutine until it returns.
func (bt *BatchTrainer) trainOne(a *models.Agent, series *models.CandleSeries, run *models.TrainingRun, mu *sync.Mutex) {
	// One misbehaving agent must never take down the batch
	defer func() {
		if r := recover(); r != nil {
			mu.Lock()
			run.Errors = append(run.Errors, fmt.Sprintf("agent %s: panic: %v", a.ID, r))
			mu.Unlock()
		}
	}()

	oldConfidence := a.Confidence

	event, err := bt.trainer.Train(a, series)
	if err != nil {
		mu.Lock()
		run.Errors = append(run.Errors, fmt.Sprintf("agent %s: %v", a.ID, err))
		mu.Unlock()
		return
	}

	crossed := agent.TiersCrossed(oldConfidence, a.Confidence)

	mu.Lock()
	run.AgentsProcessed++
	run.CandlesProcessed += event.CandlesProcessed
	run.TotalExperienceGained += event.ExperienceGained
	run.TotalConfidenceGained += event.ConfidenceGained
	for _, tier := range crossed {
		run.TierUps[tier]++
		if tier == models.TierElite {
			run.NewEliteCount++
		}
	}
	mu.Unlock()
}
