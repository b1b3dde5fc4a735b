package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ndefokin/botarmy/internal/agent"
	"github.com/ndefokin/botarmy/internal/config"
	"github.com/ndefokin/botarmy/internal/consensus"
	"github.com/ndefokin/botarmy/internal/gateway"
	"github.com/ndefokin/botarmy/internal/parser"
	"github.com/ndefokin/botarmy/internal/training"
	"github.com/ndefokin/botarmy/models"
)

const (
	topAgentLimit = 20
	syncTimeout   = 30 * time.Second
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	setupSignalHandling(cancel)

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting bot army trainer")

	// 3. Load training calibration
	cal, err := config.LoadCalibration(cfg.CalibrationFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.CalibrationFile).Msg("Failed to load calibration")
	}

	// 4. Parse the historical candle series. An empty series is a hard
	// stop; training must never run against no data.
	series, err := parser.ParseFile(cfg.DataFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.DataFile).Msg("Failed to load candle series")
	}
	log.Info().
		Int("candles", series.Len()).
		Float64("quality_score", series.QualityScore).
		Msg("Candle series loaded")

	// 5. Initialize the agent population
	population := agent.NewPopulation(cfg.PopulationSize)
	log.Info().Int("agents", len(population)).Msg("Population initialized")

	// 6. Assemble collaborator gateway from whatever is configured
	gw := buildGateway(cfg)

	// 7. Wire the trainers and the consensus engine
	trainer := training.NewTrainer(cal, cfg.HistoryLimit)
	batchTrainer := training.NewBatchTrainer(trainer, cfg.BatchSize)
	engine := consensus.NewEngine(cfg.SourceTimeout,
		consensus.TrendSource{},
		consensus.PatternSource{},
		consensus.VolumeSource{},
	)

	var syncWG sync.WaitGroup
	runTraining := func() {
		trainAndSync(ctx, batchTrainer, population, series, gw, &syncWG)
		reportConsensus(ctx, engine, cfg.Symbol, series)
	}

	// 8. Train immediately, then on the configured cadence. Training passes
	// must never overlap: the population is owned by exactly one pass at a
	// time, so a tick that fires mid-run is skipped.
	runTraining()

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := scheduler.AddFunc(cfg.TrainingSchedule, runTraining); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.TrainingSchedule).Msg("Invalid training schedule")
	}
	scheduler.Start()
	log.Info().Str("schedule", cfg.TrainingSchedule).Msg("Retraining scheduled")

	<-ctx.Done()
	<-scheduler.Stop().Done()
	syncWG.Wait()
	if err := gw.Close(); err != nil {
		log.Warn().Err(err).Msg("Gateway shutdown incomplete")
	}
	log.Info().Msg("Trainer stopped")
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// buildGateway assembles the configured collaborator backends
func buildGateway(cfg *config.Config) *gateway.Gateway {
	var store *gateway.Postgres
	if cfg.PostgresDSN != "" {
		var err error
		store, err = gateway.NewPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Error().Err(err).Msg("Postgres unavailable, continuing without persistence")
		}
	}

	var publisher *gateway.KafkaPublisher
	if cfg.KafkaBrokers != "" {
		publisher = gateway.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	var deployer *gateway.HTTPDeployer
	if cfg.DeployURL != "" {
		deployer = gateway.NewHTTPDeployer(cfg.DeployURL, cfg.DeployToken)
	}

	return gateway.New(store, publisher, deployer)
}

// trainAndSync runs one population training pass and hands the results to
// the gateway without blocking on it
func trainAndSync(ctx context.Context, batchTrainer *training.BatchTrainer, population []*models.Agent, series *models.CandleSeries, gw *gateway.Gateway, syncWG *sync.WaitGroup) {
	run, err := batchTrainer.TrainPopulation(ctx, population, series)
	if err != nil {
		log.Error().Err(err).Msg("Population training failed")
		return
	}

	log.Info().
		Int("agents_processed", run.AgentsProcessed).
		Float64("experience_gained", run.TotalExperienceGained).
		Float64("confidence_gained", run.TotalConfidenceGained).
		Int("new_elite", run.NewEliteCount).
		Int("errors", len(run.Errors)).
		Dur("elapsed", run.Elapsed).
		Msg("Training run complete")

	for tier, count := range agent.TierCensus(population) {
		log.Info().Str("tier", tier).Int("agents", count).Msg("Tier census")
	}

	// Persistence and deployment are fire-and-forget: a slow or failing
	// collaborator never blocks the results already computed. The goroutine
	// gets deep copies because the next training pass mutates the live
	// records while this one is still reading.
	top := agent.Snapshot(agent.TopByConfidence(population, topAgentLimit))
	syncWG.Add(1)
	go func() {
		defer syncWG.Done()
		syncCtx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		if err := gw.PersistTrainingRun(syncCtx, run); err != nil {
			log.Warn().Err(err).Msg("Training run not persisted")
		}
		if err := gw.PersistTopAgents(syncCtx, top, topAgentLimit); err != nil {
			log.Warn().Err(err).Msg("Top agents not persisted")
		}
		for _, a := range top {
			if accepted, err := gw.Deploy(syncCtx, a); err == nil && accepted {
				log.Info().Str("agent", a.Name).Float64("confidence", a.Confidence).Msg("Agent deployed")
			}
		}
	}()
}

// reportConsensus runs one consensus query over the latest market snapshot
func reportConsensus(ctx context.Context, engine *consensus.Engine, symbol string, series *models.CandleSeries) {
	last := series.Candles[series.Len()-1]
	market := models.MarketContext{
		Symbol:    symbol,
		Price:     last.Close,
		Volume:    last.Volume,
		Candles:   series.Candles,
		Timestamp: last.Timestamp,
	}

	analysis, err := engine.Analyze(ctx, market)
	if err != nil {
		log.Error().Err(err).Msg("Consensus unavailable")
		return
	}

	log.Info().
		Str("sentiment", analysis.Sentiment).
		Str("signal", analysis.Signal).
		Float64("confidence", analysis.Confidence).
		Float64("agreement", analysis.AgreementScore).
		Int("sources", analysis.SourceCount).
		Strs("insights", analysis.KeyInsights).
		Msg("Consensus analysis")
}
