package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/ndefokin/botarmy/models"
)

// Postgres persists training runs and top agents. The core hands results to
// it after a run completes; a persistence failure never invalidates the run.
type Postgres struct {
	*sql.DB
}

// NewPostgres opens a Postgres connection and ensures the schema exists
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &Postgres{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS training_runs (
			id SERIAL PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			agents_processed INT NOT NULL,
			candles_processed INT NOT NULL,
			experience_gained DOUBLE PRECISION NOT NULL,
			confidence_gained DOUBLE PRECISION NOT NULL,
			new_elite_count INT NOT NULL,
			tier_ups JSONB,
			errors JSONB,
			elapsed_ms BIGINT NOT NULL,
			data_quality_score DOUBLE PRECISION NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create training_runs table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS top_agents (
			agent_id TEXT PRIMARY KEY,
			sequence_number INT NOT NULL,
			name TEXT NOT NULL,
			strategy TEXT NOT NULL,
			specialization TEXT NOT NULL,
			analysis_engine TEXT NOT NULL,
			experience DOUBLE PRECISION NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			tier TEXT NOT NULL,
			wins INT NOT NULL,
			losses INT NOT NULL,
			total_trades INT NOT NULL,
			cumulative_profit DOUBLE PRECISION NOT NULL,
			risk_preset TEXT NOT NULL,
			last_training_time TIMESTAMPTZ,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create top_agents table: %w", err)
	}

	return nil
}

// SaveTrainingRun stores a completed training run
func (p *Postgres) SaveTrainingRun(ctx context.Context, run *models.TrainingRun) error {
	tierUps, err := json.Marshal(run.TierUps)
	if err != nil {
		return fmt.Errorf("marshal tier ups: %w", err)
	}
	runErrors, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("marshal run errors: %w", err)
	}

	_, err = p.ExecContext(ctx, `
		INSERT INTO training_runs (
			started_at, agents_processed, candles_processed,
			experience_gained, confidence_gained, new_elite_count,
			tier_ups, errors, elapsed_ms, data_quality_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.StartedAt, run.AgentsProcessed, run.CandlesProcessed,
		run.TotalExperienceGained, run.TotalConfidenceGained, run.NewEliteCount,
		tierUps, runErrors, run.Elapsed.Milliseconds(), run.DataQualityScore,
	)
	if err != nil {
		return fmt.Errorf("insert training run: %w", err)
	}

	return nil
}

// SaveTopAgents upserts the current top agents with their tier
func (p *Postgres) SaveTopAgents(ctx context.Context, agents []*models.Agent, tierFor func(float64) string) error {
	tx, err := p.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO top_agents (
			agent_id, sequence_number, name, strategy, specialization,
			analysis_engine, experience, confidence, tier,
			wins, losses, total_trades, cumulative_profit,
			risk_preset, last_training_time, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		ON CONFLICT (agent_id) DO UPDATE SET
			analysis_engine = EXCLUDED.analysis_engine,
			experience = EXCLUDED.experience,
			confidence = EXCLUDED.confidence,
			tier = EXCLUDED.tier,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			total_trades = EXCLUDED.total_trades,
			cumulative_profit = EXCLUDED.cumulative_profit,
			last_training_time = EXCLUDED.last_training_time,
			updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("prepare top agent upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range agents {
		_, err := stmt.ExecContext(ctx,
			a.ID, a.SequenceNumber, a.Name, a.Strategy, a.Specialization,
			a.AnalysisEngine, a.Experience, a.Confidence, tierFor(a.Confidence),
			a.Wins, a.Losses, a.TotalTrades, a.CumulativeProfit,
			a.RiskProfile.Name, a.LastTrainingTime,
		)
		if err != nil {
			return fmt.Errorf("upsert agent %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}
