package models

import "context"

// AnalysisSource is one independent consensus participant. Implementations
// must be safe for concurrent Opinion calls and must honor ctx cancellation.
type AnalysisSource interface {
	Name() string
	Opinion(ctx context.Context, market MarketContext) (SourceOpinion, error)
}

// SyncGateway pushes trained agents and run results to external hosts.
// Failures are logged by callers and never invalidate an already computed
// training result.
type SyncGateway interface {
	Deploy(ctx context.Context, agent *Agent) (bool, error)
	UpdateConfig(ctx context.Context, agentID string, config map[string]string) (bool, error)
	PersistTrainingRun(ctx context.Context, run *TrainingRun) error
	PersistTopAgents(ctx context.Context, agents []*Agent, limit int) error
}
