package gateway

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ndefokin/botarmy/internal/agent"
	"github.com/ndefokin/botarmy/models"
)

// Gateway combines the optional collaborator backends behind the single
// models.SyncGateway contract. Any backend may be nil; its calls become
// no-ops. Backend failures are logged and surfaced, but callers treat them
// as non-fatal to results already computed.
type Gateway struct {
	store     *Postgres
	publisher *KafkaPublisher
	deployer  *HTTPDeployer
}

// New assembles a gateway from whichever backends are configured
func New(store *Postgres, publisher *KafkaPublisher, deployer *HTTPDeployer) *Gateway {
	return &Gateway{store: store, publisher: publisher, deployer: deployer}
}

// Close releases backend connections. The Kafka writer buffers briefly
// before sending, so skipping Close on shutdown can drop queued runs.
func (g *Gateway) Close() error {
	var firstErr error

	if g.publisher != nil {
		if err := g.publisher.Close(); err != nil {
			log.Error().Err(err).Msg("Kafka publisher close failed")
			firstErr = err
		}
	}

	if g.store != nil {
		if err := g.store.Close(); err != nil {
			log.Error().Err(err).Msg("Postgres close failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// Deploy implements models.SyncGateway
func (g *Gateway) Deploy(ctx context.Context, a *models.Agent) (bool, error) {
	if g.deployer == nil {
		return false, nil
	}
	accepted, err := g.deployer.DeployAgent(ctx, a)
	if err != nil {
		log.Error().Err(err).Str("agent", a.ID).Msg("Agent deploy failed")
		return false, err
	}
	return accepted, nil
}

// UpdateConfig implements models.SyncGateway
func (g *Gateway) UpdateConfig(ctx context.Context, agentID string, config map[string]string) (bool, error) {
	if g.deployer == nil {
		return false, nil
	}
	accepted, err := g.deployer.PushConfig(ctx, agentID, config)
	if err != nil {
		log.Error().Err(err).Str("agent", agentID).Msg("Config push failed")
		return false, err
	}
	return accepted, nil
}

// PersistTrainingRun implements models.SyncGateway. The run is stored and
// broadcast; either backend failing leaves the in-memory result intact.
func (g *Gateway) PersistTrainingRun(ctx context.Context, run *models.TrainingRun) error {
	var firstErr error

	if g.store != nil {
		if err := g.store.SaveTrainingRun(ctx, run); err != nil {
			log.Error().Err(err).Msg("Training run persistence failed")
			firstErr = err
		}
	}

	if g.publisher != nil {
		if err := g.publisher.PublishTrainingRun(ctx, run); err != nil {
			log.Error().Err(err).Msg("Training run publish failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// PersistTopAgents implements models.SyncGateway
func (g *Gateway) PersistTopAgents(ctx context.Context, agents []*models.Agent, limit int) error {
	if g.store == nil {
		return nil
	}

	if limit > 0 && limit < len(agents) {
		agents = agents[:limit]
	}

	if err := g.store.SaveTopAgents(ctx, agents, agent.TierFor); err != nil {
		log.Error().Err(err).Int("agents", len(agents)).Msg("Top agent persistence failed")
		return err
	}
	return nil
}
