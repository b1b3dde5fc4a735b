package agent

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ndefokin/botarmy/models"
)

// DefaultHistoryLimit caps an agent's learning history ring buffer
const DefaultHistoryLimit = 200

// ErrNoOpenTrade is returned when a trade outcome arrives for an agent with
// no outstanding open trade
var ErrNoOpenTrade = errors.New("agent has no open trade to close")

var strategies = []string{
	models.StrategyScalping,
	models.StrategySwing,
	models.StrategyMomentum,
	models.StrategyReversal,
	models.StrategyBreakout,
	models.StrategyGrid,
}

var specializations = []string{
	models.SpecializationTechnical,
	models.SpecializationPattern,
	models.SpecializationVolume,
	models.SpecializationVolatility,
	models.SpecializationFundamental,
}

// Canonical risk presets, assigned round-robin at population creation
var riskPresets = []models.RiskProfile{
	{Name: "conservative", MaxDrawdown: 5, MaxPositionSize: 0.05, StopLossPct: 1.0, TakeProfitRatio: 1.5},
	{Name: "moderate", MaxDrawdown: 10, MaxPositionSize: 0.10, StopLossPct: 2.0, TakeProfitRatio: 2.0},
	{Name: "aggressive", MaxDrawdown: 20, MaxPositionSize: 0.20, StopLossPct: 3.5, TakeProfitRatio: 3.0},
}

// RiskPreset returns a canonical risk profile by name
func RiskPreset(name string) (models.RiskProfile, bool) {
	for _, preset := range riskPresets {
		if preset.Name == name {
			return preset, true
		}
	}
	return models.RiskProfile{}, false
}

// NewPopulation creates the fixed agent population. Strategy, specialization
// and risk preset are spread deterministically across the population so every
// combination is represented. Agents are never destroyed afterwards, only
// deactivated.
func NewPopulation(size int) []*models.Agent {
	agents := make([]*models.Agent, 0, size)

	for i := 0; i < size; i++ {
		agents = append(agents, &models.Agent{
			ID:             uuid.NewString(),
			SequenceNumber: i + 1,
			Name:           fmt.Sprintf("bot-%04d", i+1),
			Strategy:       strategies[i%len(strategies)],
			Specialization: specializations[i%len(specializations)],
			AnalysisEngine: models.EngineBaseline,
			Confidence:     0.5,
			RiskProfile:    riskPresets[i%len(riskPresets)],
			Active:         true,
		})
	}

	return agents
}

// AppendLearningEvent pushes an event into the agent's bounded history,
// evicting the oldest entry once the cap is reached
func AppendLearningEvent(a *models.Agent, event models.LearningEvent, limit int) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	a.LearningHistory = append(a.LearningHistory, event)
	if len(a.LearningHistory) > limit {
		a.LearningHistory = a.LearningHistory[len(a.LearningHistory)-limit:]
	}
}

// RecordTradeOpened counts a newly opened trade
func RecordTradeOpened(a *models.Agent) {
	a.TotalTrades++
}

// RecordTradeClosed ingests a trade outcome. Wins plus losses can never
// exceed the total trade count.
func RecordTradeClosed(a *models.Agent, won bool, profit float64) error {
	if a.Wins+a.Losses >= a.TotalTrades {
		return ErrNoOpenTrade
	}

	if won {
		a.Wins++
	} else {
		a.Losses++
	}
	a.CumulativeProfit += profit

	return nil
}

// Deactivate retires an agent without destroying its record
func Deactivate(a *models.Agent) {
	a.Active = false
}

// TopByConfidence returns the n most confident active agents
func TopByConfidence(agents []*models.Agent, n int) []*models.Agent {
	active := make([]*models.Agent, 0, len(agents))
	for _, a := range agents {
		if a.Active {
			active = append(active, a)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].Confidence > active[j].Confidence
	})

	if n > len(active) {
		n = len(active)
	}
	return active[:n]
}

// Snapshot deep-copies agents so the copies can be read outside the training
// loop while the originals keep mutating. Trainers own the live records;
// anything handed to a collaborator goes through here first.
func Snapshot(agents []*models.Agent) []*models.Agent {
	copies := make([]*models.Agent, len(agents))
	for i, a := range agents {
		c := *a
		c.LearningHistory = make([]models.LearningEvent, len(a.LearningHistory))
		copy(c.LearningHistory, a.LearningHistory)
		copies[i] = &c
	}
	return copies
}

// TierCensus counts active agents per performance tier
func TierCensus(agents []*models.Agent) map[string]int {
	census := make(map[string]int)
	for _, a := range agents {
		if a.Active {
			census[TierFor(a.Confidence)]++
		}
	}
	return census
}
