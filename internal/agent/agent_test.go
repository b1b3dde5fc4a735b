package agent

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ndefokin/botarmy/models"
)

func TestNewPopulation(t *testing.T) {
	population := NewPopulation(100)

	if len(population) != 100 {
		t.Fatalf("NewPopulation(100) created %d agents", len(population))
	}

	seen := make(map[string]bool)
	for i, a := range population {
		if a.ID == "" || seen[a.ID] {
			t.Errorf("agent %d has missing or duplicate ID", i)
		}
		seen[a.ID] = true

		if a.SequenceNumber != i+1 {
			t.Errorf("agent %d sequence number = %d", i, a.SequenceNumber)
		}
		if !a.Active {
			t.Errorf("agent %d not active at creation", i)
		}
		if a.AnalysisEngine != models.EngineBaseline {
			t.Errorf("agent %d engine = %q, want baseline", i, a.AnalysisEngine)
		}
		if a.RiskProfile.Name == "" {
			t.Errorf("agent %d has no risk preset", i)
		}
	}
}

func TestRiskPreset(t *testing.T) {
	for _, name := range []string{"conservative", "moderate", "aggressive"} {
		preset, ok := RiskPreset(name)
		if !ok {
			t.Errorf("RiskPreset(%q) not found", name)
		}
		if preset.MaxPositionSize <= 0 || preset.StopLossPct <= 0 {
			t.Errorf("RiskPreset(%q) has zero limits: %+v", name, preset)
		}
	}

	if _, ok := RiskPreset("reckless"); ok {
		t.Error("RiskPreset accepted an unknown preset name")
	}
}

func TestAppendLearningEventEvictsFIFO(t *testing.T) {
	a := &models.Agent{}
	limit := 5

	for i := 0; i < 8; i++ {
		AppendLearningEvent(a, models.LearningEvent{
			Timestamp:        time.Date(2024, 1, 1, i, 0, 0, 0, time.UTC),
			CandlesProcessed: i,
		}, limit)
	}

	if len(a.LearningHistory) != limit {
		t.Fatalf("history length = %d, want %d", len(a.LearningHistory), limit)
	}

	// Oldest entries evicted: the buffer holds events 3..7
	if a.LearningHistory[0].CandlesProcessed != 3 {
		t.Errorf("oldest retained event = %d, want 3", a.LearningHistory[0].CandlesProcessed)
	}
	if a.LearningHistory[limit-1].CandlesProcessed != 7 {
		t.Errorf("newest retained event = %d, want 7", a.LearningHistory[limit-1].CandlesProcessed)
	}
}

func TestTradeIngestion(t *testing.T) {
	a := &models.Agent{}

	// Closing without an open trade is rejected
	if err := RecordTradeClosed(a, true, 10); !errors.Is(err, ErrNoOpenTrade) {
		t.Errorf("RecordTradeClosed() error = %v, want ErrNoOpenTrade", err)
	}

	RecordTradeOpened(a)
	RecordTradeOpened(a)
	RecordTradeOpened(a)

	if err := RecordTradeClosed(a, true, 25); err != nil {
		t.Fatalf("RecordTradeClosed() error = %v", err)
	}
	if err := RecordTradeClosed(a, false, -10); err != nil {
		t.Fatalf("RecordTradeClosed() error = %v", err)
	}

	if a.Wins != 1 || a.Losses != 1 || a.TotalTrades != 3 {
		t.Errorf("trade stats = %d/%d/%d, want 1/1/3", a.Wins, a.Losses, a.TotalTrades)
	}
	if a.CumulativeProfit != 15 {
		t.Errorf("cumulative profit = %v, want 15", a.CumulativeProfit)
	}
	if a.Wins+a.Losses > a.TotalTrades {
		t.Error("wins+losses exceeded total trades")
	}
	if a.WinRate() != 0.5 {
		t.Errorf("win rate = %v, want 0.5", a.WinRate())
	}
}

func TestTopByConfidence(t *testing.T) {
	agents := make([]*models.Agent, 10)
	for i := range agents {
		agents[i] = &models.Agent{
			ID:         fmt.Sprintf("agent-%d", i),
			Confidence: float64(i) / 10,
			Active:     true,
		}
	}
	// The most confident agent is retired and must not be selected
	Deactivate(agents[9])

	top := TopByConfidence(agents, 3)
	if len(top) != 3 {
		t.Fatalf("TopByConfidence() returned %d agents, want 3", len(top))
	}
	if top[0].Confidence != 0.8 {
		t.Errorf("best selected confidence = %v, want 0.8 (deactivated agent excluded)", top[0].Confidence)
	}
	for i := 1; i < len(top); i++ {
		if top[i].Confidence > top[i-1].Confidence {
			t.Error("TopByConfidence() not sorted descending")
		}
	}
}

func TestTierCensus(t *testing.T) {
	agents := []*models.Agent{
		{Confidence: 0.5, Active: true},
		{Confidence: 0.65, Active: true},
		{Confidence: 0.65, Active: true},
		{Confidence: 0.85, Active: true},
		{Confidence: 0.96, Active: false}, // retired, excluded
	}

	census := TierCensus(agents)
	if census[models.TierTraining] != 1 || census[models.TierSkilled] != 2 || census[models.TierElite] != 1 {
		t.Errorf("census = %v", census)
	}
	if census[models.TierTopTier] != 0 {
		t.Error("deactivated agent counted in census")
	}
}

func TestSnapshotIsolatesCopies(t *testing.T) {
	original := &models.Agent{
		ID:         "a-1",
		Name:       "bot-0001",
		Confidence: 0.6,
		LearningHistory: []models.LearningEvent{
			{CandlesProcessed: 100, ConfidenceGained: 0.01},
		},
		Active: true,
	}

	snap := Snapshot([]*models.Agent{original})
	if len(snap) != 1 {
		t.Fatalf("Snapshot() returned %d agents, want 1", len(snap))
	}
	if snap[0] == original {
		t.Fatal("Snapshot() returned the live pointer, want a copy")
	}

	// Mutations to the live record must not show through the copy
	original.Confidence = 0.9
	original.LearningHistory = append(original.LearningHistory,
		models.LearningEvent{CandlesProcessed: 200})
	original.LearningHistory[0].ConfidenceGained = 0.99

	if snap[0].Confidence != 0.6 {
		t.Errorf("snapshot confidence = %v after live mutation, want 0.6", snap[0].Confidence)
	}
	if len(snap[0].LearningHistory) != 1 {
		t.Errorf("snapshot history length = %d after live append, want 1", len(snap[0].LearningHistory))
	}
	if snap[0].LearningHistory[0].ConfidenceGained != 0.01 {
		t.Errorf("snapshot history entry mutated through the live record: gained = %v, want 0.01",
			snap[0].LearningHistory[0].ConfidenceGained)
	}
}
