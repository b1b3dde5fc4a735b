package agent

import (
	"reflect"
	"testing"

	"github.com/ndefokin/botarmy/models"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		confidence float64
		expected   string
	}{
		{0.0, models.TierTraining},
		{0.59, models.TierTraining},
		{0.60, models.TierSkilled},
		{0.69, models.TierSkilled},
		{0.70, models.TierExpert},
		{0.79, models.TierExpert},
		{0.80, models.TierElite},
		{0.89, models.TierElite},
		{0.90, models.TierExceptional},
		{0.94, models.TierExceptional},
		{0.95, models.TierTopTier},
		{0.98, models.TierTopTier},
	}

	for _, tt := range tests {
		if got := TierFor(tt.confidence); got != tt.expected {
			t.Errorf("TierFor(%v) = %q, want %q", tt.confidence, got, tt.expected)
		}
	}
}

func TestTiersCrossed(t *testing.T) {
	tests := []struct {
		name     string
		oldConf  float64
		newConf  float64
		expected []string
	}{
		{
			name:     "no movement no crossing",
			oldConf:  0.65,
			newConf:  0.65,
			expected: nil,
		},
		{
			name:     "movement inside one band",
			oldConf:  0.61,
			newConf:  0.68,
			expected: nil,
		},
		{
			name:     "single band crossed",
			oldConf:  0.58,
			newConf:  0.62,
			expected: []string{models.TierSkilled},
		},
		{
			name:     "two bands in one update count once each",
			oldConf:  0.59,
			newConf:  0.71,
			expected: []string{models.TierSkilled, models.TierExpert},
		},
		{
			name:     "already crossed band not recounted",
			oldConf:  0.82,
			newConf:  0.85,
			expected: nil,
		},
		{
			name:     "landing exactly on a boundary crosses it",
			oldConf:  0.79,
			newConf:  0.80,
			expected: []string{models.TierElite},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TiersCrossed(tt.oldConf, tt.newConf)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("TiersCrossed(%v, %v) = %v, want %v", tt.oldConf, tt.newConf, got, tt.expected)
			}
		})
	}
}
