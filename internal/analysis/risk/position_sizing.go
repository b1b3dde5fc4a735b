package risk

import (
	"math"

	"github.com/ndefokin/botarmy/models"
)

// PositionSizingResult holds position sizing calculation results
type PositionSizingResult struct {
	PositionSize    float64 `json:"position_size"`
	StopLoss        float64 `json:"stop_loss"`
	TakeProfit      float64 `json:"take_profit"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
	AccountRisk     float64 `json:"account_risk"`
}

// DetermineStopLoss derives a stop-loss level from the agent's risk profile
func DetermineStopLoss(currentPrice float64, profile models.RiskProfile, direction string) float64 {
	offset := currentPrice * profile.StopLossPct / 100

	if direction == models.SignalBuy {
		return currentPrice - offset
	}
	return currentPrice + offset
}

// CalculatePositionSize determines the appropriate position size based on the
// agent's risk profile and the recommended account risk fraction
func CalculatePositionSize(currentPrice, stopLoss, accountSize, riskPerTrade float64, profile models.RiskProfile) *PositionSizingResult {
	// Calculate stop size in points
	stopSizePoints := math.Abs(currentPrice - stopLoss)
	if stopSizePoints == 0 {
		return &PositionSizingResult{StopLoss: stopLoss, AccountRisk: riskPerTrade}
	}

	// Position size = risk amount / stop size, capped by the profile
	riskAmount := accountSize * riskPerTrade
	positionSize := riskAmount / stopSizePoints
	if maxSize := accountSize * profile.MaxPositionSize; positionSize > maxSize {
		positionSize = maxSize
	}

	// Take-profit at the profile's risk-reward ratio
	takeProfit := 0.0
	if currentPrice > stopLoss {
		// Long position
		takeProfit = currentPrice + stopSizePoints*profile.TakeProfitRatio
	} else {
		// Short position
		takeProfit = currentPrice - stopSizePoints*profile.TakeProfitRatio
	}

	return &PositionSizingResult{
		PositionSize:    positionSize,
		StopLoss:        stopLoss,
		TakeProfit:      takeProfit,
		RiskRewardRatio: math.Abs(takeProfit-currentPrice) / stopSizePoints,
		AccountRisk:     riskPerTrade,
	}
}
