package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

func TestPayoutRatioBanding(t *testing.T) {
	tests := []struct {
		name     string
		dividend float64
		eps      float64
		score    float64
	}{
		{"40 percent payout", 0.40, 1.0, 100},
		{"41 percent payout", 0.41, 1.0, 80},
		{"60 percent payout", 0.60, 1.0, 80},
		{"75 percent payout", 0.75, 1.0, 60},
		{"full payout", 1.0, 1.0, 40},
		{"over-distribution", 1.5, 1.0, 20},
		{"zero eps", 1.0, 0, 20},
		{"negative eps", 1.0, -2.5, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factor := payoutRatioFactor(tt.dividend, tt.eps)
			assert.Equal(t, tt.score, factor.Score)
		})
	}
}

func TestPayoutRatioZeroEPSIsMaxRisk(t *testing.T) {
	factor := payoutRatioFactor(1.0, 0)
	assert.Equal(t, maxRiskRatio, factor.Value)
	assert.Equal(t, 20.0, factor.Score)
}

func TestFCFCoverageBanding(t *testing.T) {
	tests := []struct {
		name     string
		fcf      float64
		paid     float64
		score    float64
	}{
		{"double coverage", 200, -100, 100},
		{"one and a half", 150, -100, 80},
		{"tight coverage", 120, -100, 60},
		{"exact coverage", 100, -100, 40},
		{"undercovered", 80, -100, 20},
		{"negative fcf", -50, -100, 20},
		{"no dividends paid", 100, 0, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factor := fcfCoverageFactor(tt.fcf, tt.paid)
			assert.Equal(t, tt.score, factor.Score)
		})
	}
}

func TestDebtToEquityBanding(t *testing.T) {
	tests := []struct {
		name   string
		debt   float64
		equity float64
		score  float64
	}{
		{"low leverage", 30, 100, 100},
		{"moderate leverage", 50, 100, 80},
		{"elevated leverage", 70, 100, 60},
		{"full leverage", 100, 100, 40},
		{"over-leveraged", 150, 100, 20},
		{"zero equity", 100, 0, 20},
		{"negative equity", 100, -50, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factor := debtToEquityFactor(tt.debt, tt.equity)
			assert.Equal(t, tt.score, factor.Score)
		})
	}
}

func TestDebtToEquityZeroEquityIsMaxRisk(t *testing.T) {
	factor := debtToEquityFactor(100, 0)
	assert.Equal(t, maxRiskRatio, factor.Value)
}

func TestDividendGrowthRequiresHistory(t *testing.T) {
	_, ok := dividendGrowthFactor([]float64{1.0, 1.1, 1.2}, 7)
	assert.False(t, ok, "fewer than eight records cannot support growth analysis")

	factor, ok := dividendGrowthFactor([]float64{1.0, 1.1, 1.21}, 12)
	assert.True(t, ok)
	assert.Greater(t, factor.Score, 0.0)
}

func TestDividendGrowthConsistency(t *testing.T) {
	// Perfectly steady 10% growth has zero deviation and scores 100.
	steady, ok := dividendGrowthFactor([]float64{1.0, 1.1, 1.21, 1.331}, 16)
	assert.True(t, ok)
	assert.InDelta(t, 100.0, steady.Score, 1e-6)

	// Erratic growth scores strictly lower.
	erratic, ok := dividendGrowthFactor([]float64{1.0, 2.0, 0.5, 1.8}, 16)
	assert.True(t, ok)
	assert.Less(t, erratic.Score, steady.Score)
}

func TestEarningsStabilityGates(t *testing.T) {
	_, ok := earningsStabilityFactor([]float64{100, 110})
	assert.False(t, ok, "fewer than three statement years")

	_, ok = earningsStabilityFactor([]float64{100, -20, -30})
	assert.False(t, ok, "fewer than two positive years")

	factor, ok := earningsStabilityFactor([]float64{100, 100, 100})
	assert.True(t, ok)
	assert.InDelta(t, 100.0, factor.Score, 1e-6)
}

func TestEarningsStabilityPenalizesVolatility(t *testing.T) {
	stable, _ := earningsStabilityFactor([]float64{100, 105, 95, 102})
	volatile, _ := earningsStabilityFactor([]float64{100, 20, 180, 60})
	assert.Greater(t, stable.Score, volatile.Score)
}

func TestCombineFactorsWeighted(t *testing.T) {
	factors := []models.FactorScore{
		{Score: 100, Weight: 0.25},
		{Score: 100, Weight: 0.25},
		{Score: 100, Weight: 0.20},
		{Score: 0, Weight: 0.15},
		{Score: 0, Weight: 0.15},
	}
	assert.Equal(t, 70, combineFactors(factors))
	assert.Equal(t, 0, combineFactors(nil))
}

func TestGradeMapping(t *testing.T) {
	tests := []struct {
		score int
		grade string
	}{
		{95, "A+"}, {90, "A+"}, {85, "A"}, {75, "B"}, {65, "C"}, {55, "D"}, {40, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.grade, models.GradeForScore(tt.score))
	}
}
