package safety

import (
	"math"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

// maxRiskRatio marks ratios that cannot be computed meaningfully (zero or
// negative denominator) and always land in the worst band.
const maxRiskRatio = 999.0

// Factor weights, summing to 1.0.
const (
	weightPayoutRatio       = 0.25
	weightFCFCoverage       = 0.25
	weightDebtToEquity      = 0.20
	weightDividendGrowth    = 0.15
	weightEarningsStability = 0.15
)

// minDividendRecords is roughly two years of quarterly payments, the minimum
// history for a meaningful growth-consistency read.
const minDividendRecords = 8

// payoutRatioFactor scores annual dividend per share against latest EPS.
// Lower payout leaves more room to sustain the dividend.
func payoutRatioFactor(annualDividend, eps float64) models.FactorScore {
	ratio := maxRiskRatio
	if eps > 0 {
		ratio = annualDividend / eps
	}

	var score float64
	switch {
	case ratio <= 0.4:
		score = 100
	case ratio <= 0.6:
		score = 80
	case ratio <= 0.8:
		score = 60
	case ratio <= 1.0:
		score = 40
	default:
		score = 20
	}

	return models.FactorScore{
		Name:   models.FactorPayoutRatio,
		Value:  ratio,
		Score:  score,
		Weight: weightPayoutRatio,
	}
}

// fcfCoverageFactor scores free cash flow against the absolute dividends
// paid. Payloads report dividends paid as a negative outflow.
func fcfCoverageFactor(freeCashFlow, dividendsPaid float64) models.FactorScore {
	paid := math.Abs(dividendsPaid)
	coverage := maxRiskRatio
	if paid > 0 {
		coverage = freeCashFlow / paid
	}

	var score float64
	switch {
	case coverage >= 2.0:
		score = 100
	case coverage >= 1.5:
		score = 80
	case coverage >= 1.2:
		score = 60
	case coverage >= 1.0:
		score = 40
	default:
		score = 20
	}

	return models.FactorScore{
		Name:   models.FactorFCFCoverage,
		Value:  coverage,
		Score:  score,
		Weight: weightFCFCoverage,
	}
}

// debtToEquityFactor scores leverage. Zero or negative equity is treated as
// maximum risk rather than a divide error.
func debtToEquityFactor(totalDebt, totalEquity float64) models.FactorScore {
	ratio := maxRiskRatio
	if totalEquity > 0 {
		ratio = totalDebt / totalEquity
	}

	var score float64
	switch {
	case ratio <= 0.3:
		score = 100
	case ratio <= 0.5:
		score = 80
	case ratio <= 0.7:
		score = 60
	case ratio <= 1.0:
		score = 40
	default:
		score = 20
	}

	return models.FactorScore{
		Name:   models.FactorDebtToEquity,
		Value:  ratio,
		Score:  score,
		Weight: weightDebtToEquity,
	}
}

// dividendGrowthFactor scores the consistency of year-over-year dividend
// growth. Volatile growth rates score low even when growth is positive.
// yearlyTotals must be ordered oldest first; recordCount is the raw number
// of dividend events backing them.
func dividendGrowthFactor(yearlyTotals []float64, recordCount int) (models.FactorScore, bool) {
	factor := models.FactorScore{
		Name:   models.FactorDividendGrowth,
		Weight: weightDividendGrowth,
	}

	if recordCount < minDividendRecords || len(yearlyTotals) < 2 {
		return factor, false
	}

	var growthRates []float64
	for i := 1; i < len(yearlyTotals); i++ {
		if yearlyTotals[i-1] <= 0 {
			continue
		}
		growthRates = append(growthRates, (yearlyTotals[i]-yearlyTotals[i-1])/yearlyTotals[i-1])
	}
	if len(growthRates) == 0 {
		return factor, false
	}

	consistency := clamp01(1 - 2*stdDev(growthRates))
	factor.Value = consistency
	factor.Score = consistency * 100
	return factor, true
}

// earningsStabilityFactor scores the variability of positive net-income
// years. Requires at least three statement years with two or more positive.
func earningsStabilityFactor(netIncomes []float64) (models.FactorScore, bool) {
	factor := models.FactorScore{
		Name:   models.FactorEarningsStability,
		Weight: weightEarningsStability,
	}

	if len(netIncomes) < 3 {
		return factor, false
	}

	var positive []float64
	for _, income := range netIncomes {
		if income > 0 {
			positive = append(positive, income)
		}
	}
	if len(positive) < 2 {
		return factor, false
	}

	mean := meanOf(positive)
	if mean <= 0 {
		return factor, false
	}

	cv := stdDev(positive) / mean
	stability := clamp01(1 - cv/2)
	factor.Value = stability
	factor.Score = stability * 100
	return factor, true
}

// combineFactors produces the weighted 0-100 score from the available
// factors, normalizing by the weights actually present.
func combineFactors(factors []models.FactorScore) int {
	var weighted, totalWeight float64
	for _, f := range factors {
		weighted += f.Score * f.Weight
		totalWeight += f.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return int(math.Round(weighted / totalWeight))
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := meanOf(values)
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
