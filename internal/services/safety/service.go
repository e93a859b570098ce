// Package safety computes dividend sustainability scores and portfolio
// rollups.
package safety

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

// cacheTTL is the contract freshness window for cached scores. It is part of
// this component, not configuration.
const cacheTTL = 24 * time.Hour

// statementYears is how many annual statements feed the factor computations.
const statementYears = 5

// Service scores dividend sustainability per symbol with a cache-first
// policy, and rolls scores up to value-weighted portfolio results.
type Service struct {
	market  interfaces.MarketDataService
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a safety service.
func NewService(market interfaces.MarketDataService, storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		market:  market,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// ScoreSymbol returns the cached score when it is younger than 24 hours,
// recomputing and overwriting the cache otherwise.
func (s *Service) ScoreSymbol(ctx context.Context, symbol string) (*models.SafetyScore, error) {
	sym := common.NormalizeSymbol(symbol)
	if err := common.ValidateSymbol(sym); err != nil {
		return nil, err
	}

	now := s.now()
	cached, err := s.storage.SafetyCacheStore().Get(ctx, sym)
	if err == nil && common.IsFreshAt(cached.UpdatedAt, cacheTTL, now) {
		return cached, nil
	}
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	score, err := s.compute(ctx, sym)
	if err != nil {
		return nil, err
	}

	score.UpdatedAt = now
	if err := s.storage.SafetyCacheStore().Save(ctx, score); err != nil {
		return nil, err
	}
	return score, nil
}

// compute runs the full factor analysis. Securities without corporate
// statements come back excluded with a reason, never scored zero.
func (s *Service) compute(ctx context.Context, symbol string) (*models.SafetyScore, error) {
	if reason := exclusionReason(symbol); reason != "" {
		return &models.SafetyScore{
			Symbol:         symbol,
			Grade:          "F",
			Excluded:       true,
			ExcludedReason: reason,
		}, nil
	}

	statements, err := s.market.GetStatements(ctx, symbol, statementYears)
	if err != nil {
		return nil, err
	}
	if statements == nil || len(statements.Income) == 0 {
		return &models.SafetyScore{
			Symbol:         symbol,
			Grade:          "F",
			Excluded:       true,
			ExcludedReason: "no financial statements available",
		}, nil
	}

	dividends, err := s.storage.DividendStore().ListBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	score := &models.SafetyScore{Symbol: symbol}
	now := s.now()

	annualDividend := annualDividendPerShare(dividends, now)
	latestEPS := statements.Income[0].EPS
	if latestEPS <= 0 {
		score.Warnings = append(score.Warnings, "latest earnings per share is zero or negative")
	}
	score.Factors = append(score.Factors, payoutRatioFactor(annualDividend, latestEPS))

	if len(statements.CashFlow) > 0 {
		cf := statements.CashFlow[0]
		score.Factors = append(score.Factors, fcfCoverageFactor(cf.FreeCashFlow, cf.DividendsPaid))
	} else {
		score.Warnings = append(score.Warnings, "no cash flow statement available")
		score.Factors = append(score.Factors, models.FactorScore{
			Name: models.FactorFCFCoverage, Value: maxRiskRatio, Score: 20, Weight: weightFCFCoverage,
		})
	}

	if len(statements.Balance) > 0 {
		bs := statements.Balance[0]
		score.Factors = append(score.Factors, debtToEquityFactor(bs.TotalDebt, bs.TotalEquity))
	} else {
		score.Warnings = append(score.Warnings, "no balance sheet available")
		score.Factors = append(score.Factors, models.FactorScore{
			Name: models.FactorDebtToEquity, Value: maxRiskRatio, Score: 20, Weight: weightDebtToEquity,
		})
	}

	growth, ok := dividendGrowthFactor(yearlyDividendTotals(dividends, now), len(dividends))
	if !ok {
		score.Warnings = append(score.Warnings, "insufficient dividend history for growth analysis")
	}
	score.Factors = append(score.Factors, growth)

	stability, ok := earningsStabilityFactor(netIncomes(statements.Income))
	if !ok {
		score.Warnings = append(score.Warnings, "insufficient earnings history for stability analysis")
	}
	score.Factors = append(score.Factors, stability)

	score.Score = combineFactors(score.Factors)
	score.Grade = models.GradeForScore(score.Score)
	return score, nil
}

// ScorePortfolio computes the value-weighted safety rollup. Stale cache
// entries for held symbols are refreshed up front so the per-holding loop
// never triggers individual fetches.
func (s *Service) ScorePortfolio(ctx context.Context, portfolioID string) (*models.PortfolioSafety, error) {
	holdings, err := s.storage.HoldingStore().ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	result := &models.PortfolioSafety{
		PortfolioID: portfolioID,
		ComputedAt:  s.now(),
	}

	scores := make(map[string]*models.SafetyScore, len(holdings))
	for _, holding := range holdings {
		score, err := s.ScoreSymbol(ctx, holding.Symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", holding.Symbol).Msg("Safety score unavailable")
			continue
		}
		scores[holding.Symbol] = score
	}

	var weightedSum, totalValue float64
	values := make(map[string]float64, len(holdings))
	for _, holding := range holdings {
		score, ok := scores[holding.Symbol]
		if !ok {
			continue
		}

		income, err := s.annualDividendIncome(ctx, holding)
		if err != nil {
			return nil, err
		}

		if score.Excluded {
			result.Excluded = append(result.Excluded, holding.Symbol)
			result.Holdings = append(result.Holdings, models.HoldingSafety{
				Symbol:         holding.Symbol,
				AnnualDividend: income,
				Excluded:       true,
				ExcludedReason: score.ExcludedReason,
			})
			continue
		}

		value := holding.Quantity * holding.AvgCostBasis
		values[holding.Symbol] = value
		weightedSum += float64(score.Score) * value
		totalValue += value

		result.Holdings = append(result.Holdings, models.HoldingSafety{
			Symbol:         holding.Symbol,
			Score:          score.Score,
			Grade:          score.Grade,
			AnnualDividend: income,
		})

		switch {
		case score.Score >= 70:
			result.Distribution.SafeIncome += income
		case score.Score >= 50:
			result.Distribution.ModerateIncome += income
		case score.Score >= 30:
			result.Distribution.RiskyIncome += income
		default:
			result.Distribution.DangerousIncome += income
		}
	}

	if totalValue > 0 {
		result.WeightedScore = int(weightedSum/totalValue + 0.5)
		for i := range result.Holdings {
			if result.Holdings[i].Excluded {
				continue
			}
			result.Holdings[i].Weight = values[result.Holdings[i].Symbol] / totalValue
		}
	}
	result.Grade = models.GradeForScore(result.WeightedScore)

	return result, nil
}

// annualDividendIncome is the trailing-year dividend income for a holding.
func (s *Service) annualDividendIncome(ctx context.Context, holding models.Holding) (float64, error) {
	dividends, err := s.storage.DividendStore().ListBySymbol(ctx, holding.Symbol)
	if err != nil {
		return 0, err
	}
	return holding.Quantity * annualDividendPerShare(dividends, s.now()), nil
}

// annualDividendPerShare sums per-share dividend amounts over the trailing
// 365 days.
func annualDividendPerShare(events []models.DividendEvent, now time.Time) float64 {
	cutoff := now.AddDate(0, 0, -365)
	total := 0.0
	for _, e := range events {
		if e.ExDate.After(cutoff) && !e.ExDate.After(now) {
			total += e.Amount
		}
	}
	return total
}

// yearlyDividendTotals aggregates per-share dividends by calendar year,
// oldest first, dropping the current partial year.
func yearlyDividendTotals(events []models.DividendEvent, now time.Time) []float64 {
	byYear := make(map[int]float64)
	for _, e := range events {
		if e.ExDate.Year() >= now.Year() {
			continue
		}
		byYear[e.ExDate.Year()] += e.Amount
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)

	totals := make([]float64, 0, len(years))
	for _, year := range years {
		totals = append(totals, byYear[year])
	}
	return totals
}

// netIncomes extracts net income oldest-first from most-recent-first rows.
func netIncomes(income []models.IncomeStatement) []float64 {
	values := make([]float64, 0, len(income))
	for i := len(income) - 1; i >= 0; i-- {
		values = append(values, income[i].NetIncome)
	}
	return values
}

// Ensure Service implements SafetyService
var _ interfaces.SafetyService = (*Service)(nil)
