package safety

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/storage/memory"
)

// mockMarket serves canned statements and counts fetches.
type mockMarket struct {
	statements     map[string]*models.FinancialStatements
	statementCalls int
}

func (m *mockMarket) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	return &models.Quote{Symbol: symbol}, nil
}

func (m *mockMarket) GetDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	return nil, nil
}

func (m *mockMarket) GetDividends(ctx context.Context, symbol string, from, to time.Time) ([]models.DividendEvent, error) {
	return nil, nil
}

func (m *mockMarket) GetStatements(ctx context.Context, symbol string, limit int) (*models.FinancialStatements, error) {
	m.statementCalls++
	return m.statements[symbol], nil
}

func (m *mockMarket) Search(ctx context.Context, query string) ([]models.SymbolSearchResult, error) {
	return nil, nil
}

func healthyStatements(symbol string) *models.FinancialStatements {
	date := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	var income []models.IncomeStatement
	var balance []models.BalanceSheet
	var cashflow []models.CashFlowStatement
	for i := 0; i < 5; i++ {
		d := date.AddDate(-i, 0, 0)
		income = append(income, models.IncomeStatement{Symbol: symbol, Date: d, NetIncome: 1000, EPS: 5.0})
		balance = append(balance, models.BalanceSheet{Symbol: symbol, Date: d, TotalDebt: 200, TotalEquity: 1000})
		cashflow = append(cashflow, models.CashFlowStatement{Symbol: symbol, Date: d, FreeCashFlow: 500, DividendsPaid: -200})
	}
	return &models.FinancialStatements{Symbol: symbol, Income: income, Balance: balance, CashFlow: cashflow}
}

func seedDividends(t *testing.T, store *memory.Manager, symbol string, now time.Time) {
	t.Helper()
	var events []models.DividendEvent
	// Three full years of steadily growing quarterly dividends.
	for year := 1; year <= 3; year++ {
		for q := 0; q < 4; q++ {
			exDate := now.AddDate(-year, 0, 0).AddDate(0, 3*q, 0)
			events = append(events, models.DividendEvent{
				Symbol: symbol,
				ExDate: common.NormalizeDate(exDate),
				Amount: 0.40 + 0.05*float64(3-year),
				Source: "test",
			})
		}
	}
	require.NoError(t, store.DividendStore().Upsert(context.Background(), events))
}

func TestScoreSymbolCacheFreshnessGate(t *testing.T) {
	store := memory.NewManager()
	market := &mockMarket{statements: map[string]*models.FinancialStatements{
		"KO": healthyStatements("KO"),
	}}
	svc := NewService(market, store, common.NewSilentLogger())

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	seedDividends(t, store, "KO", base)

	first, err := svc.ScoreSymbol(context.Background(), "KO")
	require.NoError(t, err)
	assert.Equal(t, 1, market.statementCalls)

	// 23h59m later the cached entry is returned verbatim.
	svc.now = func() time.Time { return base.Add(23*time.Hour + 59*time.Minute) }
	cached, err := svc.ScoreSymbol(context.Background(), "KO")
	require.NoError(t, err)
	assert.Equal(t, 1, market.statementCalls)
	assert.Equal(t, first.Score, cached.Score)
	assert.Equal(t, first.UpdatedAt, cached.UpdatedAt)

	// 24h01m later the score is recomputed and the cache overwritten.
	svc.now = func() time.Time { return base.Add(24*time.Hour + 1*time.Minute) }
	recomputed, err := svc.ScoreSymbol(context.Background(), "KO")
	require.NoError(t, err)
	assert.Equal(t, 2, market.statementCalls)
	assert.True(t, recomputed.UpdatedAt.After(first.UpdatedAt))
}

func TestScoreSymbolHealthyCompany(t *testing.T) {
	store := memory.NewManager()
	market := &mockMarket{statements: map[string]*models.FinancialStatements{
		"KO": healthyStatements("KO"),
	}}
	svc := NewService(market, store, common.NewSilentLogger())

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	seedDividends(t, store, "KO", base)

	score, err := svc.ScoreSymbol(context.Background(), "KO")
	require.NoError(t, err)

	assert.False(t, score.Excluded)
	assert.Len(t, score.Factors, 5)
	assert.Greater(t, score.Score, 70)
	assert.NotEmpty(t, score.Grade)
}

func TestScoreSymbolETFExcluded(t *testing.T) {
	store := memory.NewManager()
	market := &mockMarket{}
	svc := NewService(market, store, common.NewSilentLogger())

	score, err := svc.ScoreSymbol(context.Background(), "SCHD")
	require.NoError(t, err)

	assert.True(t, score.Excluded)
	assert.NotEmpty(t, score.ExcludedReason)
	assert.Zero(t, market.statementCalls, "excluded symbols never hit the statement provider")
}

func TestScoreSymbolNoStatementsExcluded(t *testing.T) {
	store := memory.NewManager()
	market := &mockMarket{statements: map[string]*models.FinancialStatements{}}
	svc := NewService(market, store, common.NewSilentLogger())

	score, err := svc.ScoreSymbol(context.Background(), "XYZ")
	require.NoError(t, err)

	assert.True(t, score.Excluded)
	assert.Contains(t, score.ExcludedReason, "no financial statements")
}

func TestScoreSymbolInsufficientHistoryWarns(t *testing.T) {
	store := memory.NewManager()
	market := &mockMarket{statements: map[string]*models.FinancialStatements{
		"NEW": healthyStatements("NEW"),
	}}
	svc := NewService(market, store, common.NewSilentLogger())

	// No dividend events stored at all.
	score, err := svc.ScoreSymbol(context.Background(), "NEW")
	require.NoError(t, err)

	assert.False(t, score.Excluded)
	assert.Contains(t, score.Warnings, "insufficient dividend history for growth analysis")
}

func TestScorePortfolioRollup(t *testing.T) {
	store := memory.NewManager()
	market := &mockMarket{statements: map[string]*models.FinancialStatements{
		"KO": healthyStatements("KO"),
	}}
	svc := NewService(market, store, common.NewSilentLogger())

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	seedDividends(t, store, "KO", base)

	ctx := context.Background()
	require.NoError(t, store.HoldingStore().Save(ctx, &models.Holding{
		PortfolioID: "p1", Symbol: "KO", Quantity: 100, AvgCostBasis: 50, TotalCost: 5000,
	}))
	require.NoError(t, store.HoldingStore().Save(ctx, &models.Holding{
		PortfolioID: "p1", Symbol: "SCHD", Quantity: 10, AvgCostBasis: 70, TotalCost: 700,
	}))

	result, err := svc.ScorePortfolio(ctx, "p1")
	require.NoError(t, err)

	assert.Equal(t, []string{"SCHD"}, result.Excluded)
	require.Len(t, result.Holdings, 2)

	// The ETF is excluded, so the scored holding carries all the weight.
	for _, h := range result.Holdings {
		if h.Symbol == "KO" {
			assert.InDelta(t, 1.0, h.Weight, 1e-9)
			assert.Greater(t, h.AnnualDividend, 0.0)
		}
		if h.Symbol == "SCHD" {
			assert.True(t, h.Excluded)
			assert.Zero(t, h.Weight)
		}
	}

	assert.Greater(t, result.WeightedScore, 0)
	assert.NotEmpty(t, result.Grade)

	// Income lands in the bucket matching the score band.
	total := result.Distribution.SafeIncome + result.Distribution.ModerateIncome +
		result.Distribution.RiskyIncome + result.Distribution.DangerousIncome
	assert.Greater(t, total, 0.0)
}
