package marketdata

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

type mockYahoo struct {
	quote        *models.Quote
	quoteErr     error
	dividends    []models.DividendEvent
	dividendErr  error
	dividendHits int
}

func (m *mockYahoo) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	q := *m.quote
	q.Symbol = symbol
	return &q, nil
}

func (m *mockYahoo) GetDailyBars(_ context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	return []models.PriceBar{{Symbol: symbol, Date: common.NormalizeDate(from), Close: 10, Volume: 1}}, nil
}

func (m *mockYahoo) GetDividends(_ context.Context, symbol string, from, to time.Time) ([]models.DividendEvent, error) {
	m.dividendHits++
	return m.dividends, m.dividendErr
}

func (m *mockYahoo) Search(_ context.Context, query string) ([]models.SymbolSearchResult, error) {
	return []models.SymbolSearchResult{{Symbol: "AAPL", Name: "Apple Inc."}}, nil
}

type mockFMP struct {
	dividends    []models.DividendEvent
	dividendErr  error
	dividendHits int
	statements   *models.FinancialStatements
}

func (m *mockFMP) GetDividends(_ context.Context, symbol string, from, to time.Time) ([]models.DividendEvent, error) {
	m.dividendHits++
	return m.dividends, m.dividendErr
}

func (m *mockFMP) GetStatements(_ context.Context, symbol string, limit int) (*models.FinancialStatements, error) {
	return m.statements, nil
}

func (m *mockFMP) GetDividendCalendar(_ context.Context, from, to time.Time) ([]models.DividendEvent, error) {
	return nil, nil
}

func newTestService(yahoo *mockYahoo, fmp *mockFMP) *Service {
	cfg := common.NewDefaultConfig()
	cfg.Market.Timezone = "UTC"
	clock := common.NewMarketClock(cfg.Market)
	return NewService(yahoo, fmp, clock, cfg, common.NewSilentLogger())
}

func TestGetQuoteStampsMarketState(t *testing.T) {
	yahoo := &mockYahoo{quote: &models.Quote{Price: 150, Currency: "USD"}}
	svc := newTestService(yahoo, &mockFMP{})

	// Wednesday 12:00 UTC falls inside the 09:30-16:00 session.
	svc.now = func() time.Time { return time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) }

	quote, err := svc.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, models.MarketStateRegular, quote.MarketState)
	assert.Equal(t, svc.now(), quote.FetchedAt)
}

func TestGetQuoteClosedOnWeekend(t *testing.T) {
	yahoo := &mockYahoo{quote: &models.Quote{Price: 150}}
	svc := newTestService(yahoo, &mockFMP{})
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	quote, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, models.MarketStateClosed, quote.MarketState)
}

func TestGetQuoteRejectsInvalidSymbol(t *testing.T) {
	svc := newTestService(&mockYahoo{quote: &models.Quote{}}, &mockFMP{})
	_, err := svc.GetQuote(context.Background(), "../etc/passwd")
	assert.Error(t, err)
}

func TestGetDividendsPrimaryWins(t *testing.T) {
	yahoo := &mockYahoo{dividends: []models.DividendEvent{{Symbol: "KO", Amount: 0.5}}}
	fmp := &mockFMP{dividends: []models.DividendEvent{{Symbol: "KO", Amount: 0.4}}}
	svc := newTestService(yahoo, fmp)

	events, err := svc.GetDividends(context.Background(), "KO", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 0.5, events[0].Amount)
	assert.Zero(t, fmp.dividendHits)
}

func TestGetDividendsFallsBackWhenPrimaryEmpty(t *testing.T) {
	yahoo := &mockYahoo{}
	fmp := &mockFMP{dividends: []models.DividendEvent{{Symbol: "KO", Amount: 0.4}}}
	svc := newTestService(yahoo, fmp)

	events, err := svc.GetDividends(context.Background(), "KO", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 0.4, events[0].Amount)
	assert.Equal(t, 1, yahoo.dividendHits)
	assert.Equal(t, 1, fmp.dividendHits)
}

func TestGetDividendsFallsBackWhenPrimaryFails(t *testing.T) {
	yahoo := &mockYahoo{dividendErr: fmt.Errorf("upstream timeout")}
	fmp := &mockFMP{dividends: []models.DividendEvent{{Symbol: "KO", Amount: 0.4}}}
	svc := newTestService(yahoo, fmp)

	events, err := svc.GetDividends(context.Background(), "KO", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestGetDividendsBothFail(t *testing.T) {
	yahoo := &mockYahoo{dividendErr: fmt.Errorf("upstream timeout")}
	fmp := &mockFMP{dividendErr: fmt.Errorf("quota exhausted")}
	svc := newTestService(yahoo, fmp)

	_, err := svc.GetDividends(context.Background(), "KO", time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestGetDailyBarsRejectsInvertedRange(t *testing.T) {
	svc := newTestService(&mockYahoo{}, &mockFMP{})
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.GetDailyBars(context.Background(), "AAPL", from, from.AddDate(0, 0, -5))
	assert.Error(t, err)
}

func TestDailyQuotaRollsOverByDay(t *testing.T) {
	store := newKV()
	quota := NewDailyQuota(store, "fmp_quota", 2, common.NewSilentLogger())

	day1 := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	quota.now = func() time.Time { return day1 }

	ctx := context.Background()
	require.NoError(t, quota.Reserve(ctx))
	require.NoError(t, quota.Reserve(ctx))
	assert.Error(t, quota.Reserve(ctx), "third request exceeds the daily budget")

	// Midnight rollover resets the budget.
	quota.now = func() time.Time { return day1.Add(2 * time.Hour) }
	assert.NoError(t, quota.Reserve(ctx))
}

func TestDailyQuotaDisabledWhenZero(t *testing.T) {
	quota := NewDailyQuota(newKV(), "fmp_quota", 0, common.NewSilentLogger())
	for i := 0; i < 10; i++ {
		require.NoError(t, quota.Reserve(context.Background()))
	}
}

// kvMap is a minimal in-memory SystemKV for quota tests.
type kvMap struct {
	values map[string]int
}

func newKV() *kvMap { return &kvMap{values: make(map[string]int)} }

func (k *kvMap) Get(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("%d", k.values[key]), nil
}

func (k *kvMap) Set(_ context.Context, key, value string) error { return nil }

func (k *kvMap) Increment(_ context.Context, key string, delta int) (int, error) {
	k.values[key] += delta
	return k.values[key], nil
}
