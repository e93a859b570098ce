// Package marketdata provides the normalized facade over market data providers.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

// Service routes market data requests to the right provider and normalizes
// the results. Symbols are validated and normalized at this boundary so the
// layers below can assume clean input.
type Service struct {
	yahoo  interfaces.YahooClient
	fmp    interfaces.FMPClient
	clock  *common.MarketClock
	config *common.Config
	logger *common.Logger
	now    func() time.Time
}

// NewService creates a market data service.
func NewService(yahoo interfaces.YahooClient, fmp interfaces.FMPClient, clock *common.MarketClock, config *common.Config, logger *common.Logger) *Service {
	return &Service{
		yahoo:  yahoo,
		fmp:    fmp,
		clock:  clock,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) normalize(symbol string) (string, error) {
	sym := common.NormalizeSymbol(symbol)
	if err := common.ValidateSymbol(sym); err != nil {
		return "", err
	}
	return sym, nil
}

// GetQuote fetches a current quote and stamps the market state from the
// configured market clock. The provider's own state field is not trusted.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	sym, err := s.normalize(symbol)
	if err != nil {
		return nil, err
	}

	quote, err := s.yahoo.GetQuote(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("quote fetch for %s: %w", sym, err)
	}

	quote.Symbol = sym
	quote.MarketState = s.clock.State(s.now())
	quote.FetchedAt = s.now()
	return quote, nil
}

// GetDailyBars fetches daily bars for the inclusive date range.
func (s *Service) GetDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	sym, err := s.normalize(symbol)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("invalid bar range for %s: %s after %s", sym, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	bars, err := s.yahoo.GetDailyBars(ctx, sym, from, to)
	if err != nil {
		return nil, fmt.Errorf("bar fetch for %s: %w", sym, err)
	}
	return bars, nil
}

// GetDividends fetches dividend events from the configured primary provider.
// When the primary errors or returns nothing, the fallback provider is tried.
func (s *Service) GetDividends(ctx context.Context, symbol string, from, to time.Time) ([]models.DividendEvent, error) {
	sym, err := s.normalize(symbol)
	if err != nil {
		return nil, err
	}

	primary := s.config.Market.DividendProvider
	fallback := s.config.Market.DividendFallback

	events, primaryErr := s.fetchDividends(ctx, primary, sym, from, to)
	if primaryErr == nil && len(events) > 0 {
		return events, nil
	}

	if fallback == "" || fallback == primary {
		if primaryErr != nil {
			return nil, fmt.Errorf("dividend fetch for %s via %s: %w", sym, primary, primaryErr)
		}
		return events, nil
	}

	if primaryErr != nil {
		s.logger.Warn().Err(primaryErr).Str("symbol", sym).Str("provider", primary).Msg("Primary dividend provider failed, trying fallback")
	} else {
		s.logger.Debug().Str("symbol", sym).Str("provider", primary).Msg("Primary dividend provider returned nothing, trying fallback")
	}

	fallbackEvents, fallbackErr := s.fetchDividends(ctx, fallback, sym, from, to)
	if fallbackErr != nil {
		if primaryErr != nil {
			return nil, fmt.Errorf("dividend fetch for %s failed on both providers: %w", sym, primaryErr)
		}
		return events, nil
	}
	if len(fallbackEvents) > 0 {
		return fallbackEvents, nil
	}
	return events, nil
}

func (s *Service) fetchDividends(ctx context.Context, provider, symbol string, from, to time.Time) ([]models.DividendEvent, error) {
	switch provider {
	case "fmp":
		return s.fmp.GetDividends(ctx, symbol, from, to)
	default:
		return s.yahoo.GetDividends(ctx, symbol, from, to)
	}
}

// GetStatements fetches annual financial statements, most recent first.
func (s *Service) GetStatements(ctx context.Context, symbol string, limit int) (*models.FinancialStatements, error) {
	sym, err := s.normalize(symbol)
	if err != nil {
		return nil, err
	}

	statements, err := s.fmp.GetStatements(ctx, sym, limit)
	if err != nil {
		return nil, fmt.Errorf("statement fetch for %s: %w", sym, err)
	}
	return statements, nil
}

// Search looks up symbols matching the query.
func (s *Service) Search(ctx context.Context, query string) ([]models.SymbolSearchResult, error) {
	if query == "" {
		return nil, nil
	}
	return s.yahoo.Search(ctx, query)
}

// Ensure Service implements MarketDataService
var _ interfaces.MarketDataService = (*Service)(nil)
