// Package freshness keeps market data current for the symbols held by
// active portfolios.
package freshness

import (
	"context"
	"errors"
	"time"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

// historyGate limits stored-date diffing to once per day per symbol. Bars
// are immutable, so re-diffing inside the same day only rediscovers holidays.
const historyGate = 24 * time.Hour

// Service drives staleness-based refresh of quotes, daily bars, and
// dividend events. Only symbols held by active portfolios are touched.
type Service struct {
	market  interfaces.MarketDataService
	storage interfaces.StorageManager
	clock   *common.MarketClock
	config  *common.Config
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a freshness service.
func NewService(market interfaces.MarketDataService, storage interfaces.StorageManager, clock *common.MarketClock, config *common.Config, logger *common.Logger) *Service {
	return &Service{
		market:  market,
		storage: storage,
		clock:   clock,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// heldSymbols returns the distinct symbols with positive holdings across all
// active portfolios.
func (s *Service) heldSymbols(ctx context.Context) ([]string, error) {
	portfolios, err := s.storage.PortfolioStore().ListActive(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(portfolios))
	for _, p := range portfolios {
		ids = append(ids, p.ID)
	}
	return s.storage.HoldingStore().ListHeldSymbols(ctx, ids)
}

// quoteTTL returns the staleness window appropriate for the current market
// state.
func (s *Service) quoteTTL(now time.Time) time.Duration {
	if s.clock.IsOpen(now) {
		return s.config.Market.GetQuoteTTLOpen()
	}
	return s.config.Market.GetQuoteTTLClosed()
}

// SweepQuotes refreshes stale quotes for every held symbol, then backfills
// history and dividends where their own gates allow. One symbol's failure is
// recorded and never aborts the sweep.
func (s *Service) SweepQuotes(ctx context.Context, force bool) (*models.SweepResult, error) {
	start := s.now()
	result := models.NewSweepResult(start)

	symbols, err := s.heldSymbols(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int("symbols", len(symbols)).Bool("force", force).Msg("Starting freshness sweep")

	delay := s.config.Market.GetQuoteDelay()
	for i, symbol := range symbols {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				result.Duration = s.now().Sub(start)
				return result, ctx.Err()
			case <-time.After(delay):
			}
		}

		refreshed, err := s.refreshSymbol(ctx, symbol, force)
		if err != nil {
			result.RecordError(symbol, err)
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Symbol refresh failed")
			continue
		}
		if refreshed {
			result.Refreshed = append(result.Refreshed, symbol)
		} else {
			result.Skipped = append(result.Skipped, symbol)
		}
	}

	result.Duration = s.now().Sub(start)
	s.logger.Info().
		Int("refreshed", len(result.Refreshed)).
		Int("skipped", len(result.Skipped)).
		Int("errors", len(result.Errors)).
		Dur("duration", result.Duration).
		Msg("Freshness sweep complete")
	return result, nil
}

// refreshSymbol refreshes one symbol's quote when stale, then runs the gated
// history backfill and dividend refresh. Reports whether the quote was
// refetched.
func (s *Service) refreshSymbol(ctx context.Context, symbol string, force bool) (bool, error) {
	record, err := s.EnsureSymbol(ctx, symbol)
	if err != nil {
		return false, err
	}

	now := s.now()
	refreshed := false

	stored, err := s.storage.QuoteStore().Get(ctx, symbol)
	stale := force || err != nil || !common.IsFreshAt(stored.FetchedAt, s.quoteTTL(now), now)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return false, err
	}

	if stale {
		quote, err := s.market.GetQuote(ctx, symbol)
		if err != nil {
			return false, err
		}
		if err := s.storage.QuoteStore().Save(ctx, quote); err != nil {
			return false, err
		}
		refreshed = true
	}

	if force || !common.IsFreshAt(record.HistoryFetchedAt, historyGate, now) {
		if err := s.BackfillHistory(ctx, symbol); err != nil {
			return refreshed, err
		}
	}

	if err := s.RefreshDividends(ctx, symbol, force); err != nil {
		return refreshed, err
	}

	return refreshed, nil
}

// EnsureSymbol returns the registry entry for a symbol, creating it on first
// sight. Creation triggers the initial history backfill and dividend fetch.
func (s *Service) EnsureSymbol(ctx context.Context, symbol string) (*models.SymbolRecord, error) {
	sym := common.NormalizeSymbol(symbol)
	if err := common.ValidateSymbol(sym); err != nil {
		return nil, err
	}

	record, err := s.storage.SymbolStore().Get(ctx, sym)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	quote, err := s.market.GetQuote(ctx, sym)
	if err != nil {
		return nil, err
	}
	if err := s.storage.QuoteStore().Save(ctx, quote); err != nil {
		return nil, err
	}

	record = &models.SymbolRecord{
		Symbol:   sym,
		Currency: quote.Currency,
	}
	if err := s.storage.SymbolStore().Save(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info().Str("symbol", sym).Msg("Symbol registered, bootstrapping history")

	if err := s.BackfillHistory(ctx, sym); err != nil {
		s.logger.Warn().Err(err).Str("symbol", sym).Msg("Initial history backfill failed")
	}
	if err := s.RefreshDividends(ctx, sym, true); err != nil {
		s.logger.Warn().Err(err).Str("symbol", sym).Msg("Initial dividend fetch failed")
	}

	return s.storage.SymbolStore().Get(ctx, sym)
}

// RefreshDividends refetches dividend events over the lookback window when
// none are stored or the last fetch is older than the configured maximum age.
func (s *Service) RefreshDividends(ctx context.Context, symbol string, force bool) error {
	sym := common.NormalizeSymbol(symbol)

	record, err := s.storage.SymbolStore().Get(ctx, sym)
	if err != nil {
		return err
	}

	now := s.now()
	if !force {
		count, err := s.storage.DividendStore().CountBySymbol(ctx, sym)
		if err != nil {
			return err
		}
		if count > 0 && common.IsFreshAt(record.DividendsFetchedAt, s.config.Market.GetDividendMaxAge(), now) {
			return nil
		}
	}

	from := now.AddDate(0, 0, -s.config.Market.GetLookbackDays())
	events, err := s.market.GetDividends(ctx, sym, from, now)
	if err != nil {
		return err
	}
	if err := s.storage.DividendStore().Upsert(ctx, events); err != nil {
		return err
	}

	record.DividendsFetchedAt = now
	if err := s.storage.SymbolStore().Save(ctx, record); err != nil {
		return err
	}

	s.logger.Debug().Str("symbol", sym).Int("events", len(events)).Msg("Dividends refreshed")
	return nil
}

// Ensure Service implements FreshnessService
var _ interfaces.FreshnessService = (*Service)(nil)
