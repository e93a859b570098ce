// Package interfaces defines service contracts for the portfolio tracker
package interfaces

import (
	"context"
	"time"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

// MarketDataService is the normalized facade over both providers. Provider
// selection (including the dividend primary/fallback pair) happens here, once,
// rather than inside business logic.
type MarketDataService interface {
	// GetQuote fetches a current quote snapshot.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetDailyBars fetches daily bars for the inclusive date range. Bars with
	// null close or volume are dropped before returning.
	GetDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)

	// GetDividends fetches dividend events from the configured primary
	// provider, falling back to the secondary when the primary returns nothing.
	GetDividends(ctx context.Context, symbol string, from, to time.Time) ([]models.DividendEvent, error)

	// GetStatements fetches annual financial statements, most recent first.
	GetStatements(ctx context.Context, symbol string, limit int) (*models.FinancialStatements, error)

	// Search looks up symbols matching a query string.
	Search(ctx context.Context, query string) ([]models.SymbolSearchResult, error)
}

// FreshnessService keeps quote, bar, and dividend data fresh for exactly the
// symbols currently held by active portfolios.
type FreshnessService interface {
	// SweepQuotes refreshes stale quotes for all held symbols. When force is
	// true, freshness windows are ignored. Per-symbol failures are recorded in
	// the result; the sweep never aborts on one symbol.
	SweepQuotes(ctx context.Context, force bool) (*models.SweepResult, error)

	// EnsureSymbol creates the symbol registry entry on first sight, which
	// triggers the initial historical backfill and dividend fetch.
	EnsureSymbol(ctx context.Context, symbol string) (*models.SymbolRecord, error)

	// BackfillHistory fills missing business-day bars over the lookback
	// window, fetching each contiguous missing range independently.
	BackfillHistory(ctx context.Context, symbol string) error

	// RefreshDividends refetches dividend events when none are stored or the
	// last fetch is older than the configured maximum age.
	RefreshDividends(ctx context.Context, symbol string, force bool) error
}

// LedgerService maintains the invariant between the transaction ledger and
// derived holdings.
type LedgerService interface {
	// AddTransaction validates, inserts, and replays the affected holding.
	AddTransaction(ctx context.Context, txn *models.Transaction) error

	// UpdateTransaction rewrites a row and replays. When the edit moves the
	// transaction between symbols, both holdings are replayed.
	UpdateTransaction(ctx context.Context, txn *models.Transaction) error

	// DeleteTransaction removes a row and replays the affected holding.
	DeleteTransaction(ctx context.Context, id string) error

	// Replay recomputes the holding for (portfolio, symbol) from scratch.
	Replay(ctx context.Context, portfolioID, symbol string) (*models.Holding, error)

	// RecordDividendPayment records a cash or DRIP dividend payment, adjusts
	// the holding's cost basis, and appends the synthetic transactions.
	RecordDividendPayment(ctx context.Context, payment *models.DividendPayment) error
}

// SafetyService produces dividend-safety scores and portfolio rollups.
type SafetyService interface {
	// ScoreSymbol returns the cached score when fresh, recomputing otherwise.
	ScoreSymbol(ctx context.Context, symbol string) (*models.SafetyScore, error)

	// ScorePortfolio bulk-refreshes stale cache entries for the portfolio's
	// holdings, then computes the value-weighted rollup.
	ScorePortfolio(ctx context.Context, portfolioID string) (*models.PortfolioSafety, error)
}

// PortfolioService manages portfolio rows and read-through holding views.
type PortfolioService interface {
	CreatePortfolio(ctx context.Context, userID, name, ptype, currency string) (*models.Portfolio, error)
	GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error)
	RenamePortfolio(ctx context.Context, id, name string) (*models.Portfolio, error)

	// DeactivatePortfolio soft-deletes via the active flag.
	DeactivatePortfolio(ctx context.Context, id string) error

	// GetHoldings returns holdings joined with current quotes. Missing quotes
	// surface as nil fields, not zeros.
	GetHoldings(ctx context.Context, portfolioID string) ([]models.HoldingView, error)
}
