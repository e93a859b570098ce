// Package interfaces defines service contracts for the portfolio tracker
package interfaces

import (
	"context"
	"time"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

// QuoteProvider fetches current quote snapshots.
type QuoteProvider interface {
	// GetQuote retrieves the current quote snapshot for a symbol.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// HistoryProvider fetches daily bar history.
type HistoryProvider interface {
	// GetDailyBars retrieves daily bars for the inclusive date range.
	GetDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)
}

// DividendProvider fetches dividend event history.
type DividendProvider interface {
	// GetDividends retrieves dividend events for the inclusive date range.
	GetDividends(ctx context.Context, symbol string, from, to time.Time) ([]models.DividendEvent, error)
}

// YahooClient provides access to the free, keyless provider.
type YahooClient interface {
	QuoteProvider
	HistoryProvider
	DividendProvider

	// Search looks up symbols matching a query string.
	Search(ctx context.Context, query string) ([]models.SymbolSearchResult, error)
}

// FMPClient provides access to the keyed provider. All calls count against a
// daily request quota tracked outside the client.
type FMPClient interface {
	DividendProvider

	// GetStatements retrieves annual financial statements, most recent first.
	GetStatements(ctx context.Context, symbol string, limit int) (*models.FinancialStatements, error)

	// GetDividendCalendar retrieves upcoming dividend events across symbols.
	GetDividendCalendar(ctx context.Context, from, to time.Time) ([]models.DividendEvent, error)
}
