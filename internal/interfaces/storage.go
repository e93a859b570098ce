// Package interfaces defines service contracts for the portfolio tracker
package interfaces

import (
	"context"
	"time"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	QuoteStore() QuoteStore
	PriceBarStore() PriceBarStore
	DividendStore() DividendStore
	SymbolStore() SymbolStore
	PortfolioStore() PortfolioStore
	TransactionStore() TransactionStore
	HoldingStore() HoldingStore
	DividendPaymentStore() DividendPaymentStore
	SafetyCacheStore() SafetyCacheStore
	SystemKV() SystemKV

	Close() error
}

// QuoteStore persists the current quote per symbol, overwritten in place.
type QuoteStore interface {
	Get(ctx context.Context, symbol string) (*models.Quote, error)
	Save(ctx context.Context, quote *models.Quote) error
	GetBatch(ctx context.Context, symbols []string) (map[string]*models.Quote, error)
}

// PriceBarStore persists daily bars keyed by (symbol, date).
type PriceBarStore interface {
	// UpsertIfAbsent writes bars that are not already stored and reports how
	// many were inserted. Existing bars are never overwritten.
	UpsertIfAbsent(ctx context.Context, bars []models.PriceBar) (int, error)

	// GetRange returns stored bars for the inclusive date range, ascending.
	GetRange(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)

	// StoredDates returns the set of trading dates already stored in the range.
	StoredDates(ctx context.Context, symbol string, from, to time.Time) (map[string]bool, error)
}

// DividendStore persists dividend events keyed by (symbol, ex-date).
type DividendStore interface {
	// Upsert writes events by natural key. Null record/payment dates on an
	// existing row are filled in from the incoming event rather than erased.
	Upsert(ctx context.Context, events []models.DividendEvent) error

	Get(ctx context.Context, symbol string, exDate time.Time) (*models.DividendEvent, error)
	ListBySymbol(ctx context.Context, symbol string) ([]models.DividendEvent, error)
	CountBySymbol(ctx context.Context, symbol string) (int, error)
}

// SymbolStore manages the ticker registry.
type SymbolStore interface {
	Get(ctx context.Context, symbol string) (*models.SymbolRecord, error)
	Save(ctx context.Context, record *models.SymbolRecord) error
	List(ctx context.Context) ([]models.SymbolRecord, error)
}

// PortfolioStore manages portfolio rows.
type PortfolioStore interface {
	Get(ctx context.Context, id string) (*models.Portfolio, error)
	GetByName(ctx context.Context, userID, name string) (*models.Portfolio, error)
	Save(ctx context.Context, portfolio *models.Portfolio) error
	ListByUser(ctx context.Context, userID string) ([]models.Portfolio, error)
	ListActive(ctx context.Context) ([]models.Portfolio, error)
}

// TransactionStore manages the transaction ledger.
type TransactionStore interface {
	Get(ctx context.Context, id string) (*models.Transaction, error)

	// Insert assigns the next insertion sequence number and writes the row.
	Insert(ctx context.Context, txn *models.Transaction) error

	// Update rewrites an existing row, preserving its sequence number.
	Update(ctx context.Context, txn *models.Transaction) error

	Delete(ctx context.Context, id string) error

	// ListForHolding returns all transactions for (portfolio, symbol) ordered
	// by (date, insertion sequence).
	ListForHolding(ctx context.Context, portfolioID, symbol string) ([]models.Transaction, error)

	ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error)
}

// HoldingStore manages derived holding rows.
type HoldingStore interface {
	Get(ctx context.Context, portfolioID, symbol string) (*models.Holding, error)
	Save(ctx context.Context, holding *models.Holding) error
	Delete(ctx context.Context, portfolioID, symbol string) error
	ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Holding, error)

	// ListHeldSymbols returns the distinct symbols with positive-quantity
	// holdings across the given portfolios.
	ListHeldSymbols(ctx context.Context, portfolioIDs []string) ([]string, error)
}

// DividendPaymentStore manages recorded dividend payments.
type DividendPaymentStore interface {
	Get(ctx context.Context, id string) (*models.DividendPayment, error)

	// Insert writes a payment, failing with ErrDuplicatePayment when one
	// already exists for the same (portfolio, dividend event).
	Insert(ctx context.Context, payment *models.DividendPayment) error

	ListByPortfolio(ctx context.Context, portfolioID string) ([]models.DividendPayment, error)
	Exists(ctx context.Context, portfolioID, dividendKey string) (bool, error)
}

// SafetyCacheStore persists computed dividend-safety scores keyed by symbol.
type SafetyCacheStore interface {
	Get(ctx context.Context, symbol string) (*models.SafetyScore, error)
	Save(ctx context.Context, score *models.SafetyScore) error
	GetBatch(ctx context.Context, symbols []string) (map[string]*models.SafetyScore, error)
}

// SystemKV is a small system key-value store (quota counters, marks).
type SystemKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error

	// Increment atomically adds delta to an integer value and returns the
	// new total. Missing keys start at zero.
	Increment(ctx context.Context, key string, delta int) (int, error)
}
