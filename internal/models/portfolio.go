// Package models defines data structures for the portfolio tracker
package models

import (
	"fmt"
	"strings"
	"time"
)

// Portfolio types.
const (
	PortfolioTypePersonal   = "personal"
	PortfolioTypeRetirement = "retirement"
	PortfolioTypeTrading    = "trading"
	PortfolioTypeSavings    = "savings"
	PortfolioTypeOther      = "other"
)

// Portfolio belongs to a user and owns a transaction ledger. Soft-deleted via
// the Active flag, never hard-deleted.
type Portfolio struct {
	ID        string    `json:"id" badgerhold:"key"`
	UserID    string    `json:"user_id" badgerhold:"index"`
	Name      string    `json:"name"`
	Type      string    `json:"type"` // personal, retirement, trading, savings, other
	Currency  string    `json:"currency"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidPortfolioType reports whether t is a known portfolio type.
func ValidPortfolioType(t string) bool {
	switch t {
	case PortfolioTypePersonal, PortfolioTypeRetirement, PortfolioTypeTrading,
		PortfolioTypeSavings, PortfolioTypeOther:
		return true
	}
	return false
}

// Transaction types.
const (
	TransactionTypeBuy         = "buy"
	TransactionTypeSell        = "sell"
	TransactionTypeDividend    = "dividend"
	TransactionTypeSplit       = "split"
	TransactionTypeTransferIn  = "transfer_in"
	TransactionTypeTransferOut = "transfer_out"
)

// Transaction is one row of the append-only brokerage ledger, the source of
// truth for holdings. Corrections are handled by update/delete followed by a
// full replay for the affected (portfolio, symbol) pair.
type Transaction struct {
	ID          string    `json:"id" badgerhold:"key"`
	PortfolioID string    `json:"portfolio_id" badgerhold:"index"`
	Symbol      string    `json:"symbol" badgerhold:"index"`
	Type        string    `json:"type"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	Fees        float64   `json:"fees"`
	Date        time.Time `json:"date"`
	Notes       string    `json:"notes,omitempty"`
	Seq         uint64    `json:"seq"` // insertion order, tiebreaker within a date
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the transaction fields before the ledger accepts it.
func (t *Transaction) Validate() error {
	if t.PortfolioID == "" {
		return fmt.Errorf("transaction: portfolio id is required")
	}
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("transaction: symbol is required")
	}
	switch t.Type {
	case TransactionTypeBuy, TransactionTypeSell, TransactionTypeDividend,
		TransactionTypeSplit, TransactionTypeTransferIn, TransactionTypeTransferOut:
	default:
		return fmt.Errorf("transaction: unknown type %q", t.Type)
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("transaction: quantity must be positive")
	}
	if t.Price < 0 {
		return fmt.Errorf("transaction: price must not be negative")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction: date is required")
	}
	return nil
}

// Holding is the derived position for (portfolio, symbol). Quantity and
// AvgCostBasis always equal the values obtained by replaying the portfolio's
// transactions for the symbol in (date, insertion) order. Replays that yield
// quantity <= 0 delete the row instead of writing it.
type Holding struct {
	ID           string    `json:"id" badgerhold:"key"` // portfolioID/symbol
	PortfolioID  string    `json:"portfolio_id" badgerhold:"index"`
	Symbol       string    `json:"symbol"`
	Quantity     float64   `json:"quantity"`
	AvgCostBasis float64   `json:"avg_cost_basis"`
	TotalCost    float64   `json:"total_cost"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HoldingKey builds the natural key for a holding row.
func HoldingKey(portfolioID, symbol string) string {
	return portfolioID + "/" + symbol
}

// Dividend payment types.
const (
	PaymentTypeCash = "cash"
	PaymentTypeDRIP = "drip"
)

// DividendPayment records that a portfolio received a dividend event.
// At most one exists per (portfolio, dividend event).
type DividendPayment struct {
	ID            string    `json:"id" badgerhold:"key"`
	PortfolioID   string    `json:"portfolio_id" badgerhold:"index"`
	DividendKey   string    `json:"dividend_key" badgerhold:"index"` // DividendEvent.Key()
	Symbol        string    `json:"symbol"`
	SharesOwned   float64   `json:"shares_owned"` // at ex-date
	TotalAmount   float64   `json:"total_amount"`
	PaymentType   string    `json:"payment_type"` // cash, drip
	DRIPShares    float64   `json:"drip_shares,omitempty"`
	DRIPPrice     float64   `json:"drip_price,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"` // synthetic dividend transaction
	CreatedAt     time.Time `json:"created_at"`
}

// Validate checks the payment fields before recording.
func (p *DividendPayment) Validate() error {
	if p.PortfolioID == "" {
		return fmt.Errorf("dividend payment: portfolio id is required")
	}
	if p.DividendKey == "" {
		return fmt.Errorf("dividend payment: dividend key is required")
	}
	if p.SharesOwned <= 0 {
		return fmt.Errorf("dividend payment: shares owned must be positive")
	}
	if p.TotalAmount <= 0 {
		return fmt.Errorf("dividend payment: total amount must be positive")
	}
	switch p.PaymentType {
	case PaymentTypeCash:
	case PaymentTypeDRIP:
		if p.DRIPShares <= 0 {
			return fmt.Errorf("dividend payment: drip shares must be positive")
		}
		if p.DRIPPrice <= 0 {
			return fmt.Errorf("dividend payment: drip price must be positive")
		}
	default:
		return fmt.Errorf("dividend payment: unknown payment type %q", p.PaymentType)
	}
	return nil
}

// HoldingView joins a derived holding with its current quote for display.
// Quote is nil when no quote has been captured for the symbol yet.
type HoldingView struct {
	Holding     Holding  `json:"holding"`
	Quote       *Quote   `json:"quote,omitempty"`
	MarketValue *float64 `json:"market_value,omitempty"` // nil without a quote
	GainLoss    *float64 `json:"gain_loss,omitempty"`
	GainLossPct *float64 `json:"gain_loss_pct,omitempty"`
}
