// Package models defines data structures for the portfolio tracker
package models

import (
	"fmt"
	"time"
)

// Market states for a quote snapshot.
const (
	MarketStatePre     = "PRE"
	MarketStateRegular = "REGULAR"
	MarketStatePost    = "POST"
	MarketStateClosed  = "CLOSED"
)

// Quote holds the current snapshot for a symbol. One row per symbol,
// overwritten in place on every refresh; no quote history is retained.
type Quote struct {
	Symbol        string    `json:"symbol" badgerhold:"key"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
	Volume        int64     `json:"volume"`
	High52Week    float64   `json:"high_52_week"`
	Low52Week     float64   `json:"low_52_week"`
	MarketState   string    `json:"market_state"` // PRE, REGULAR, POST, CLOSED
	Currency      string    `json:"currency,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// PriceBar represents a single trading day for a symbol. Immutable once
// written; the store upserts-if-absent by (symbol, date).
type PriceBar struct {
	Symbol   string    `json:"symbol"`
	Date     time.Time `json:"date"` // midnight UTC trading date
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close"`
	Volume   int64     `json:"volume"`
}

// Key returns the natural store key for the bar.
func (b PriceBar) Key() string {
	return b.Symbol + "/" + b.Date.Format("2006-01-02")
}

// Dividend event types.
const (
	DividendTypeRegular = "regular"
	DividendTypeSpecial = "special"
)

// DividendEvent is one declared dividend, keyed by (symbol, ex-date).
// Later fetches may fill in previously-missing record/payment dates.
type DividendEvent struct {
	Symbol          string     `json:"symbol"`
	ExDate          time.Time  `json:"ex_date"` // midnight UTC
	Amount          float64    `json:"amount"`  // per share
	RecordDate      *time.Time `json:"record_date,omitempty"`
	PaymentDate     *time.Time `json:"payment_date,omitempty"`
	DeclarationDate *time.Time `json:"declaration_date,omitempty"`
	Type            string     `json:"type"` // regular, special
	Source          string     `json:"source,omitempty"`
	FetchedAt       time.Time  `json:"fetched_at"`
}

// Key returns the natural store key for the event.
func (d DividendEvent) Key() string {
	return d.Symbol + "/" + d.ExDate.Format("2006-01-02")
}

// SymbolRecord is the per-ticker registry entry. Created on first sight of a
// symbol, which triggers the initial historical backfill and dividend fetch.
// Per-component fetch timestamps gate refresh decisions.
type SymbolRecord struct {
	Symbol             string    `json:"symbol" badgerhold:"key"`
	Name               string    `json:"name,omitempty"`
	Exchange           string    `json:"exchange,omitempty"`
	Currency           string    `json:"currency,omitempty"`
	QuoteType          string    `json:"quote_type,omitempty"` // EQUITY, ETF, MUTUALFUND...
	CreatedAt          time.Time `json:"created_at"`
	HistoryFetchedAt   time.Time `json:"history_fetched_at"`
	DividendsFetchedAt time.Time `json:"dividends_fetched_at"`
}

// SymbolSearchResult is a normalized symbol-lookup hit.
type SymbolSearchResult struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Exchange  string `json:"exchange"`
	QuoteType string `json:"quote_type"`
}

// DateRange is an inclusive range of trading dates.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
}

// IncomeStatement holds the subset of an annual income statement used by the
// safety scorer.
type IncomeStatement struct {
	Symbol    string    `json:"symbol"`
	Date      time.Time `json:"date"` // fiscal year end
	Revenue   float64   `json:"revenue"`
	NetIncome float64   `json:"net_income"`
	EPS       float64   `json:"eps"`
}

// BalanceSheet holds the subset of an annual balance sheet used by the
// safety scorer.
type BalanceSheet struct {
	Symbol      string    `json:"symbol"`
	Date        time.Time `json:"date"`
	TotalDebt   float64   `json:"total_debt"`
	TotalEquity float64   `json:"total_equity"`
}

// CashFlowStatement holds the subset of an annual cash-flow statement used by
// the safety scorer. DividendsPaid is negative in provider payloads (cash out).
type CashFlowStatement struct {
	Symbol        string    `json:"symbol"`
	Date          time.Time `json:"date"`
	FreeCashFlow  float64   `json:"free_cash_flow"`
	DividendsPaid float64   `json:"dividends_paid"`
}

// FinancialStatements bundles the statement history for one symbol,
// most recent first.
type FinancialStatements struct {
	Symbol    string              `json:"symbol"`
	Income    []IncomeStatement   `json:"income"`
	Balance   []BalanceSheet      `json:"balance"`
	CashFlow  []CashFlowStatement `json:"cash_flow"`
	FetchedAt time.Time           `json:"fetched_at"`
}
