// Package models defines data structures for the portfolio tracker
package models

import "time"

// Safety factor names.
const (
	FactorPayoutRatio      = "payout_ratio"
	FactorFCFCoverage      = "fcf_coverage"
	FactorDebtToEquity     = "debt_to_equity"
	FactorDividendGrowth   = "dividend_growth"
	FactorEarningsStability = "earnings_stability"
)

// FactorScore is one independently-computed safety factor.
type FactorScore struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`  // the underlying ratio/metric
	Score  float64 `json:"score"`  // banded 0-100
	Weight float64 `json:"weight"` // contribution weight, sums to 1.0 across factors
}

// SafetyScore is the 0-100 dividend sustainability result for a symbol.
// Excluded marks securities (ETFs, REITs) that cannot be scored from
// corporate financial statements; this is a first-class "cannot score"
// outcome, distinct from stale data.
type SafetyScore struct {
	Symbol         string        `json:"symbol" badgerhold:"key"`
	Score          int           `json:"score"`
	Grade          string        `json:"grade"` // A+, A, B, C, D, F
	Factors        []FactorScore `json:"factors,omitempty"`
	Warnings       []string      `json:"warnings,omitempty"`
	Excluded       bool          `json:"excluded"`
	ExcludedReason string        `json:"excluded_reason,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at"` // freshness gate for the cache
}

// GradeForScore maps a 0-100 score to a letter grade.
func GradeForScore(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

// HoldingSafety pairs a held symbol with its safety result and the income it
// contributes, for the portfolio rollup.
type HoldingSafety struct {
	Symbol         string  `json:"symbol"`
	Score          int     `json:"score"`
	Grade          string  `json:"grade"`
	Weight         float64 `json:"weight"`          // value weight within scored holdings
	AnnualDividend float64 `json:"annual_dividend"` // quantity x dividend per share
	Excluded       bool    `json:"excluded"`
	ExcludedReason string  `json:"excluded_reason,omitempty"`
}

// RiskDistribution buckets annual dividend income by safety band. Income at
// risk is measured by dividend dollars, not by score weight.
type RiskDistribution struct {
	SafeIncome      float64 `json:"safe_income"`      // score >= 70
	ModerateIncome  float64 `json:"moderate_income"`  // 50 <= score < 70
	RiskyIncome     float64 `json:"risky_income"`     // 30 <= score < 50
	DangerousIncome float64 `json:"dangerous_income"` // score < 30
}

// PortfolioSafety is the value-weighted rollup across a portfolio's holdings.
// Excluded symbols are omitted from both the weighted average and the
// distribution buckets.
type PortfolioSafety struct {
	PortfolioID   string           `json:"portfolio_id"`
	WeightedScore int              `json:"weighted_score"`
	Grade         string           `json:"grade"`
	Holdings      []HoldingSafety  `json:"holdings"`
	Distribution  RiskDistribution `json:"distribution"`
	Excluded      []string         `json:"excluded,omitempty"` // symbols not analyzable
	ComputedAt    time.Time        `json:"computed_at"`
}
