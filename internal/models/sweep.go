// Package models defines data structures for the portfolio tracker
package models

import "time"

// SweepResult summarizes one freshness sweep. Per-symbol failures are
// captured here; a single symbol's error never aborts the batch.
type SweepResult struct {
	Refreshed []string          `json:"refreshed"`
	Skipped   []string          `json:"skipped"`
	Errors    map[string]string `json:"errors,omitempty"`
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration"`
}

// NewSweepResult returns an empty result stamped with the start time.
func NewSweepResult(start time.Time) *SweepResult {
	return &SweepResult{
		Refreshed: []string{},
		Skipped:   []string{},
		Errors:    map[string]string{},
		StartedAt: start,
	}
}

// RecordError captures a per-symbol failure.
func (r *SweepResult) RecordError(symbol string, err error) {
	r.Errors[symbol] = err.Error()
}
