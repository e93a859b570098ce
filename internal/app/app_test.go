package app

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

func TestNewWiresComponentGraph(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "folio.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
[storage]
path = "`+filepath.Join(dir, "data")+`"

[logging]
level = "error"
`), 0644))

	a, err := New(configPath)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Market)
	assert.NotNil(t, a.Freshness)
	assert.NotNil(t, a.Ledger)
	assert.NotNil(t, a.Safety)
	assert.NotNil(t, a.Portfolio)
	assert.NotNil(t, a.Storage)
}

// sweepCounter is a FreshnessService stub that only counts sweep calls.
type sweepCounter struct {
	sweeps atomic.Int32
}

func (s *sweepCounter) SweepQuotes(ctx context.Context, force bool) (*models.SweepResult, error) {
	s.sweeps.Add(1)
	return models.NewSweepResult(time.Now()), nil
}

func (s *sweepCounter) EnsureSymbol(ctx context.Context, symbol string) (*models.SymbolRecord, error) {
	return nil, nil
}

func (s *sweepCounter) BackfillHistory(ctx context.Context, symbol string) error { return nil }

func (s *sweepCounter) RefreshDividends(ctx context.Context, symbol string, force bool) error {
	return nil
}

func TestSchedulerSweepsUntilCancelled(t *testing.T) {
	counter := &sweepCounter{}
	scheduler := NewScheduler(counter, 10*time.Millisecond, common.NewSilentLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	scheduler.Run(ctx)

	// One immediate sweep plus several ticks.
	assert.GreaterOrEqual(t, counter.sweeps.Load(), int32(2))
}
