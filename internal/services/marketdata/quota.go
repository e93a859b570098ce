package marketdata

import (
	"context"
	"time"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/clients/fmp"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
)

// DailyQuota tracks provider request spend per UTC day in the system KV
// store so the count survives restarts. A limit of zero or less disables
// enforcement.
type DailyQuota struct {
	kv     interfaces.SystemKV
	limit  int
	prefix string
	logger *common.Logger
	now    func() time.Time
}

// NewDailyQuota creates a quota tracker for the given provider prefix.
func NewDailyQuota(kv interfaces.SystemKV, prefix string, limit int, logger *common.Logger) *DailyQuota {
	return &DailyQuota{
		kv:     kv,
		limit:  limit,
		prefix: prefix,
		logger: logger,
		now:    time.Now,
	}
}

// Reserve spends one request from today's budget. The counter key rolls over
// at UTC midnight, which resets the budget without any cleanup job.
func (q *DailyQuota) Reserve(ctx context.Context) error {
	if q.limit <= 0 {
		return nil
	}

	key := q.prefix + "/" + q.now().UTC().Format("2006-01-02")
	used, err := q.kv.Increment(ctx, key, 1)
	if err != nil {
		return err
	}

	if used > q.limit {
		q.logger.Warn().Str("key", key).Int("used", used).Int("limit", q.limit).Msg("Daily request quota exhausted")
		return fmp.ErrQuotaExhausted
	}
	return nil
}

// Ensure DailyQuota implements the client's tracker contract
var _ fmp.QuotaTracker = (*DailyQuota)(nil)
