package freshness

import (
	"context"
	"time"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

// missingRanges diffs the expected business days against the stored dates
// and coalesces consecutive missing days into contiguous ranges. A stored
// day always breaks a range; ranges are never merged across it.
func missingRanges(expected []time.Time, stored map[string]bool) []models.DateRange {
	var ranges []models.DateRange
	var open *models.DateRange

	for _, day := range expected {
		if stored[day.Format("2006-01-02")] {
			if open != nil {
				ranges = append(ranges, *open)
				open = nil
			}
			continue
		}
		if open == nil {
			open = &models.DateRange{From: day, To: day}
		} else {
			open.To = day
		}
	}
	if open != nil {
		ranges = append(ranges, *open)
	}
	return ranges
}

// BackfillHistory fills missing daily bars over the lookback window. Each
// contiguous missing range is fetched independently so a long-held symbol
// with one gap does not refetch its whole history. The window ends at the
// previous day; the current session's bar is not final until the close.
func (s *Service) BackfillHistory(ctx context.Context, symbol string) error {
	sym := common.NormalizeSymbol(symbol)

	record, err := s.storage.SymbolStore().Get(ctx, sym)
	if err != nil {
		return err
	}

	now := s.now()
	to := common.NormalizeDate(now.AddDate(0, 0, -1))
	from := common.NormalizeDate(now.AddDate(0, 0, -s.config.Market.GetLookbackDays()))

	expected := common.BusinessDays(from, to)
	stored, err := s.storage.PriceBarStore().StoredDates(ctx, sym, from, to)
	if err != nil {
		return err
	}

	ranges := missingRanges(expected, stored)
	if len(ranges) == 0 {
		record.HistoryFetchedAt = now
		return s.storage.SymbolStore().Save(ctx, record)
	}

	s.logger.Debug().Str("symbol", sym).Int("ranges", len(ranges)).Msg("Backfilling missing bar ranges")

	delay := s.config.Market.GetHistoryDelay()
	for i, r := range ranges {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		bars, err := s.market.GetDailyBars(ctx, sym, r.From, r.To)
		if err != nil {
			return err
		}
		inserted, err := s.storage.PriceBarStore().UpsertIfAbsent(ctx, bars)
		if err != nil {
			return err
		}
		s.logger.Debug().Str("symbol", sym).Str("range", r.String()).Int("inserted", inserted).Msg("Bar range filled")
	}

	record.HistoryFetchedAt = now
	return s.storage.SymbolStore().Save(ctx, record)
}
