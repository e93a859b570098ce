package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

// --- Quotes ---

type quoteStorage struct {
	store  *Store
	logger *common.Logger
}

// NewQuoteStorage creates a QuoteStore backed by BadgerHold.
func NewQuoteStorage(store *Store, logger *common.Logger) *quoteStorage {
	return &quoteStorage{store: store, logger: logger}
}

func (s *quoteStorage) Get(_ context.Context, symbol string) (*models.Quote, error) {
	var quote models.Quote
	err := s.store.db.Get(symbol, &quote)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("quote for %s: %w", symbol, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}
	return &quote, nil
}

func (s *quoteStorage) Save(_ context.Context, quote *models.Quote) error {
	if err := s.store.db.Upsert(quote.Symbol, quote); err != nil {
		return fmt.Errorf("failed to save quote for %s: %w", quote.Symbol, err)
	}
	s.logger.Debug().Str("symbol", quote.Symbol).Float64("price", quote.Price).Msg("Quote saved")
	return nil
}

func (s *quoteStorage) GetBatch(ctx context.Context, symbols []string) (map[string]*models.Quote, error) {
	quotes := make(map[string]*models.Quote, len(symbols))
	for _, symbol := range symbols {
		quote, err := s.Get(ctx, symbol)
		if err != nil {
			continue // missing quotes are simply absent from the result
		}
		quotes[symbol] = quote
	}
	return quotes, nil
}

// --- Price bars ---

type priceBarStorage struct {
	store  *Store
	logger *common.Logger
}

// NewPriceBarStorage creates a PriceBarStore backed by BadgerHold.
func NewPriceBarStorage(store *Store, logger *common.Logger) *priceBarStorage {
	return &priceBarStorage{store: store, logger: logger}
}

func (s *priceBarStorage) UpsertIfAbsent(_ context.Context, bars []models.PriceBar) (int, error) {
	inserted := 0
	for i := range bars {
		bar := bars[i]
		bar.Date = common.NormalizeDate(bar.Date)
		err := s.store.db.Insert(bar.Key(), bar)
		if err == badgerhold.ErrKeyExists {
			continue // bars are immutable once written
		}
		if err != nil {
			return inserted, fmt.Errorf("failed to insert bar %s: %w", bar.Key(), err)
		}
		inserted++
	}
	return inserted, nil
}

func (s *priceBarStorage) GetRange(_ context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	from = common.NormalizeDate(from)
	to = common.NormalizeDate(to)

	var bars []models.PriceBar
	query := badgerhold.Where("Symbol").Eq(symbol).
		And("Date").Ge(from).
		And("Date").Le(to)
	if err := s.store.db.Find(&bars, query); err != nil {
		return nil, fmt.Errorf("failed to query bars for %s: %w", symbol, err)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func (s *priceBarStorage) StoredDates(ctx context.Context, symbol string, from, to time.Time) (map[string]bool, error) {
	bars, err := s.GetRange(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	dates := make(map[string]bool, len(bars))
	for _, bar := range bars {
		dates[bar.Date.Format("2006-01-02")] = true
	}
	return dates, nil
}

// --- Dividend events ---

type dividendStorage struct {
	store  *Store
	logger *common.Logger
}

// NewDividendStorage creates a DividendStore backed by BadgerHold.
func NewDividendStorage(store *Store, logger *common.Logger) *dividendStorage {
	return &dividendStorage{store: store, logger: logger}
}

func (s *dividendStorage) Upsert(_ context.Context, events []models.DividendEvent) error {
	for i := range events {
		event := events[i]
		event.ExDate = common.NormalizeDate(event.ExDate)
		key := event.Key()

		var existing models.DividendEvent
		err := s.store.db.Get(key, &existing)
		if err == nil {
			// Fill previously-missing dates; never erase dates already known.
			if event.RecordDate == nil {
				event.RecordDate = existing.RecordDate
			}
			if event.PaymentDate == nil {
				event.PaymentDate = existing.PaymentDate
			}
			if event.DeclarationDate == nil {
				event.DeclarationDate = existing.DeclarationDate
			}
		} else if err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to read dividend %s: %w", key, err)
		}

		if err := s.store.db.Upsert(key, event); err != nil {
			return fmt.Errorf("failed to upsert dividend %s: %w", key, err)
		}
	}
	return nil
}

func (s *dividendStorage) Get(_ context.Context, symbol string, exDate time.Time) (*models.DividendEvent, error) {
	key := models.DividendEvent{Symbol: symbol, ExDate: common.NormalizeDate(exDate)}.Key()

	var event models.DividendEvent
	err := s.store.db.Get(key, &event)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("dividend %s: %w", key, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get dividend %s: %w", key, err)
	}
	return &event, nil
}

func (s *dividendStorage) ListBySymbol(_ context.Context, symbol string) ([]models.DividendEvent, error) {
	var events []models.DividendEvent
	if err := s.store.db.Find(&events, badgerhold.Where("Symbol").Eq(symbol)); err != nil {
		return nil, fmt.Errorf("failed to list dividends for %s: %w", symbol, err)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ExDate.Before(events[j].ExDate) })
	return events, nil
}

func (s *dividendStorage) CountBySymbol(ctx context.Context, symbol string) (int, error) {
	count, err := s.store.db.Count(&models.DividendEvent{}, badgerhold.Where("Symbol").Eq(symbol))
	if err != nil {
		return 0, fmt.Errorf("failed to count dividends for %s: %w", symbol, err)
	}
	return int(count), nil
}

// --- Symbol registry ---

type symbolStorage struct {
	store  *Store
	logger *common.Logger
}

// NewSymbolStorage creates a SymbolStore backed by BadgerHold.
func NewSymbolStorage(store *Store, logger *common.Logger) *symbolStorage {
	return &symbolStorage{store: store, logger: logger}
}

func (s *symbolStorage) Get(_ context.Context, symbol string) (*models.SymbolRecord, error) {
	var record models.SymbolRecord
	err := s.store.db.Get(symbol, &record)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("symbol %s: %w", symbol, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get symbol %s: %w", symbol, err)
	}
	return &record, nil
}

func (s *symbolStorage) Save(_ context.Context, record *models.SymbolRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if err := s.store.db.Upsert(record.Symbol, record); err != nil {
		return fmt.Errorf("failed to save symbol %s: %w", record.Symbol, err)
	}
	return nil
}

func (s *symbolStorage) List(_ context.Context) ([]models.SymbolRecord, error) {
	var records []models.SymbolRecord
	if err := s.store.db.Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Symbol < records[j].Symbol })
	return records, nil
}

// --- Safety cache ---

type safetyCacheStorage struct {
	store  *Store
	logger *common.Logger
}

// NewSafetyCacheStorage creates a SafetyCacheStore backed by BadgerHold.
func NewSafetyCacheStorage(store *Store, logger *common.Logger) *safetyCacheStorage {
	return &safetyCacheStorage{store: store, logger: logger}
}

func (s *safetyCacheStorage) Get(_ context.Context, symbol string) (*models.SafetyScore, error) {
	var score models.SafetyScore
	err := s.store.db.Get("safety/"+symbol, &score)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("safety score for %s: %w", symbol, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get safety score for %s: %w", symbol, err)
	}
	return &score, nil
}

func (s *safetyCacheStorage) Save(_ context.Context, score *models.SafetyScore) error {
	if err := s.store.db.Upsert("safety/"+score.Symbol, score); err != nil {
		return fmt.Errorf("failed to save safety score for %s: %w", score.Symbol, err)
	}
	s.logger.Debug().Str("symbol", score.Symbol).Int("score", score.Score).Msg("Safety score cached")
	return nil
}

func (s *safetyCacheStorage) GetBatch(ctx context.Context, symbols []string) (map[string]*models.SafetyScore, error) {
	scores := make(map[string]*models.SafetyScore, len(symbols))
	for _, symbol := range symbols {
		score, err := s.Get(ctx, symbol)
		if err != nil {
			continue
		}
		scores[symbol] = score
	}
	return scores, nil
}
