// Package memory provides an in-memory StorageManager used by service tests.
// Semantics mirror the BadgerHold implementation: sentinel not-found errors,
// insertion sequence numbers, fill-don't-erase dividend upserts.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

// Manager is an in-memory StorageManager.
type Manager struct {
	mu sync.Mutex

	quotes    map[string]models.Quote
	bars      map[string]models.PriceBar
	dividends map[string]models.DividendEvent
	symbols   map[string]models.SymbolRecord
	portfolio map[string]models.Portfolio
	txns      map[string]models.Transaction
	holdings  map[string]models.Holding
	payments  map[string]models.DividendPayment
	safety    map[string]models.SafetyScore
	kv        map[string]string

	seq uint64
}

// NewManager creates an empty in-memory manager.
func NewManager() *Manager {
	return &Manager{
		quotes:    make(map[string]models.Quote),
		bars:      make(map[string]models.PriceBar),
		dividends: make(map[string]models.DividendEvent),
		symbols:   make(map[string]models.SymbolRecord),
		portfolio: make(map[string]models.Portfolio),
		txns:      make(map[string]models.Transaction),
		holdings:  make(map[string]models.Holding),
		payments:  make(map[string]models.DividendPayment),
		safety:    make(map[string]models.SafetyScore),
		kv:        make(map[string]string),
	}
}

func (m *Manager) QuoteStore() interfaces.QuoteStore                     { return (*quoteStore)(m) }
func (m *Manager) PriceBarStore() interfaces.PriceBarStore               { return (*priceBarStore)(m) }
func (m *Manager) DividendStore() interfaces.DividendStore               { return (*dividendStore)(m) }
func (m *Manager) SymbolStore() interfaces.SymbolStore                   { return (*symbolStore)(m) }
func (m *Manager) PortfolioStore() interfaces.PortfolioStore             { return (*portfolioStore)(m) }
func (m *Manager) TransactionStore() interfaces.TransactionStore         { return (*transactionStore)(m) }
func (m *Manager) HoldingStore() interfaces.HoldingStore                 { return (*holdingStore)(m) }
func (m *Manager) DividendPaymentStore() interfaces.DividendPaymentStore { return (*paymentStore)(m) }
func (m *Manager) SafetyCacheStore() interfaces.SafetyCacheStore         { return (*safetyStore)(m) }
func (m *Manager) SystemKV() interfaces.SystemKV                         { return (*kvStore)(m) }
func (m *Manager) Close() error                                          { return nil }

var _ interfaces.StorageManager = (*Manager)(nil)

type quoteStore Manager

func (s *quoteStore) Get(_ context.Context, symbol string) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("quote for %s: %w", symbol, interfaces.ErrNotFound)
	}
	return &q, nil
}

func (s *quoteStore) Save(_ context.Context, quote *models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[quote.Symbol] = *quote
	return nil
}

func (s *quoteStore) GetBatch(ctx context.Context, symbols []string) (map[string]*models.Quote, error) {
	out := make(map[string]*models.Quote, len(symbols))
	for _, sym := range symbols {
		if q, err := s.Get(ctx, sym); err == nil {
			out[sym] = q
		}
	}
	return out, nil
}

type priceBarStore Manager

func (s *priceBarStore) UpsertIfAbsent(_ context.Context, bars []models.PriceBar) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for _, bar := range bars {
		bar.Date = common.NormalizeDate(bar.Date)
		if _, exists := s.bars[bar.Key()]; exists {
			continue
		}
		s.bars[bar.Key()] = bar
		inserted++
	}
	return inserted, nil
}

func (s *priceBarStore) GetRange(_ context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from, to = common.NormalizeDate(from), common.NormalizeDate(to)
	var out []models.PriceBar
	for _, bar := range s.bars {
		if bar.Symbol == symbol && !bar.Date.Before(from) && !bar.Date.After(to) {
			out = append(out, bar)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *priceBarStore) StoredDates(ctx context.Context, symbol string, from, to time.Time) (map[string]bool, error) {
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

type dividendStore Manager

func (s *dividendStore) Upsert(_ context.Context, events []models.DividendEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		event.ExDate = common.NormalizeDate(event.ExDate)
		if existing, ok := s.dividends[event.Key()]; ok {
			if event.RecordDate == nil {
				event.RecordDate = existing.RecordDate
			}
			if event.PaymentDate == nil {
				event.PaymentDate = existing.PaymentDate
			}
			if event.DeclarationDate == nil {
				event.DeclarationDate = existing.DeclarationDate
			}
		}
		s.dividends[event.Key()] = event
	}
	return nil
}

func (s *dividendStore) Get(_ context.Context, symbol string, exDate time.Time) (*models.DividendEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.DividendEvent{Symbol: symbol, ExDate: common.NormalizeDate(exDate)}.Key()
	e, ok := s.dividends[key]
	if !ok {
		return nil, fmt.Errorf("dividend %s: %w", key, interfaces.ErrNotFound)
	}
	return &e, nil
}

func (s *dividendStore) ListBySymbol(_ context.Context, symbol string) ([]models.DividendEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DividendEvent
	for _, e := range s.dividends {
		if e.Symbol == symbol {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExDate.Before(out[j].ExDate) })
	return out, nil
}

func (s *dividendStore) CountBySymbol(ctx context.Context, symbol string) (int, error) {
	events, err := s.ListBySymbol(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

type symbolStore Manager

func (s *symbolStore) Get(_ context.Context, symbol string) (*models.SymbolRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("symbol %s: %w", symbol, interfaces.ErrNotFound)
	}
	return &r, nil
}

func (s *symbolStore) Save(_ context.Context, record *models.SymbolRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	s.symbols[record.Symbol] = *record
	return nil
}

func (s *symbolStore) List(_ context.Context) ([]models.SymbolRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SymbolRecord
	for _, r := range s.symbols {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

type portfolioStore Manager

func (s *portfolioStore) Get(_ context.Context, id string) (*models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.portfolio[id]
	if !ok {
		return nil, fmt.Errorf("portfolio %s: %w", id, interfaces.ErrNotFound)
	}
	return &p, nil
}

func (s *portfolioStore) GetByName(_ context.Context, userID, name string) (*models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.portfolio {
		if p.UserID == userID && p.Name == name {
			found := p
			return &found, nil
		}
	}
	return nil, fmt.Errorf("portfolio %q: %w", name, interfaces.ErrNotFound)
}

func (s *portfolioStore) Save(_ context.Context, portfolio *models.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	portfolio.UpdatedAt = time.Now()
	if portfolio.CreatedAt.IsZero() {
		portfolio.CreatedAt = time.Now()
	}
	s.portfolio[portfolio.ID] = *portfolio
	return nil
}

func (s *portfolioStore) ListByUser(_ context.Context, userID string) ([]models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Portfolio
	for _, p := range s.portfolio {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *portfolioStore) ListActive(_ context.Context) ([]models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Portfolio
	for _, p := range s.portfolio {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

type transactionStore Manager

func (s *transactionStore) Get(_ context.Context, id string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txns[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, interfaces.ErrNotFound)
	}
	return &t, nil
}

func (s *transactionStore) Insert(_ context.Context, txn *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	txn.Seq = s.seq
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt
	s.txns[txn.ID] = *txn
	return nil
}

func (s *transactionStore) Update(_ context.Context, txn *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[txn.ID]; !ok {
		return fmt.Errorf("transaction %s: %w", txn.ID, interfaces.ErrNotFound)
	}
	txn.UpdatedAt = time.Now()
	s.txns[txn.ID] = *txn
	return nil
}

func (s *transactionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.txns, id)
	return nil
}

func (s *transactionStore) ListForHolding(_ context.Context, portfolioID, symbol string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, t := range s.txns {
		if t.PortfolioID == portfolioID && t.Symbol == symbol {
			out = append(out, t)
		}
	}
	sortTxns(out)
	return out, nil
}

func (s *transactionStore) ListByPortfolio(_ context.Context, portfolioID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, t := range s.txns {
		if t.PortfolioID == portfolioID {
			out = append(out, t)
		}
	}
	sortTxns(out)
	return out, nil
}

func sortTxns(txns []models.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.Before(txns[j].Date)
		}
		return txns[i].Seq < txns[j].Seq
	})
}

type holdingStore Manager

func (s *holdingStore) Get(_ context.Context, portfolioID, symbol string) (*models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holdings[models.HoldingKey(portfolioID, symbol)]
	if !ok {
		return nil, fmt.Errorf("holding %s/%s: %w", portfolioID, symbol, interfaces.ErrNotFound)
	}
	return &h, nil
}

func (s *holdingStore) Save(_ context.Context, holding *models.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	holding.ID = models.HoldingKey(holding.PortfolioID, holding.Symbol)
	holding.UpdatedAt = time.Now()
	s.holdings[holding.ID] = *holding
	return nil
}

func (s *holdingStore) Delete(_ context.Context, portfolioID, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holdings, models.HoldingKey(portfolioID, symbol))
	return nil
}

func (s *holdingStore) ListByPortfolio(_ context.Context, portfolioID string) ([]models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Holding
	for _, h := range s.holdings {
		if h.PortfolioID == portfolioID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (s *holdingStore) ListHeldSymbols(_ context.Context, portfolioIDs []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[string]bool, len(portfolioIDs))
	for _, id := range portfolioIDs {
		wanted[id] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, h := range s.holdings {
		if wanted[h.PortfolioID] && h.Quantity > 0 && !seen[h.Symbol] {
			seen[h.Symbol] = true
			out = append(out, h.Symbol)
		}
	}
	sort.Strings(out)
	return out, nil
}

type paymentStore Manager

func (s *paymentStore) Get(_ context.Context, id string) (*models.DividendPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("dividend payment %s: %w", id, interfaces.ErrNotFound)
	}
	return &p, nil
}

func (s *paymentStore) Insert(_ context.Context, payment *models.DividendPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.PortfolioID == payment.PortfolioID && p.DividendKey == payment.DividendKey {
			return interfaces.ErrDuplicatePayment
		}
	}
	payment.CreatedAt = time.Now()
	s.payments[payment.ID] = *payment
	return nil
}

func (s *paymentStore) ListByPortfolio(_ context.Context, portfolioID string) ([]models.DividendPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DividendPayment
	for _, p := range s.payments {
		if p.PortfolioID == portfolioID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *paymentStore) Exists(_ context.Context, portfolioID, dividendKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.PortfolioID == portfolioID && p.DividendKey == dividendKey {
			return true, nil
		}
	}
	return false, nil
}

type safetyStore Manager

func (s *safetyStore) Get(_ context.Context, symbol string) (*models.SafetyScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.safety[symbol]
	if !ok {
		return nil, fmt.Errorf("safety score for %s: %w", symbol, interfaces.ErrNotFound)
	}
	return &sc, nil
}

func (s *safetyStore) Save(_ context.Context, score *models.SafetyScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.safety[score.Symbol] = *score
	return nil
}

func (s *safetyStore) GetBatch(ctx context.Context, symbols []string) (map[string]*models.SafetyScore, error) {
	out := make(map[string]*models.SafetyScore, len(symbols))
	for _, sym := range symbols {
		if sc, err := s.Get(ctx, sym); err == nil {
			out[sym] = sc
		}
	}
	return out, nil
}

type kvStore Manager

func (s *kvStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv[key]
	if !ok {
		return "", fmt.Errorf("system key %s: %w", key, interfaces.ErrNotFound)
	}
	return v, nil
}

func (s *kvStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}

func (s *kvStore) Increment(_ context.Context, key string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := 0
	if v, ok := s.kv[key]; ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			current = parsed
		}
	}
	current += delta
	s.kv[key] = strconv.Itoa(current)
	return current, nil
}
