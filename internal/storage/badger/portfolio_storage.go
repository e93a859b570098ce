package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

// --- Portfolios ---

type portfolioStorage struct {
	store  *Store
	logger *common.Logger
}

// NewPortfolioStorage creates a PortfolioStore backed by BadgerHold.
func NewPortfolioStorage(store *Store, logger *common.Logger) *portfolioStorage {
	return &portfolioStorage{store: store, logger: logger}
}

func (s *portfolioStorage) Get(_ context.Context, id string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	err := s.store.db.Get(id, &portfolio)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("portfolio %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get portfolio %s: %w", id, err)
	}
	return &portfolio, nil
}

func (s *portfolioStorage) GetByName(_ context.Context, userID, name string) (*models.Portfolio, error) {
	var portfolios []models.Portfolio
	if err := s.store.db.Find(&portfolios, badgerhold.Where("UserID").Eq(userID)); err != nil {
		return nil, fmt.Errorf("failed to query portfolios for user %s: %w", userID, err)
	}
	for i := range portfolios {
		if strings.EqualFold(portfolios[i].Name, name) {
			return &portfolios[i], nil
		}
	}
	return nil, fmt.Errorf("portfolio %q for user %s: %w", name, userID, interfaces.ErrNotFound)
}

func (s *portfolioStorage) Save(_ context.Context, portfolio *models.Portfolio) error {
	portfolio.UpdatedAt = time.Now()
	if portfolio.CreatedAt.IsZero() {
		portfolio.CreatedAt = time.Now()
	}
	if err := s.store.db.Upsert(portfolio.ID, portfolio); err != nil {
		return fmt.Errorf("failed to save portfolio: %w", err)
	}
	s.logger.Debug().Str("id", portfolio.ID).Str("name", portfolio.Name).Msg("Portfolio saved")
	return nil
}

func (s *portfolioStorage) ListByUser(_ context.Context, userID string) ([]models.Portfolio, error) {
	var portfolios []models.Portfolio
	if err := s.store.db.Find(&portfolios, badgerhold.Where("UserID").Eq(userID)); err != nil {
		return nil, fmt.Errorf("failed to list portfolios for user %s: %w", userID, err)
	}
	sort.Slice(portfolios, func(i, j int) bool { return portfolios[i].Name < portfolios[j].Name })
	return portfolios, nil
}

func (s *portfolioStorage) ListActive(_ context.Context) ([]models.Portfolio, error) {
	var portfolios []models.Portfolio
	if err := s.store.db.Find(&portfolios, badgerhold.Where("Active").Eq(true)); err != nil {
		return nil, fmt.Errorf("failed to list active portfolios: %w", err)
	}
	return portfolios, nil
}

// --- Transactions ---

type transactionStorage struct {
	store  *Store
	logger *common.Logger

	seqMu sync.Mutex
	seq   uint64
	init  bool
}

// NewTransactionStorage creates a TransactionStore backed by BadgerHold.
func NewTransactionStorage(store *Store, logger *common.Logger) *transactionStorage {
	return &transactionStorage{store: store, logger: logger}
}

// nextSeq assigns monotonically-increasing insertion sequence numbers.
// Initialized lazily from the highest stored value so order survives restarts.
func (s *transactionStorage) nextSeq() (uint64, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	if !s.init {
		var all []models.Transaction
		if err := s.store.db.Find(&all, nil); err != nil {
			return 0, fmt.Errorf("failed to initialize transaction sequence: %w", err)
		}
		for _, txn := range all {
			if txn.Seq > s.seq {
				s.seq = txn.Seq
			}
		}
		s.init = true
	}

	s.seq++
	return s.seq, nil
}

func (s *transactionStorage) Get(_ context.Context, id string) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.store.db.Get(id, &txn)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("transaction %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return &txn, nil
}

func (s *transactionStorage) Insert(_ context.Context, txn *models.Transaction) error {
	seq, err := s.nextSeq()
	if err != nil {
		return err
	}
	txn.Seq = seq
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt

	if err := s.store.db.Insert(txn.ID, txn); err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}
	s.logger.Debug().Str("id", txn.ID).Str("symbol", txn.Symbol).Str("type", txn.Type).Msg("Transaction inserted")
	return nil
}

func (s *transactionStorage) Update(_ context.Context, txn *models.Transaction) error {
	txn.UpdatedAt = time.Now()
	if err := s.store.db.Update(txn.ID, txn); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("transaction %s: %w", txn.ID, interfaces.ErrNotFound)
		}
		return fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
	}
	return nil
}

func (s *transactionStorage) Delete(_ context.Context, id string) error {
	err := s.store.db.Delete(id, models.Transaction{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	return nil
}

func (s *transactionStorage) ListForHolding(_ context.Context, portfolioID, symbol string) ([]models.Transaction, error) {
	var txns []models.Transaction
	query := badgerhold.Where("PortfolioID").Eq(portfolioID).And("Symbol").Eq(symbol)
	if err := s.store.db.Find(&txns, query); err != nil {
		return nil, fmt.Errorf("failed to list transactions for %s/%s: %w", portfolioID, symbol, err)
	}
	sortTransactions(txns)
	return txns, nil
}

func (s *transactionStorage) ListByPortfolio(_ context.Context, portfolioID string) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := s.store.db.Find(&txns, badgerhold.Where("PortfolioID").Eq(portfolioID)); err != nil {
		return nil, fmt.Errorf("failed to list transactions for %s: %w", portfolioID, err)
	}
	sortTransactions(txns)
	return txns, nil
}

// sortTransactions orders the ledger by (date, insertion sequence).
func sortTransactions(txns []models.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.Before(txns[j].Date)
		}
		return txns[i].Seq < txns[j].Seq
	})
}

// --- Holdings ---

type holdingStorage struct {
	store  *Store
	logger *common.Logger
}

// NewHoldingStorage creates a HoldingStore backed by BadgerHold.
func NewHoldingStorage(store *Store, logger *common.Logger) *holdingStorage {
	return &holdingStorage{store: store, logger: logger}
}

func (s *holdingStorage) Get(_ context.Context, portfolioID, symbol string) (*models.Holding, error) {
	var holding models.Holding
	err := s.store.db.Get(models.HoldingKey(portfolioID, symbol), &holding)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("holding %s/%s: %w", portfolioID, symbol, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get holding %s/%s: %w", portfolioID, symbol, err)
	}
	return &holding, nil
}

func (s *holdingStorage) Save(_ context.Context, holding *models.Holding) error {
	holding.ID = models.HoldingKey(holding.PortfolioID, holding.Symbol)
	holding.UpdatedAt = time.Now()
	if err := s.store.db.Upsert(holding.ID, holding); err != nil {
		return fmt.Errorf("failed to save holding %s: %w", holding.ID, err)
	}
	return nil
}

func (s *holdingStorage) Delete(_ context.Context, portfolioID, symbol string) error {
	err := s.store.db.Delete(models.HoldingKey(portfolioID, symbol), models.Holding{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete holding %s/%s: %w", portfolioID, symbol, err)
	}
	return nil
}

func (s *holdingStorage) ListByPortfolio(_ context.Context, portfolioID string) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := s.store.db.Find(&holdings, badgerhold.Where("PortfolioID").Eq(portfolioID)); err != nil {
		return nil, fmt.Errorf("failed to list holdings for %s: %w", portfolioID, err)
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	return holdings, nil
}

func (s *holdingStorage) ListHeldSymbols(_ context.Context, portfolioIDs []string) ([]string, error) {
	wanted := make(map[string]bool, len(portfolioIDs))
	for _, id := range portfolioIDs {
		wanted[id] = true
	}

	var holdings []models.Holding
	if err := s.store.db.Find(&holdings, nil); err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, h := range holdings {
		if !wanted[h.PortfolioID] || h.Quantity <= 0 || seen[h.Symbol] {
			continue
		}
		seen[h.Symbol] = true
		symbols = append(symbols, h.Symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}

// --- Dividend payments ---

type dividendPaymentStorage struct {
	store  *Store
	logger *common.Logger
	mu     sync.Mutex
}

// NewDividendPaymentStorage creates a DividendPaymentStore backed by BadgerHold.
func NewDividendPaymentStorage(store *Store, logger *common.Logger) *dividendPaymentStorage {
	return &dividendPaymentStorage{store: store, logger: logger}
}

func (s *dividendPaymentStorage) Get(_ context.Context, id string) (*models.DividendPayment, error) {
	var payment models.DividendPayment
	err := s.store.db.Get(id, &payment)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("dividend payment %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get dividend payment %s: %w", id, err)
	}
	return &payment, nil
}

func (s *dividendPaymentStorage) Insert(ctx context.Context, payment *models.DividendPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.Exists(ctx, payment.PortfolioID, payment.DividendKey)
	if err != nil {
		return err
	}
	if exists {
		return interfaces.ErrDuplicatePayment
	}

	payment.CreatedAt = time.Now()
	if err := s.store.db.Insert(payment.ID, payment); err != nil {
		return fmt.Errorf("failed to insert dividend payment %s: %w", payment.ID, err)
	}
	s.logger.Debug().Str("id", payment.ID).Str("dividend", payment.DividendKey).Msg("Dividend payment recorded")
	return nil
}

func (s *dividendPaymentStorage) ListByPortfolio(_ context.Context, portfolioID string) ([]models.DividendPayment, error) {
	var payments []models.DividendPayment
	if err := s.store.db.Find(&payments, badgerhold.Where("PortfolioID").Eq(portfolioID)); err != nil {
		return nil, fmt.Errorf("failed to list dividend payments for %s: %w", portfolioID, err)
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.Before(payments[j].CreatedAt) })
	return payments, nil
}

func (s *dividendPaymentStorage) Exists(_ context.Context, portfolioID, dividendKey string) (bool, error) {
	query := badgerhold.Where("PortfolioID").Eq(portfolioID).And("DividendKey").Eq(dividendKey)
	count, err := s.store.db.Count(&models.DividendPayment{}, query)
	if err != nil {
		return false, fmt.Errorf("failed to check dividend payment %s/%s: %w", portfolioID, dividendKey, err)
	}
	return count > 0, nil
}
