// Package ledger maintains the invariant between the transaction ledger and
// derived holdings.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

// Service derives holdings from the transaction ledger. Holdings are never
// written directly by callers; every mutation flows through a transaction
// followed by a replay, except dividend payments which are a composite
// mutation of their own.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewService creates a ledger service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{storage: storage, logger: logger}
}

// AddTransaction validates, inserts, and replays the affected holding.
func (s *Service) AddTransaction(ctx context.Context, txn *models.Transaction) error {
	txn.Symbol = common.NormalizeSymbol(txn.Symbol)
	if err := txn.Validate(); err != nil {
		return err
	}
	if err := common.ValidateSymbol(txn.Symbol); err != nil {
		return err
	}
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}

	if err := s.storage.TransactionStore().Insert(ctx, txn); err != nil {
		return err
	}

	_, err := s.Replay(ctx, txn.PortfolioID, txn.Symbol)
	return err
}

// UpdateTransaction rewrites a transaction and replays. When the edit moves
// the transaction between symbols or portfolios, both holdings are replayed.
func (s *Service) UpdateTransaction(ctx context.Context, txn *models.Transaction) error {
	txn.Symbol = common.NormalizeSymbol(txn.Symbol)
	if err := txn.Validate(); err != nil {
		return err
	}

	existing, err := s.storage.TransactionStore().Get(ctx, txn.ID)
	if err != nil {
		return err
	}

	txn.Seq = existing.Seq
	txn.CreatedAt = existing.CreatedAt
	if err := s.storage.TransactionStore().Update(ctx, txn); err != nil {
		return err
	}

	if existing.PortfolioID != txn.PortfolioID || existing.Symbol != txn.Symbol {
		if _, err := s.Replay(ctx, existing.PortfolioID, existing.Symbol); err != nil {
			return err
		}
	}
	_, err = s.Replay(ctx, txn.PortfolioID, txn.Symbol)
	return err
}

// DeleteTransaction removes a transaction and replays the affected holding.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	existing, err := s.storage.TransactionStore().Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.TransactionStore().Delete(ctx, id); err != nil {
		return err
	}

	_, err = s.Replay(ctx, existing.PortfolioID, existing.Symbol)
	return err
}

// Replay rebuilds the holding for (portfolio, symbol) from its ordered
// transactions. Quantity accumulates on buys and sells; cost accumulates on
// buys only. A non-positive resulting quantity deletes the holding row.
// Dividend, split, and transfer rows are carried in the ledger but do not
// alter quantity or cost here.
func (s *Service) Replay(ctx context.Context, portfolioID, symbol string) (*models.Holding, error) {
	symbol = common.NormalizeSymbol(symbol)

	txns, err := s.storage.TransactionStore().ListForHolding(ctx, portfolioID, symbol)
	if err != nil {
		return nil, err
	}

	quantity := decimal.Zero
	totalCost := decimal.Zero
	for _, txn := range txns {
		q := decimal.NewFromFloat(txn.Quantity)
		switch txn.Type {
		case models.TransactionTypeBuy:
			quantity = quantity.Add(q)
			cost := q.Mul(decimal.NewFromFloat(txn.Price)).Add(decimal.NewFromFloat(txn.Fees))
			totalCost = totalCost.Add(cost)
		case models.TransactionTypeSell:
			quantity = quantity.Sub(q)
		}
	}

	if quantity.Sign() <= 0 {
		if err := s.storage.HoldingStore().Delete(ctx, portfolioID, symbol); err != nil {
			return nil, err
		}
		s.logger.Debug().Str("portfolio", portfolioID).Str("symbol", symbol).Msg("Holding closed out by replay")
		return nil, nil
	}

	avgCost := totalCost.Div(quantity)
	if avgCost.Sign() < 0 {
		avgCost = decimal.Zero
	}

	holding := &models.Holding{
		PortfolioID:  portfolioID,
		Symbol:       symbol,
		Quantity:     quantity.InexactFloat64(),
		AvgCostBasis: avgCost.InexactFloat64(),
		TotalCost:    totalCost.InexactFloat64(),
	}
	if err := s.storage.HoldingStore().Save(ctx, holding); err != nil {
		return nil, err
	}
	return holding, nil
}

// RecordDividendPayment records a cash or DRIP dividend payment against an
// existing holding. Cash payments reduce cost basis by the dividend amount;
// DRIP payments additionally add the purchased shares without adding cost,
// treating the reinvested cash as spent from the existing cost pool. A
// dividend transaction is always appended for the audit trail, plus a buy
// transaction for DRIP.
func (s *Service) RecordDividendPayment(ctx context.Context, payment *models.DividendPayment) error {
	payment.Symbol = common.NormalizeSymbol(payment.Symbol)
	if err := payment.Validate(); err != nil {
		return err
	}
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}

	holding, err := s.storage.HoldingStore().Get(ctx, payment.PortfolioID, payment.Symbol)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return fmt.Errorf("no holding for %s in portfolio %s", payment.Symbol, payment.PortfolioID)
		}
		return err
	}

	divTxn := s.syntheticDividendTxn(payment)
	payment.TransactionID = divTxn.ID

	// Insert the payment first so the (portfolio, dividend) uniqueness check
	// rejects duplicates before any ledger rows are written.
	if err := s.storage.DividendPaymentStore().Insert(ctx, payment); err != nil {
		return err
	}

	if err := s.storage.TransactionStore().Insert(ctx, divTxn); err != nil {
		return err
	}
	if payment.PaymentType == models.PaymentTypeDRIP {
		if err := s.storage.TransactionStore().Insert(ctx, s.syntheticBuyTxn(payment, divTxn.Date)); err != nil {
			return err
		}
	}

	quantity := decimal.NewFromFloat(holding.Quantity)
	totalCost := decimal.NewFromFloat(holding.TotalCost).Sub(decimal.NewFromFloat(payment.TotalAmount))
	if payment.PaymentType == models.PaymentTypeDRIP {
		quantity = quantity.Add(decimal.NewFromFloat(payment.DRIPShares))
	}

	avgCost := totalCost.Div(quantity)
	if avgCost.Sign() < 0 {
		avgCost = decimal.Zero
	}

	holding.Quantity = quantity.InexactFloat64()
	holding.TotalCost = totalCost.InexactFloat64()
	holding.AvgCostBasis = avgCost.InexactFloat64()
	if err := s.storage.HoldingStore().Save(ctx, holding); err != nil {
		return err
	}

	s.logger.Info().
		Str("portfolio", payment.PortfolioID).
		Str("symbol", payment.Symbol).
		Str("type", payment.PaymentType).
		Float64("amount", payment.TotalAmount).
		Msg("Dividend payment recorded")
	return nil
}

// syntheticDividendTxn builds the audit-trail dividend row. The transaction
// date comes from the dividend key's ex-date when parseable.
func (s *Service) syntheticDividendTxn(payment *models.DividendPayment) *models.Transaction {
	date := time.Now()
	if idx := strings.LastIndex(payment.DividendKey, "/"); idx >= 0 {
		if parsed, err := time.Parse("2006-01-02", payment.DividendKey[idx+1:]); err == nil {
			date = parsed
		}
	}

	perShare := 0.0
	if payment.SharesOwned > 0 {
		perShare = payment.TotalAmount / payment.SharesOwned
	}

	return &models.Transaction{
		ID:          uuid.New().String(),
		PortfolioID: payment.PortfolioID,
		Symbol:      payment.Symbol,
		Type:        models.TransactionTypeDividend,
		Quantity:    payment.SharesOwned,
		Price:       perShare,
		Date:        date,
		Notes:       fmt.Sprintf("dividend payment (%s)", payment.PaymentType),
	}
}

// syntheticBuyTxn builds the audit-trail row for DRIP share purchases.
func (s *Service) syntheticBuyTxn(payment *models.DividendPayment, date time.Time) *models.Transaction {
	return &models.Transaction{
		ID:          uuid.New().String(),
		PortfolioID: payment.PortfolioID,
		Symbol:      payment.Symbol,
		Type:        models.TransactionTypeBuy,
		Quantity:    payment.DRIPShares,
		Price:       payment.DRIPPrice,
		Date:        date,
		Notes:       "dividend reinvestment",
	}
}

// Ensure Service implements LedgerService
var _ interfaces.LedgerService = (*Service)(nil)
