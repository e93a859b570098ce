package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/storage/memory"
)

func newTestService() (*Service, interfaces.StorageManager) {
	store := memory.NewManager()
	return NewService(store, common.NewSilentLogger()), store
}

func buyTxn(portfolioID, symbol string, qty, price, fees float64, date time.Time) *models.Transaction {
	return &models.Transaction{
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Type:        models.TransactionTypeBuy,
		Quantity:    qty,
		Price:       price,
		Fees:        fees,
		Date:        date,
	}
}

func TestAddTransactionDerivesHolding(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	err := svc.AddTransaction(ctx, buyTxn("p1", "AAPL", 10, 100, 9.95, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	holding, err := store.HoldingStore().Get(ctx, "p1", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 10.0, holding.Quantity)
	assert.InDelta(t, 1009.95, holding.TotalCost, 1e-9)
	assert.InDelta(t, 100.995, holding.AvgCostBasis, 1e-9)
}

func TestAddTransactionValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		txn  *models.Transaction
	}{
		{"zero quantity", &models.Transaction{PortfolioID: "p1", Symbol: "AAPL", Type: "buy", Quantity: 0, Price: 10, Date: date}},
		{"negative price", &models.Transaction{PortfolioID: "p1", Symbol: "AAPL", Type: "buy", Quantity: 1, Price: -1, Date: date}},
		{"unknown type", &models.Transaction{PortfolioID: "p1", Symbol: "AAPL", Type: "short", Quantity: 1, Price: 10, Date: date}},
		{"missing symbol", &models.Transaction{PortfolioID: "p1", Type: "buy", Quantity: 1, Price: 10, Date: date}},
		{"missing date", &models.Transaction{PortfolioID: "p1", Symbol: "AAPL", Type: "buy", Quantity: 1, Price: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, svc.AddTransaction(ctx, tt.txn))
		})
	}
}

func TestReplayIdempotence(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(ctx, buyTxn("p1", "MSFT", 5, 300, 1, date)))
	require.NoError(t, svc.AddTransaction(ctx, buyTxn("p1", "MSFT", 3, 320, 1, date.AddDate(0, 1, 0))))

	first, err := svc.Replay(ctx, "p1", "MSFT")
	require.NoError(t, err)
	second, err := svc.Replay(ctx, "p1", "MSFT")
	require.NoError(t, err)

	assert.Equal(t, first.Quantity, second.Quantity)
	assert.Equal(t, first.AvgCostBasis, second.AvgCostBasis)
	assert.Equal(t, first.TotalCost, second.TotalCost)
}

func TestReplayOrdersByDateThenInsertion(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// Sell inserted first but dated later; replay must process the buy first
	// and end with a positive position.
	sell := &models.Transaction{
		PortfolioID: "p1", Symbol: "NVDA", Type: models.TransactionTypeSell,
		Quantity: 2, Price: 900, Date: date.AddDate(0, 0, 5),
	}
	require.NoError(t, svc.AddTransaction(ctx, sell))
	require.NoError(t, svc.AddTransaction(ctx, buyTxn("p1", "NVDA", 4, 850, 0, date)))

	holding, err := store.HoldingStore().Get(ctx, "p1", "NVDA")
	require.NoError(t, err)
	assert.Equal(t, 2.0, holding.Quantity)
}

func TestSellOutDeletesHolding(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(ctx, buyTxn("p1", "AAPL", 10, 100, 0, date)))
	require.NoError(t, svc.AddTransaction(ctx, &models.Transaction{
		PortfolioID: "p1", Symbol: "AAPL", Type: models.TransactionTypeSell,
		Quantity: 10, Price: 120, Date: date.AddDate(0, 2, 0),
	}))

	_, err := store.HoldingStore().Get(ctx, "p1", "AAPL")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestOversellNeverPersistsNegativeQuantity(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(ctx, buyTxn("p1", "AAPL", 5, 100, 0, date)))
	require.NoError(t, svc.AddTransaction(ctx, &models.Transaction{
		PortfolioID: "p1", Symbol: "AAPL", Type: models.TransactionTypeSell,
		Quantity: 8, Price: 120, Date: date.AddDate(0, 1, 0),
	}))

	_, err := store.HoldingStore().Get(ctx, "p1", "AAPL")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestDeleteTransactionReplays(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	first := buyTxn("p1", "AAPL", 10, 100, 0, date)
	require.NoError(t, svc.AddTransaction(ctx, first))
	require.NoError(t, svc.AddTransaction(ctx, buyTxn("p1", "AAPL", 10, 200, 0, date.AddDate(0, 1, 0))))

	require.NoError(t, svc.DeleteTransaction(ctx, first.ID))

	holding, err := store.HoldingStore().Get(ctx, "p1", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 10.0, holding.Quantity)
	assert.InDelta(t, 200.0, holding.AvgCostBasis, 1e-9)
}

func TestUpdateTransactionAcrossSymbols(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	txn := buyTxn("p1", "AAPL", 10, 100, 0, date)
	require.NoError(t, svc.AddTransaction(ctx, txn))

	moved := *txn
	moved.Symbol = "MSFT"
	require.NoError(t, svc.UpdateTransaction(ctx, &moved))

	_, err := store.HoldingStore().Get(ctx, "p1", "AAPL")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	holding, err := store.HoldingStore().Get(ctx, "p1", "MSFT")
	require.NoError(t, err)
	assert.Equal(t, 10.0, holding.Quantity)
}

func TestRecordDividendPaymentCash(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(ctx, buyTxn("p1", "KO", 100, 50, 0, date)))

	err := svc.RecordDividendPayment(ctx, &models.DividendPayment{
		PortfolioID: "p1",
		DividendKey: "KO/2024-03-15",
		Symbol:      "KO",
		SharesOwned: 100,
		TotalAmount: 120,
		PaymentType: models.PaymentTypeCash,
	})
	require.NoError(t, err)

	holding, err := store.HoldingStore().Get(ctx, "p1", "KO")
	require.NoError(t, err)
	assert.Equal(t, 100.0, holding.Quantity)
	assert.InDelta(t, 4880.0, holding.TotalCost, 1e-9)
	assert.InDelta(t, 48.80, holding.AvgCostBasis, 1e-9)
}

func TestRecordDividendPaymentDRIP(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(ctx, buyTxn("p1", "KO", 100, 50, 0, date)))

	err := svc.RecordDividendPayment(ctx, &models.DividendPayment{
		PortfolioID: "p1",
		DividendKey: "KO/2024-03-15",
		Symbol:      "KO",
		SharesOwned: 100,
		TotalAmount: 120,
		PaymentType: models.PaymentTypeDRIP,
		DRIPShares:  1,
		DRIPPrice:   118,
	})
	require.NoError(t, err)

	holding, err := store.HoldingStore().Get(ctx, "p1", "KO")
	require.NoError(t, err)
	assert.Equal(t, 101.0, holding.Quantity)
	assert.InDelta(t, 4880.0, holding.TotalCost, 1e-9)
	assert.InDelta(t, 48.32, holding.AvgCostBasis, 0.005)

	// Audit trail: the original buy plus a synthetic dividend and a
	// synthetic reinvestment buy.
	txns, err := store.TransactionStore().ListForHolding(ctx, "p1", "KO")
	require.NoError(t, err)
	require.Len(t, txns, 3)

	types := make(map[string]int)
	for _, txn := range txns {
		types[txn.Type]++
	}
	assert.Equal(t, 2, types[models.TransactionTypeBuy])
	assert.Equal(t, 1, types[models.TransactionTypeDividend])
}

func TestDuplicateDividendPaymentRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(ctx, buyTxn("p1", "KO", 100, 50, 0, date)))

	payment := func() *models.DividendPayment {
		return &models.DividendPayment{
			PortfolioID: "p1",
			DividendKey: "KO/2024-03-15",
			Symbol:      "KO",
			SharesOwned: 100,
			TotalAmount: 120,
			PaymentType: models.PaymentTypeCash,
		}
	}

	require.NoError(t, svc.RecordDividendPayment(ctx, payment()))
	err := svc.RecordDividendPayment(ctx, payment())
	assert.True(t, errors.Is(err, interfaces.ErrDuplicatePayment))
}

func TestAvgCostClampedNonNegative(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddTransaction(ctx, buyTxn("p1", "T", 10, 1, 0, date)))

	err := svc.RecordDividendPayment(ctx, &models.DividendPayment{
		PortfolioID: "p1",
		DividendKey: "T/2024-06-01",
		Symbol:      "T",
		SharesOwned: 10,
		TotalAmount: 50,
		PaymentType: models.PaymentTypeCash,
	})
	require.NoError(t, err)

	holding, err := store.HoldingStore().Get(ctx, "p1", "T")
	require.NoError(t, err)
	assert.Equal(t, 0.0, holding.AvgCostBasis)
}

func TestRecordDividendPaymentRequiresHolding(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	err := svc.RecordDividendPayment(ctx, &models.DividendPayment{
		PortfolioID: "p1",
		DividendKey: "KO/2024-03-15",
		Symbol:      "KO",
		SharesOwned: 100,
		TotalAmount: 120,
		PaymentType: models.PaymentTypeCash,
	})
	assert.Error(t, err)
}
