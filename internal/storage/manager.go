// Package storage wires the typed stores behind the StorageManager contract.
package storage

import (
	"fmt"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/storage/badger"
)

// Manager owns the shared BadgerHold store and hands out typed stores.
type Manager struct {
	store  *badger.Store
	logger *common.Logger

	quotes    interfaces.QuoteStore
	bars      interfaces.PriceBarStore
	dividends interfaces.DividendStore
	symbols   interfaces.SymbolStore
	portfolio interfaces.PortfolioStore
	txns      interfaces.TransactionStore
	holdings  interfaces.HoldingStore
	payments  interfaces.DividendPaymentStore
	safety    interfaces.SafetyCacheStore
	kv        interfaces.SystemKV
}

// NewManager opens the store at the configured path and builds all stores.
func NewManager(cfg *common.Config, logger *common.Logger) (*Manager, error) {
	store, err := badger.NewStore(logger, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return &Manager{
		store:     store,
		logger:    logger,
		quotes:    badger.NewQuoteStorage(store, logger),
		bars:      badger.NewPriceBarStorage(store, logger),
		dividends: badger.NewDividendStorage(store, logger),
		symbols:   badger.NewSymbolStorage(store, logger),
		portfolio: badger.NewPortfolioStorage(store, logger),
		txns:      badger.NewTransactionStorage(store, logger),
		holdings:  badger.NewHoldingStorage(store, logger),
		payments:  badger.NewDividendPaymentStorage(store, logger),
		safety:    badger.NewSafetyCacheStorage(store, logger),
		kv:        badger.NewSystemKVStorage(store, logger),
	}, nil
}

func (m *Manager) QuoteStore() interfaces.QuoteStore                     { return m.quotes }
func (m *Manager) PriceBarStore() interfaces.PriceBarStore               { return m.bars }
func (m *Manager) DividendStore() interfaces.DividendStore               { return m.dividends }
func (m *Manager) SymbolStore() interfaces.SymbolStore                   { return m.symbols }
func (m *Manager) PortfolioStore() interfaces.PortfolioStore             { return m.portfolio }
func (m *Manager) TransactionStore() interfaces.TransactionStore         { return m.txns }
func (m *Manager) HoldingStore() interfaces.HoldingStore                 { return m.holdings }
func (m *Manager) DividendPaymentStore() interfaces.DividendPaymentStore { return m.payments }
func (m *Manager) SafetyCacheStore() interfaces.SafetyCacheStore         { return m.safety }
func (m *Manager) SystemKV() interfaces.SystemKV                         { return m.kv }

// Close closes the underlying database.
func (m *Manager) Close() error {
	m.logger.Debug().Msg("Closing storage manager")
	return m.store.Close()
}

var _ interfaces.StorageManager = (*Manager)(nil)
