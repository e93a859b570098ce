// Package portfolio manages portfolio rows and read-through holding views.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/models"
)

// Service manages portfolio lifecycle and holding views.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewService creates a portfolio service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{storage: storage, logger: logger}
}

// CreatePortfolio creates a portfolio, rejecting duplicate names per user.
func (s *Service) CreatePortfolio(ctx context.Context, userID, name, ptype, currency string) (*models.Portfolio, error) {
	name = strings.TrimSpace(name)
	if userID == "" || name == "" {
		return nil, fmt.Errorf("user id and portfolio name are required")
	}
	if !models.ValidPortfolioType(ptype) {
		return nil, fmt.Errorf("invalid portfolio type %q", ptype)
	}
	if currency == "" {
		currency = "USD"
	}

	existing, err := s.storage.PortfolioStore().GetByName(ctx, userID, name)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Active {
		return nil, interfaces.ErrPortfolioExists
	}

	portfolio := &models.Portfolio{
		ID:       uuid.New().String(),
		UserID:   userID,
		Name:     name,
		Type:     ptype,
		Currency: strings.ToUpper(currency),
		Active:   true,
	}
	if err := s.storage.PortfolioStore().Save(ctx, portfolio); err != nil {
		return nil, err
	}

	s.logger.Info().Str("id", portfolio.ID).Str("name", name).Str("user", userID).Msg("Portfolio created")
	return portfolio, nil
}

// GetPortfolio fetches a portfolio by id.
func (s *Service) GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error) {
	return s.storage.PortfolioStore().Get(ctx, id)
}

// ListPortfolios lists a user's portfolios.
func (s *Service) ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error) {
	return s.storage.PortfolioStore().ListByUser(ctx, userID)
}

// RenamePortfolio renames a portfolio, rejecting name collisions.
func (s *Service) RenamePortfolio(ctx context.Context, id, name string) (*models.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("portfolio name is required")
	}

	portfolio, err := s.storage.PortfolioStore().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	other, err := s.storage.PortfolioStore().GetByName(ctx, portfolio.UserID, name)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}
	if other != nil && other.ID != portfolio.ID && other.Active {
		return nil, interfaces.ErrPortfolioExists
	}

	portfolio.Name = name
	if err := s.storage.PortfolioStore().Save(ctx, portfolio); err != nil {
		return nil, err
	}
	return portfolio, nil
}

// DeactivatePortfolio soft-deletes via the active flag. Rows are never hard
// deleted; the transaction history stays intact.
func (s *Service) DeactivatePortfolio(ctx context.Context, id string) error {
	portfolio, err := s.storage.PortfolioStore().Get(ctx, id)
	if err != nil {
		return err
	}

	portfolio.Active = false
	if err := s.storage.PortfolioStore().Save(ctx, portfolio); err != nil {
		return err
	}

	s.logger.Info().Str("id", id).Msg("Portfolio deactivated")
	return nil
}

// GetHoldings returns the portfolio's holdings joined with current quotes.
// A holding with no stored quote keeps nil market fields; absence is part of
// the contract, not a zero.
func (s *Service) GetHoldings(ctx context.Context, portfolioID string) ([]models.HoldingView, error) {
	holdings, err := s.storage.HoldingStore().ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
	}
	quotes, err := s.storage.QuoteStore().GetBatch(ctx, symbols)
	if err != nil {
		return nil, err
	}

	views := make([]models.HoldingView, 0, len(holdings))
	for _, holding := range holdings {
		view := models.HoldingView{Holding: holding}
		if quote, ok := quotes[holding.Symbol]; ok {
			view.Quote = quote
			marketValue := holding.Quantity * quote.Price
			gainLoss := marketValue - holding.TotalCost
			view.MarketValue = &marketValue
			view.GainLoss = &gainLoss
			if holding.TotalCost > 0 {
				pct := gainLoss / holding.TotalCost * 100
				view.GainLossPct = &pct
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
