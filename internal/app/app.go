// Package app wires configuration, storage, clients, and services together.
package app

import (
	"context"
	"fmt"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/clients/fmp"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/clients/yahoo"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/common"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/interfaces"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/services/freshness"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/services/ledger"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/services/marketdata"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/services/portfolio"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/services/safety"
	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/storage"
)

// App owns the constructed component graph.
type App struct {
	Config  *common.Config
	Logger  *common.Logger
	Storage interfaces.StorageManager

	Market    interfaces.MarketDataService
	Freshness interfaces.FreshnessService
	Ledger    interfaces.LedgerService
	Safety    interfaces.SafetyService
	Portfolio interfaces.PortfolioService

	scheduler *Scheduler
}

// New constructs the application from config file paths.
func New(configPaths ...string) (*App, error) {
	config, err := common.LoadConfig(configPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	store, err := storage.NewManager(config, logger)
	if err != nil {
		return nil, err
	}

	clock := common.NewMarketClock(config.Market)

	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
		yahoo.WithLogger(logger),
	)

	quota := marketdata.NewDailyQuota(store.SystemKV(), "fmp_quota", config.Clients.FMP.DailyQuota, logger)
	fmpClient := fmp.NewClient(config.Clients.FMP.APIKey,
		fmp.WithBaseURL(config.Clients.FMP.BaseURL),
		fmp.WithRateLimit(config.Clients.FMP.RateLimit),
		fmp.WithTimeout(config.Clients.FMP.GetTimeout()),
		fmp.WithLogger(logger),
		fmp.WithQuotaTracker(quota),
	)

	market := marketdata.NewService(yahooClient, fmpClient, clock, config, logger)
	fresh := freshness.NewService(market, store, clock, config, logger)
	ledgerSvc := ledger.NewService(store, logger)
	safetySvc := safety.NewService(market, store, logger)
	portfolioSvc := portfolio.NewService(store, logger)

	a := &App{
		Config:    config,
		Logger:    logger,
		Storage:   store,
		Market:    market,
		Freshness: fresh,
		Ledger:    ledgerSvc,
		Safety:    safetySvc,
		Portfolio: portfolioSvc,
	}
	a.scheduler = NewScheduler(fresh, config.Market.GetSweepInterval(), logger)
	return a, nil
}

// Start launches background jobs. Blocks until ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	a.Logger.Info().Str("environment", a.Config.Environment).Msg("Application started")
	a.scheduler.Run(ctx)
}

// Close releases resources.
func (a *App) Close() error {
	a.Logger.Info().Msg("Application shutting down")
	return a.Storage.Close()
}
