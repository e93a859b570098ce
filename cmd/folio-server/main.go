// Command folio-server runs the portfolio tracker core with its background
// freshness scheduler.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/adamchilders/personal-portfolio-planner-sub000/internal/app"
)

func main() {
	configPath := flag.String("config", "config/folio.toml", "path to config file")
	localConfig := flag.String("local-config", "config/folio.local.toml", "path to local override config")
	flag.Parse()

	a, err := app.New(*configPath, *localConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Start(ctx)

	if err := a.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("Shutdown error")
		os.Exit(1)
	}
}
