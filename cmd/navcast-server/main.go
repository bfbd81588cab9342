package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/navcast/internal/app"
	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to navcast.toml (default: $NAVCAST_CONFIG, then next to the binary, then config/navcast.toml)")
	once := flag.Bool("once", false, "run a single estimation cycle for every fund, print the results and exit")
	flag.Parse()

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	if *once {
		os.Exit(runOnce(a))
	}

	common.PrintBanner(a.Config, a.Logger)

	if err := a.StartScheduler(); err != nil {
		a.Logger.Fatal().Err(err).Msg("Scheduler failed to start")
	}

	srv := server.NewServer(a)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	a.Logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)).
		Str("mcp", fmt.Sprintf("http://localhost:%d/mcp", a.Config.Server.Port)).
		Msg("Server ready")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	common.PrintShutdownBanner(a.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	a.Close()
	a.Logger.Info().Msg("Server stopped")
}

// runOnce estimates every fund once and prints a one-line summary per fund.
func runOnce(a *app.App) int {
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	code := 0
	for _, f := range a.FundService.ListFunds() {
		snap, err := a.FundService.Estimate(ctx, f.Code)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", f.Code, err)
			code = 1
			continue
		}
		est := "-"
		if snap.EstimatedPrice != nil {
			est = common.FormatPrice(*snap.EstimatedPrice)
		}
		base := "-"
		if snap.OfficialPrice != nil {
			base = fmt.Sprintf("%s (%s)", common.FormatPrice(snap.OfficialPrice.Value), snap.OfficialPrice.AsOfDate)
		}
		fmt.Printf("%-5s base %-28s change %-9s estimate %s\n",
			f.Code, base, common.FormatSignedPct(snap.TotalWeightedPercent), est)
	}
	return code
}
