package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"cryptofolio/internal/config"
	"cryptofolio/internal/exchange/coinbase"
	"cryptofolio/internal/exchange/mexc"
	"cryptofolio/internal/ingest"
	"cryptofolio/internal/observability"
	"cryptofolio/internal/storage"
	"cryptofolio/internal/storage/memory"
	"cryptofolio/internal/storage/migrations"
	pgstore "cryptofolio/internal/storage/postgres"
)

func main() {
	exchange := flag.String("exchange", "", "Fetch a single exchange (mexc or coinbase); empty fetches all")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall fetch timeout")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL (dry runs)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	pretty := flag.Bool("pretty", false, "Pretty console log output")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LoggerConfig{Level: cfg.LogLevel, Pretty: *pretty})

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, logger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	if err := run(ctx, cfg, logger, *exchange, *useMemory); err != nil {
		logger.Error().Err(err).Msg("fetch failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, exchange string, useMemory bool) error {
	var mexcStore storage.MexcFillStore = memory.NewMexcFillStore()
	var coinbaseStore storage.CoinbaseRowStore = memory.NewCoinbaseRowStore()

	if !useMemory {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		mexcStore = pgstore.NewMexcFillStore(pool)
		coinbaseStore = pgstore.NewCoinbaseRowStore(pool)
	}

	mexcClient := mexc.NewClient(mexc.Credentials{
		AccessKey: cfg.MexcAccessKey,
		SecretKey: cfg.MexcSecretKey,
	})
	coinbaseClient := coinbase.NewClient(coinbase.Credentials{
		APIKey:    cfg.CoinbaseAPIKey,
		APISecret: cfg.CoinbaseAPISecret,
	})

	service := ingest.NewService(logger,
		mexc.NewFetcher(mexcClient, mexcStore, cfg.MexcSymbols, logger),
		coinbase.NewFetcher(coinbaseClient, coinbaseStore, logger),
	)

	results, err := service.Run(ctx, exchange)
	if err != nil {
		return err
	}

	for _, result := range results {
		logger.Info().
			Str("exchange", result.Exchange).
			Int("stored", result.Stored).
			Int("duplicates", result.Duplicates).
			Msg("exchange fetched")
	}
	return nil
}

// serveMetrics exposes /metrics and /health for scrapes during long runs.
func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Info().Str("addr", addr).Msg("starting metrics server")
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
