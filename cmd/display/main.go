package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"cryptofolio/internal/config"
	"cryptofolio/internal/exchange/coinbase"
	"cryptofolio/internal/exchange/mexc"
	"cryptofolio/internal/observability"
	"cryptofolio/internal/reconcile"
	"cryptofolio/internal/report"
	"cryptofolio/internal/storage/migrations"
	pgstore "cryptofolio/internal/storage/postgres"
)

func main() {
	live := flag.Bool("live", false, "Stream live MEXC prices after the report")
	wsEndpoint := flag.String("ws-endpoint", mexc.DefaultWSEndpoint, "MEXC WebSocket endpoint for live prices")
	timeout := flag.Duration("timeout", 2*time.Minute, "Report build timeout")
	skipUnsupported := flag.Bool("skip-unsupported", false, "Skip fills with unsupported symbols instead of aborting")
	pretty := flag.Bool("pretty", false, "Pretty console log output")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LoggerConfig{Level: cfg.LogLevel, Pretty: *pretty})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, logger, *skipUnsupported); err != nil {
		logger.Error().Err(err).Msg("display failed")
		os.Exit(1)
	}

	if *live {
		if err := runLive(cfg, logger, *wsEndpoint); err != nil {
			logger.Error().Err(err).Msg("live stream failed")
			os.Exit(1)
		}
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, skipUnsupported bool) error {
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	fills, err := pgstore.NewMexcFillStore(pool).GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load mexc fills: %w", err)
	}
	mexcOpts := []mexc.NormalizerOption{mexc.WithLogger(logger)}
	if skipUnsupported {
		mexcOpts = append(mexcOpts, mexc.WithSkipUnsupported())
	}
	mexcTxs, err := mexc.NewNormalizer(cfg.MexcQuoteAsset, mexcOpts...).Normalize(fills)
	if err != nil {
		return fmt.Errorf("normalize mexc: %w", err)
	}

	rows, err := pgstore.NewCoinbaseRowStore(pool).GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load coinbase rows: %w", err)
	}
	coinbaseTxs, err := coinbase.NewNormalizer(cfg.CoinbaseFiat).Normalize(rows)
	if err != nil {
		return fmt.Errorf("normalize coinbase: %w", err)
	}

	merged := reconcile.Merge(mexcTxs, coinbaseTxs)
	fmt.Print(report.RenderMarkdown(report.Build(merged, time.Now().UTC())))
	return nil
}

// runLive prints MEXC deal prices for the configured symbols until
// interrupted.
func runLive(cfg *config.Config, logger zerolog.Logger, endpoint string) error {
	if len(cfg.MexcSymbols) == 0 {
		return fmt.Errorf("MEXC_SYMBOLS is required for live prices")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := mexc.DialTickerStream(ctx, endpoint, cfg.MexcSymbols)
	if err != nil {
		return fmt.Errorf("dial ticker stream: %w", err)
	}
	defer stream.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info().Strs("symbols", cfg.MexcSymbols).Msg("streaming live prices")
	for {
		select {
		case <-sigCh:
			return nil
		case ticker, ok := <-stream.Updates():
			if !ok {
				return fmt.Errorf("ticker stream closed")
			}
			fmt.Printf("%s  %-12s %s\n",
				ticker.At.Format("15:04:05"), ticker.Symbol,
				fmt.Sprintf("%g", ticker.Price))
		}
	}
}
