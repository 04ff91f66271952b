package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"cryptofolio/internal/config"
	"cryptofolio/internal/domain"
	"cryptofolio/internal/exchange/coinbase"
	"cryptofolio/internal/exchange/mexc"
	"cryptofolio/internal/export"
	"cryptofolio/internal/observability"
	"cryptofolio/internal/reconcile"
	chstore "cryptofolio/internal/storage/clickhouse"
	"cryptofolio/internal/storage/migrations"
	pgstore "cryptofolio/internal/storage/postgres"
)

func main() {
	output := flag.String("output", "trades.csv", "Output CSV path")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall export timeout")
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

	if err := run(ctx, cfg, logger, *output, *skipUnsupported); err != nil {
		logger.Error().Err(err).Msg("export failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, output string, skipUnsupported bool) error {
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	txs, err := normalizeAll(ctx, cfg, logger, pool, skipUnsupported)
	if err != nil {
		return err
	}

	rows, err := export.NewProjector(cfg.ExportFiat, cfg.MexcQuoteAsset).Project(txs)
	if err != nil {
		return fmt.Errorf("project ledger: %w", err)
	}
	observability.RecordLedgerRows(len(rows))

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer file.Close()

	if err := export.WriteCSV(file, rows); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	logger.Info().Str("path", output).Int("rows", len(rows)).Msg("ledger exported")

	if cfg.ClickhouseDSN != "" {
		if err := mirrorToClickhouse(ctx, cfg.ClickhouseDSN, rows); err != nil {
			return fmt.Errorf("mirror to clickhouse: %w", err)
		}
		logger.Info().Int("rows", len(rows)).Msg("ledger mirrored to clickhouse")
	}

	return nil
}

// normalizeAll reads both raw stores and produces the merged canonical
// history.
func normalizeAll(ctx context.Context, cfg *config.Config, logger zerolog.Logger, pool *pgstore.Pool, skipUnsupported bool) ([]domain.Transaction, error) {
	fills, err := pgstore.NewMexcFillStore(pool).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mexc fills: %w", err)
	}

	mexcOpts := []mexc.NormalizerOption{mexc.WithLogger(logger)}
	if skipUnsupported {
		mexcOpts = append(mexcOpts, mexc.WithSkipUnsupported())
	}
	mexcTxs, err := mexc.NewNormalizer(cfg.MexcQuoteAsset, mexcOpts...).Normalize(fills)
	if err != nil {
		return nil, fmt.Errorf("normalize mexc: %w", err)
	}
	observability.RecordNormalized("mexc", len(mexcTxs))

	rows, err := pgstore.NewCoinbaseRowStore(pool).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load coinbase rows: %w", err)
	}

	coinbaseTxs, err := coinbase.NewNormalizer(cfg.CoinbaseFiat).Normalize(rows)
	if err != nil {
		return nil, fmt.Errorf("normalize coinbase: %w", err)
	}
	observability.RecordNormalized("coinbase", len(coinbaseTxs))

	return reconcile.Merge(mexcTxs, coinbaseTxs), nil
}

// mirrorToClickhouse batch-inserts the exported rows for ad-hoc analysis.
func mirrorToClickhouse(ctx context.Context, dsn string, rows []*domain.LedgerRow) error {
	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	defer conn.Close()

	return chstore.NewLedgerStore(conn).InsertBatch(ctx, rows)
}
