package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"cryptofolio/internal/domain"
)

// csvHeader is the fixed column order of the export file. The
// comission_amount spelling is part of the downstream tool's expected
// schema; do not correct it.
var csvHeader = []string{
	"application",
	"tx_id",
	"currency",
	"account",
	"asset",
	"ticker",
	"type",
	"crypto_amount",
	"fiat_amount",
	"comission_amount",
	"note",
	"date",
	"time",
}

// WriteCSV serializes ledger rows to w, header first. Date and time-of-day
// are the UTC components of the row timestamp.
func WriteCSV(w io.Writer, rows []*domain.LedgerRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		at := row.Timestamp.UTC()
		record := []string{
			row.Application,
			row.TxID,
			row.Currency,
			row.Account,
			row.Asset,
			row.Ticker,
			string(row.Type),
			formatFloat(row.CryptoAmount),
			formatFloat(row.FiatAmount),
			formatFloat(row.CommissionAmount),
			row.Note,
			at.Format("2006-01-02"),
			at.Format("15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", row.TxID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// formatFloat renders the shortest decimal representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
