package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cryptofolio/internal/domain"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Portfolio Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Trades: %d | Airdrops: %d | Bridges: %d\n\n",
		r.TradeCount, r.AirdropCount, r.BridgeCount))

	if !r.DateRangeStart.IsZero() {
		sb.WriteString(fmt.Sprintf("History: %s to %s\n\n",
			r.DateRangeStart.Format("2006-01-02"), r.DateRangeEnd.Format("2006-01-02")))
	}

	// Positions
	sb.WriteString("## Positions\n\n")
	if len(r.Positions) > 0 {
		sb.WriteString("| Asset | Balance |\n")
		sb.WriteString("|-------|--------|\n")
		for _, p := range r.Positions {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", p.Asset, formatQuantity(p.Balance)))
		}
	} else {
		sb.WriteString("No positions.\n")
	}
	sb.WriteString("\n")

	// Transactions
	sb.WriteString("## Transactions\n\n")
	if len(r.Transactions) > 0 {
		sb.WriteString("| Date | Kind | Application | TxID | Detail | Value |\n")
		sb.WriteString("|------|------|-------------|------|--------|-------|\n")
		for _, tx := range r.Transactions {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				tx.At.Format("2006-01-02 15:04:05"), tx.Kind, tx.Application,
				tx.TxID, tx.Detail, formatQuantity(tx.USDAmount)))
		}
	} else {
		sb.WriteString("No transactions.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// formatAmount renders a quantity with its ticker.
func formatAmount(a domain.Amount) string {
	return formatQuantity(a.Amount) + " " + a.Asset.Name
}

// formatQuantity renders the shortest decimal representation that
// round-trips.
func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
