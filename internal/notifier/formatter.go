package notifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fadai88/binance-momentum-bot/internal/model"
)

// FormatCycleReport formats a completed rebalancing cycle into a Telegram message.
func FormatCycleReport(rep model.CycleReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Momentum Cycle</b> | %s\n\n", rep.StartedAt.Format("2006-01-02 15:04")))

	switch rep.Outcome {
	case model.OutcomeRebalanced:
		b.WriteString("Outcome: ✅ rebalanced\n")
	case model.OutcomeHeld:
		b.WriteString("Outcome: 💤 holding\n")
	case model.OutcomeFailed:
		b.WriteString("Outcome: ❌ failed\n")
		if rep.Err != "" {
			b.WriteString(fmt.Sprintf("⚠️ %s\n", rep.Err))
		}
	}

	if rep.Scanned > 0 || rep.Outcome != model.OutcomeFailed {
		regime := "closed"
		if rep.RegimePassed {
			regime = "open"
		}
		b.WriteString(fmt.Sprintf("%s return: %+.2f%% (regime %s)\n", rep.RefSymbol, rep.RefReturn*100, regime))
	}
	if rep.Scanned > 0 {
		b.WriteString(fmt.Sprintf("Scanned: %d symbols (%d skipped)\n", rep.Scanned, rep.Skipped))
	}

	if len(rep.Selected) > 0 {
		b.WriteString(fmt.Sprintf("\n🎯 <b>Selected:</b> %s\n", strings.Join(rep.Selected, ", ")))
	}

	if len(rep.Sold) > 0 {
		b.WriteString("\n📤 <b>Sold:</b>\n")
		for _, f := range rep.Sold {
			b.WriteString(fmt.Sprintf("  %s %.8f for %.2f %s\n", f.Symbol, f.Quantity, f.QuoteAmount, rep.QuoteAsset))
		}
	}
	if len(rep.Bought) > 0 {
		b.WriteString("\n📥 <b>Bought:</b>\n")
		for _, f := range rep.Bought {
			b.WriteString(fmt.Sprintf("  %s %.8f for %.2f %s\n", f.Symbol, f.Quantity, f.QuoteAmount, rep.QuoteAsset))
		}
	}

	if rep.Outcome != model.OutcomeFailed {
		b.WriteString(fmt.Sprintf("\n💰 Free %s: %.2f\n", rep.QuoteAsset, rep.QuoteBalance))
	}
	return b.String()
}

// FormatHoldings formats current account balances for display.
func FormatHoldings(holdings model.Holdings, quoteAsset string) string {
	var b strings.Builder
	b.WriteString("📦 <b>Holdings</b>\n\n")

	if quote, ok := holdings[quoteAsset]; ok {
		b.WriteString(fmt.Sprintf("%s: %.2f\n", quoteAsset, quote))
	}

	assets := make([]string, 0, len(holdings))
	for asset := range holdings {
		if asset == quoteAsset {
			continue
		}
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	for _, asset := range assets {
		b.WriteString(fmt.Sprintf("%s: %.8f\n", asset, holdings[asset]))
	}
	if len(assets) == 0 {
		b.WriteString("No token positions\n")
	}
	return b.String()
}
