package telegram

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"helios/internal/services/rebalance"
)

// FormatRebalanceReport renders a cycle report as a Markdown message
func FormatRebalanceReport(report *rebalance.CycleReport) string {
	var b strings.Builder

	p := report.Portfolio
	a := report.Analysis

	fmt.Fprintf(&b, "*Portfolio rebalanced* (%s)\n\n", p.RiskLevel)

	for _, t := range p.Tokens {
		fmt.Fprintf(&b, "• *%s* — %.1f%% (confidence %.0f, risk %.1f)\n",
			t.Symbol, t.AllocationPct, t.Confidence, t.RiskScore)
	}

	fmt.Fprintf(&b, "\nSells: %d | Buys: %d | Kept: %d\n",
		report.SellsIssued, report.BuysIssued, report.Kept)
	fmt.Fprintf(&b, "Fill: %.0f%%", report.SuccessRatio*100)
	if report.FailedTrades > 0 {
		fmt.Fprintf(&b, " (%d failed)", report.FailedTrades)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "\nDiversification: %.0f | Alignment: %.0f | Action: %s\n",
		a.DiversificationScore, a.MarketAlignmentScore, a.RecommendedAction)

	if len(a.Warnings) > 0 {
		fmt.Fprintf(&b, "\n⚠️ %s\n", strings.Join(a.Warnings, "; "))
	}
	if len(a.Strengths) > 0 {
		fmt.Fprintf(&b, "✅ %s\n", strings.Join(a.Strengths, "; "))
	}

	fmt.Fprintf(&b, "\n_%s_", humanize.Time(report.CompletedAt))
	return b.String()
}
