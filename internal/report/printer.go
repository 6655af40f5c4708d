package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/nanobench/internal/engine"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Width(18)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Print renders a finished run to w.
func Print(w io.Writer, name string, res *engine.Results, sum *engine.Summary) {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(name) + "\n")

	writeRow(&sb, "Time per eval", formatInterval(sum.Elapsed, sum.ElapsedLower, sum.ElapsedUpper, FormatNanos))
	writeRow(&sb, "GC time", formatInterval(sum.GCPercent, sum.GCLower, sum.GCUpper, formatPercent))
	writeRow(&sb, "Memory per eval", fmt.Sprintf("%s (%d allocations)", FormatBytes(sum.BytesPerEval), sum.AllocsPerEval))
	writeRow(&sb, "Samples", fmt.Sprintf("%d (%.0f evaluations)", sum.N, sum.Evaluations))

	if sum.R2 != nil {
		row := fmt.Sprintf("%.4f", *sum.R2)
		if *sum.R2 < 0.9 {
			row += " " + warnStyle.Render("(poor fit; treat the estimate with suspicion)")
		}
		writeRow(&sb, "R²", row)
	}

	writeRow(&sb, "Wall time", res.TimeUsed.String())
	sb.WriteString(dimStyle.Render(describeFlags(res)) + "\n")

	fmt.Fprint(w, sb.String())
}

func writeRow(sb *strings.Builder, label, value string) {
	sb.WriteString(labelStyle.Render(label) + " " + valueStyle.Render(value) + "\n")
}

// formatInterval renders "center [lower, upper]", omitting the bracket
// when no bounds were computable.
func formatInterval(center float64, lower, upper *float64, fmtVal func(float64) string) string {
	if lower == nil || upper == nil {
		return fmtVal(center)
	}
	return fmt.Sprintf("%s [%s, %s]", fmtVal(center), fmtVal(*lower), fmtVal(*upper))
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// describeFlags summarizes how the estimate was obtained.
func describeFlags(res *engine.Results) string {
	switch {
	case res.SearchPerformed:
		return "estimated from a least-squares fit over folded evaluations"
	case res.MultipleSamples:
		return "estimated from directly measured samples"
	case res.Precompiled:
		return "single sample; first biased measurement discarded"
	default:
		return "single biased sample; budget exhausted before re-measurement"
	}
}
