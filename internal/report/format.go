// Package report renders finished benchmark runs: a styled terminal
// summary plus JSON, CSV, YAML, and markdown exports for external
// analysis.
package report

import (
	"fmt"
	"math"
)

// FormatNanos formats a nanosecond quantity with a unit chosen by
// magnitude. Sub-nanosecond values arise from per-evaluation slopes and
// are shown in nanoseconds with two decimals.
func FormatNanos(ns float64) string {
	switch {
	case math.IsInf(ns, 0) || math.IsNaN(ns):
		return fmt.Sprintf("%v", ns)
	case ns < 1e3:
		return fmt.Sprintf("%.2f ns", ns)
	case ns < 1e6:
		return fmt.Sprintf("%.2f µs", ns/1e3)
	case ns < 1e9:
		return fmt.Sprintf("%.2f ms", ns/1e6)
	default:
		return fmt.Sprintf("%.2f s", ns/1e9)
	}
}

// FormatBytes formats a byte count into a human-readable string.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
