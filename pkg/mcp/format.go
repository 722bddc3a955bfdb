package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/latextocalc/latextocalc/pkg/models"
	"github.com/latextocalc/latextocalc/pkg/pipeline"
)

// formatTranslation formats a single translation result.
func formatTranslation(tr pipeline.Translation) string {
	var b strings.Builder
	b.WriteString(tr.Text)
	b.WriteString("\n")
	switch {
	case tr.Cached:
		b.WriteString("(served from cache)\n")
	case tr.Endpoint != "":
		fmt.Fprintf(&b, "(via %s)\n", tr.Endpoint)
	}
	return b.String()
}

// formatSettings formats settings as an aligned key/value list.
func formatSettings(s models.Settings) string {
	if len(s) == 0 {
		return "No settings."
	}
	var b strings.Builder
	b.WriteString("Settings\n")
	for _, k := range s.Keys() {
		state := "off"
		if s[k] {
			state = "on"
		}
		fmt.Fprintf(&b, "  %-14s %s\n", k, state)
	}
	return b.String()
}

// formatHistory formats history records as a text table.
func formatHistory(recs []models.HistoryRecord) string {
	if len(recs) == 0 {
		return "No translations recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %-16s %-24s %-24s %10s\n",
		"When", "Status", "Input", "Output", "Total")
	b.WriteString(strings.Repeat("-", 94) + "\n")
	for _, r := range recs {
		status := string(r.Status)
		if r.Cached {
			status += " (cache)"
		}
		fmt.Fprintf(&b, "%-16s %-16s %-24s %-24s %8.1fms\n",
			humanize.RelTime(r.CreatedAt, time.Now(), "ago", "from now"),
			status, truncate(r.Input, 24), truncate(r.Output, 24), r.TotalMs)
	}
	return b.String()
}

// formatHistorySummary formats history summaries as a text table.
func formatHistorySummary(rows []models.HistorySummary) string {
	if len(rows) == 0 {
		return "No translations recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %-36s %8s %8s %10s\n",
		"Status", "Endpoint", "Requests", "Cached", "Avg")
	b.WriteString(strings.Repeat("-", 82) + "\n")
	for _, r := range rows {
		endpoint := r.Endpoint
		if endpoint == "" {
			endpoint = "-"
		}
		fmt.Fprintf(&b, "%-16s %-36s %8s %8s %8.1fms\n",
			r.Status, truncate(endpoint, 36),
			humanize.Comma(int64(r.RequestCount)), humanize.Comma(int64(r.CachedCount)), r.AvgTotalMs)
	}
	return b.String()
}

// formatCacheStats formats cache stats as text.
func formatCacheStats(stats models.CacheStats) string {
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("Cache Statistics\n"+
		"  Entries:  %d\n"+
		"  Hits:     %d\n"+
		"  Misses:   %d\n"+
		"  Hit Rate: %.1f%%\n",
		stats.Entries, stats.Hits, stats.Misses, hitRate)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
