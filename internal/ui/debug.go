package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/catalog/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing request stats and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	// --- Stats section (keyed lookups, not map iteration) ---
	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Request Stats"))
	lines = append(lines, fmt.Sprintf("  Searches:   %d started, %d complete, %d errors",
		stats[otel.KindSearchStart], stats[otel.KindSearchComplete], stats[otel.KindSearchError]))
	lines = append(lines, fmt.Sprintf("  Dropped:    %d superseded, %d stale",
		stats[otel.KindSearchCancel], stats[otel.KindSearchStale]))
	lines = append(lines, fmt.Sprintf("  Address:    %d replace, %d push, %d external",
		stats[otel.KindAddressReplace], stats[otel.KindAddressPush], stats[otel.KindNavExternal]))
	lines = append(lines, fmt.Sprintf("  Corrected:  %d page clamps",
		stats[otel.KindSearchClamp]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	// --- Latest request trail ---
	if seq := ring.LatestSeq(); seq > 0 {
		var steps []string
		for _, e := range ring.BySeq(seq) {
			step := strings.TrimPrefix(string(e.Kind), "search.")
			if e.Dur > 0 {
				step += " " + formatAge(e.Dur)
			}
			steps = append(steps, step)
		}
		lines = append(lines, DebugHeaderStyle.Render(fmt.Sprintf("Request #%d", seq)))
		lines = append(lines, "  "+strings.Join(steps, " → "))
		lines = append(lines, "")
	}

	// --- Recent events section ---
	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		age := time.Since(e.Time)
		ageStr := formatAge(age)

		line := fmt.Sprintf("  %6s  %-22s", ageStr, string(e.Kind))
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		if e.Seq != 0 {
			line += fmt.Sprintf("  #%d", e.Seq)
		}
		if e.Addr != "" {
			line += "  " + truncateRunes(e.Addr, 36)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	content := strings.Join(lines, "\n")
	return DebugPanel.Width(panelWidth).Render(content)
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
