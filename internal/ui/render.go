package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/catalog/internal/browse"
	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/model"
	"github.com/abelbrown/catalog/internal/reconcile"
)

const sidebarWidth = 24

// renderSidebar lists every filter group with the active option marked.
func renderSidebar(s *browse.Session, height int) string {
	st := s.State()
	var lines []string

	lines = append(lines, SidebarHeader.Render("Category"))
	lines = append(lines, option("All", st.CategoryID == 0))
	for _, c := range s.Categories() {
		lines = append(lines, option(c.Name, c.ID == st.CategoryID))
	}
	lines = append(lines, "")

	lines = append(lines, SidebarHeader.Render("Pricing"))
	lines = append(lines, option("Any", st.Pricing == ""))
	for _, p := range filter.PricingTiers {
		lines = append(lines, option(string(p), p == st.Pricing))
	}
	lines = append(lines, "")

	lines = append(lines, SidebarHeader.Render("Platforms"))
	for i, p := range filter.CommonPlatforms {
		label := fmt.Sprintf("%d %s", i+1, p)
		lines = append(lines, option(label, st.HasPlatform(p)))
	}
	lines = append(lines, "")

	lines = append(lines, SidebarHeader.Render("Sort"))
	for _, o := range filter.SortOrders {
		lines = append(lines, option(string(o), o == st.Sort))
	}

	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	return Sidebar.Width(sidebarWidth).Render(strings.Join(lines, "\n"))
}

func option(label string, active bool) string {
	label = truncateRunes(label, sidebarWidth-4)
	if active {
		return SidebarActive.Render("● " + label)
	}
	return SidebarOption.Render("○ " + label)
}

// renderChips shows one chip per active filter.
func renderChips(chips []string, width int) string {
	if len(chips) == 0 {
		return AddressBar.Render("all entries")
	}
	var b strings.Builder
	for _, c := range chips {
		b.WriteString(Chip.Render(c))
	}
	b.WriteString(StatusBarKey.Render("x") + StatusBarText.Render(":clear all"))
	return lipgloss.NewStyle().MaxWidth(width).Render(b.String())
}

// renderResults renders the result area for every display status.
func renderResults(d reconcile.Display, cursor, width, height int) string {
	switch d.Status {
	case reconcile.StatusEmpty:
		return HelpStyle.Render("No entries match these filters.\nPress x to clear them.")
	case reconcile.StatusFailed:
		msg := "The catalog service is unavailable."
		if d.Err != "" {
			msg += "\n" + truncateRunes(d.Err, max(width-8, 20))
		}
		return ErrorStyle.Render(msg) + "\n" + HelpStyle.Render("Press r to retry.")
	}

	if len(d.Items) == 0 {
		return HelpStyle.Render("Loading...")
	}

	// Previous items stay visible, dimmed, while a newer page loads.
	dim := d.Status == reconcile.StatusLoading
	var lines []string
	for i, e := range d.Items {
		lines = append(lines, renderEntry(e, i == cursor && !dim, dim, width))
	}
	if height > 0 && len(lines) > height {
		start := 0
		if cursor >= height {
			start = cursor - height + 1
		}
		lines = lines[start : start+height]
	}
	return strings.Join(lines, "\n")
}

func renderEntry(e model.Entry, selected, dim bool, width int) string {
	name := e.Name
	if e.Featured {
		name = FeaturedBadge.Render("★ ") + name
	}
	var badge string
	if e.PricingModel != "" {
		badge = PricingBadge.Render(e.PricingModel)
	}
	desc := truncateRunes(e.Description, max(width-lipgloss.Width(name)-lipgloss.Width(badge)-6, 10))
	line := badge + name
	if desc != "" {
		line += StatusBarText.Render(" · " + desc)
	}

	switch {
	case selected:
		return SelectedItem.Width(width).Render(line)
	case dim:
		return DimItem.Width(width).Render(line)
	default:
		return NormalItem.Width(width).Render(line)
	}
}

// renderPager renders prev, the page window, and next. Hidden for one page.
func renderPager(d reconcile.Display, width int) string {
	if !d.ShowPager() {
		return ""
	}
	var b strings.Builder
	if d.HasPrev() {
		b.WriteString(PagerPage.Render("‹ prev"))
	} else {
		b.WriteString(PagerDisabled.Render("‹ prev"))
	}
	for _, slot := range d.Window() {
		switch {
		case slot.Ellipsis:
			b.WriteString(PagerDisabled.Render("…"))
		case slot.Page == d.Page:
			b.WriteString(PagerCurrent.Render(strconv.Itoa(slot.Page)))
		default:
			b.WriteString(PagerPage.Render(strconv.Itoa(slot.Page)))
		}
	}
	if d.HasNext() {
		b.WriteString(PagerPage.Render("next ›"))
	} else {
		b.WriteString(PagerDisabled.Render("next ›"))
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, b.String())
}

// renderSuggestions renders the autocomplete dropdown.
func renderSuggestions(items []model.Suggestion, cursor int) string {
	var lines []string
	for i, sg := range items {
		row := sg.Text + " " + SuggestionKind.Render(string(sg.Kind))
		if i == cursor {
			lines = append(lines, SuggestionSelected.Render(row))
		} else {
			lines = append(lines, SuggestionRow.Render(row))
		}
	}
	return strings.Join(lines, "\n")
}

// renderStatusBar renders state on the left, the address in the middle and
// key hints on the right.
func renderStatusBar(state, addr, hints string, width int) string {
	left := " " + state + "  " + AddressBar.Render(truncateRunes(addr, 60))
	padding := width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if padding < 1 {
		return StatusBar.Width(width).Render(left)
	}
	return StatusBar.Width(width).Render(left + strings.Repeat(" ", padding) + hints)
}

func joinColumns(left, right string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// truncateRunes shortens s to n runes, ending with an ellipsis.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	switch {
	case len(r) <= n:
		return s
	case n <= 0:
		return ""
	case n == 1:
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}
