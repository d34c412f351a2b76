package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarn      = lipgloss.Color("214") // Amber
)

// SelectedItem style for the currently highlighted entry.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected entries.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// DimItem style for entries shown while a newer page loads.
var DimItem = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// FeaturedBadge marks featured entries.
var FeaturedBadge = lipgloss.NewStyle().
	Foreground(colorWarn).
	Bold(true)

// PricingBadge style for the pricing label next to an entry.
var PricingBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

// Sidebar is the filter column on the left.
var Sidebar = lipgloss.NewStyle().
	Padding(0, 1).
	BorderStyle(lipgloss.NormalBorder()).
	BorderRight(true).
	BorderForeground(colorMuted)

// SidebarHeader labels each filter group.
var SidebarHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// SidebarActive marks the selected option in a filter group.
var SidebarActive = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// SidebarOption is an unselected option.
var SidebarOption = lipgloss.NewStyle().
	Foreground(colorSecondary)

// Chip style for an active filter label.
var Chip = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("237")).
	Padding(0, 1).
	MarginRight(1)

// AddressBar shows the current shareable address.
var AddressBar = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// PagerCurrent highlights the current page number.
var PagerCurrent = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// PagerPage is any other page number.
var PagerPage = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// PagerDisabled greys out prev/next at the ends.
var PagerDisabled = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(0, 1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help and empty-state text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// QueryBar style for the search input line.
var QueryBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("238")).
	Padding(0, 1)

// QueryPrompt style for the "/" prompt.
var QueryPrompt = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// SuggestionRow is one autocomplete row.
var SuggestionRow = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252")).
	PaddingLeft(3)

// SuggestionSelected is the highlighted autocomplete row.
var SuggestionSelected = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	PaddingLeft(3)

// SuggestionKind labels where a suggestion came from.
var SuggestionKind = lipgloss.NewStyle().
	Foreground(colorMuted).
	Italic(true)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle titles each debug overlay section.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
