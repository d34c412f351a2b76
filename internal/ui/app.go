package ui

import (
	"slices"
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/catalog/internal/browse"
	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/otel"
	"github.com/abelbrown/catalog/internal/reconcile"
)

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT talk to the search service. Every filter edit is
// handed to the Session as an intent message, and everything the Session
// schedules comes back through Update.
type App struct {
	session *browse.Session
	events  *otel.Logger
	ring    *otel.RingBuffer

	input   textinput.Model
	spinner spinner.Model
	help    help.Model

	cursor    int // selected result row
	sugCursor int // selected suggestion row, -1 for none
	width     int
	height    int
	ready     bool
	typing    bool
	showHelp  bool
	showDebug bool
	quitting  bool
}

// Options configure optional App collaborators.
type Options struct {
	Events *otel.Logger
	Ring   *otel.RingBuffer // feeds the debug overlay
}

// NewApp creates an App driving the given session.
func NewApp(session *browse.Session, opts Options) App {
	ti := textinput.New()
	ti.Placeholder = "search the catalog"
	ti.Prompt = ""
	ti.CharLimit = 120
	ti.SetValue(session.State().Query)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return App{
		session:   session,
		events:    opts.Events,
		ring:      opts.Ring,
		input:     ti,
		spinner:   sp,
		help:      help.New(),
		sugCursor: -1,
	}
}

// Init starts the session and the loading spinner.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.session.Init(), a.spinner.Tick)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.events != nil {
		a.events.Trace(otel.KindMsgReceived, "ui", msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		a.emitKey(msg)
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.ready = true
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	// Everything else belongs to the session: debounce ticks, responses,
	// navigation, category and suggestion loads.
	cmd := a.session.Update(msg)
	a.sync()
	return a, cmd
}

// sync keeps local cursors inside whatever the session now shows.
func (a *App) sync() {
	items := a.session.Display().Items
	if a.cursor >= len(items) {
		a.cursor = max(len(items)-1, 0)
	}
	if a.sugCursor >= len(a.session.Suggestions()) {
		a.sugCursor = -1
	}
	if !a.typing && a.input.Value() != a.session.State().Query {
		a.input.SetValue(a.session.State().Query)
	}
}

// send feeds an intent to the session.
func (a App) send(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.session.Update(msg)
	a.sync()
	return a, cmd
}

func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a.quit()
	}
	if a.typing {
		return a.handleQueryKey(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a.quit()

	case key.Matches(msg, keys.Help):
		a.showHelp = !a.showHelp
		return a, nil

	case key.Matches(msg, keys.Debug):
		a.showDebug = !a.showDebug
		return a, nil

	case key.Matches(msg, keys.Search):
		a.typing = true
		a.input.CursorEnd()
		return a, a.input.Focus()

	case key.Matches(msg, keys.Down):
		if a.cursor < len(a.session.Display().Items)-1 {
			a.cursor++
		}
		return a, nil

	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case key.Matches(msg, keys.Category):
		return a.send(browse.SetCategory{ID: nextCategory(a.session)})

	case key.Matches(msg, keys.Pricing):
		return a.send(browse.SetPricing{Tier: nextPricing(a.session.State().Pricing)})

	case key.Matches(msg, keys.Sort):
		return a.send(browse.SetSort{Order: nextSort(a.session.State().Sort)})

	case key.Matches(msg, keys.Platform):
		n, _ := strconv.Atoi(msg.String())
		if n < 1 || n > len(filter.CommonPlatforms) {
			return a, nil
		}
		return a.send(browse.TogglePlatform{Name: filter.CommonPlatforms[n-1]})

	case key.Matches(msg, keys.Clear):
		a.input.SetValue("")
		return a.send(browse.ClearAll{})

	case key.Matches(msg, keys.Next):
		a.cursor = 0
		return a.send(browse.NextPage{})

	case key.Matches(msg, keys.Prev):
		a.cursor = 0
		return a.send(browse.PrevPage{})

	case key.Matches(msg, keys.First):
		a.cursor = 0
		return a.send(browse.ChangePage{Page: 1})

	case key.Matches(msg, keys.Last):
		a.cursor = 0
		return a.send(browse.ChangePage{Page: a.session.Display().TotalPages()})

	case key.Matches(msg, keys.Back):
		return a.send(browse.Back{})

	case key.Matches(msg, keys.Forward):
		return a.send(browse.Forward{})

	case key.Matches(msg, keys.Retry):
		return a.send(browse.Retry{})
	}
	return a, nil
}

// handleQueryKey routes keys while the query input has focus.
func (a App) handleQueryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	suggestions := a.session.Suggestions()

	switch msg.Type {
	case tea.KeyEsc:
		a.typing = false
		a.input.Blur()
		a.sugCursor = -1
		return a.send(browse.DismissSuggestions{})

	case tea.KeyEnter:
		a.typing = false
		a.input.Blur()
		a.cursor = 0
		if a.sugCursor >= 0 && a.sugCursor < len(suggestions) {
			pick := suggestions[a.sugCursor]
			a.sugCursor = -1
			return a.send(browse.PickSuggestion{Suggestion: pick})
		}
		return a.send(browse.SubmitQuery{Text: a.input.Value()})

	case tea.KeyDown, tea.KeyTab:
		if a.sugCursor < len(suggestions)-1 {
			a.sugCursor++
		}
		return a, nil

	case tea.KeyUp, tea.KeyShiftTab:
		if a.sugCursor >= 0 {
			a.sugCursor--
		}
		return a, nil
	}

	before := a.input.Value()
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if a.input.Value() == before {
		return a, cmd
	}
	a.sugCursor = -1
	m, typed := a.send(browse.TypeQuery{Text: a.input.Value()})
	return m, tea.Batch(cmd, typed)
}

func (a App) quit() (tea.Model, tea.Cmd) {
	a.session.Update(browse.Dispose{})
	a.quitting = true
	return a, tea.Quit
}

func (a App) emitKey(msg tea.KeyMsg) {
	if a.events == nil || a.typing {
		return
	}
	a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: msg.String()})
}

// nextCategory cycles All -> each loaded category -> All.
func nextCategory(s *browse.Session) int {
	cats := s.Categories()
	if len(cats) == 0 {
		return 0
	}
	current := s.State().CategoryID
	for i, c := range cats {
		if c.ID == current {
			if i == len(cats)-1 {
				return 0
			}
			return cats[i+1].ID
		}
	}
	return cats[0].ID
}

// nextPricing cycles Any -> each tier -> Any.
func nextPricing(p filter.PricingTier) filter.PricingTier {
	i := slices.Index(filter.PricingTiers, p)
	if i == len(filter.PricingTiers)-1 {
		return ""
	}
	return filter.PricingTiers[i+1]
}

func nextSort(o filter.SortOrder) filter.SortOrder {
	i := slices.Index(filter.SortOrders, o)
	return filter.SortOrders[(i+1)%len(filter.SortOrders)]
}

// View renders the UI.
func (a App) View() string {
	if a.quitting {
		return ""
	}
	if !a.ready {
		return "Loading..."
	}
	if a.showDebug {
		return debugOverlay(a.ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	d := a.session.Display()
	header := a.renderQuery() + "\n" + renderChips(a.session.Chips(), a.width)
	footer := renderPager(d, a.width) + "\n" + a.renderStatusBar(d)
	if a.showHelp {
		footer = a.help.FullHelpView(keys.FullHelp()) + "\n" + footer
	}

	bodyHeight := a.height - lineCount(header) - lineCount(footer)
	sidebar := renderSidebar(a.session, bodyHeight)
	var body string
	switch {
	case a.typing && len(a.session.Suggestions()) > 0:
		body = renderSuggestions(a.session.Suggestions(), a.sugCursor)
	default:
		body = renderResults(d, a.cursor, a.width-lipgloss.Width(sidebar), bodyHeight)
	}
	return header + "\n" + joinColumns(sidebar, body) + "\n" + footer
}

func (a App) renderQuery() string {
	prompt := QueryPrompt.Render("/ ")
	if a.typing {
		return QueryBar.Width(a.width).Render(prompt + a.input.View())
	}
	q := a.session.State().Query
	if q == "" {
		q = StatusBarText.Render("press / to search")
	}
	return QueryBar.Width(a.width).Render(prompt + q)
}

func (a App) renderStatusBar(d reconcile.Display) string {
	var state string
	switch d.Status {
	case reconcile.StatusLoading:
		state = a.spinner.View() + " searching"
	case reconcile.StatusFailed:
		state = ErrorStyle.Render("service unavailable") + StatusBarKey.Render("r") + StatusBarText.Render(":retry")
	case reconcile.StatusEmpty:
		state = "no results"
	default:
		state = strconv.Itoa(d.Total) + " results"
	}
	return renderStatusBar(state, a.session.Address(), a.help.ShortHelpView(keys.ShortHelp()), a.width)
}

// Session returns the driven session (for testing).
func (a App) Session() *browse.Session {
	return a.session
}

// Cursor returns the current result cursor (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Typing reports whether the query input has focus (for testing).
func (a App) Typing() bool {
	return a.typing
}
