// Package browse is the view engine for one catalog listing.
//
// A Session is an explicit state machine driven by tea.Msg events on a
// single event loop. The address is the source of truth: every filter edit
// rewrites it at once, then travels through a debounce channel before the
// coordinator issues one request for the settled state. Responses are
// admitted only if they answer the latest request.
package browse

import (
	"context"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/catalog/internal/coord"
	"github.com/abelbrown/catalog/internal/debounce"
	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/location"
	"github.com/abelbrown/catalog/internal/logging"
	"github.com/abelbrown/catalog/internal/model"
	"github.com/abelbrown/catalog/internal/otel"
	"github.com/abelbrown/catalog/internal/pagination"
	"github.com/abelbrown/catalog/internal/reconcile"
	"github.com/abelbrown/catalog/internal/store"
)

// Catalog supplies the sidebar and autocomplete data.
type Catalog interface {
	Categories(ctx context.Context) ([]model.Category, error)
	Suggest(ctx context.Context, text string) ([]model.Suggestion, error)
}

// History remembers submitted queries.
type History interface {
	Record(query string, t time.Time) error
	Matching(now time.Time, text string, limit int) ([]store.Search, error)
}

// Navigator is implemented by location stores that keep back/forward history.
type Navigator interface {
	Back() bool
	Forward() bool
}

// Deps are a Session's collaborators. Searcher and Location are required.
type Deps struct {
	Searcher coord.Searcher
	Location location.Store
	Catalog  Catalog       // optional
	History  History       // optional
	Events   *otel.Logger  // optional
	Delay    time.Duration // search quiet period; clamped to 150-300ms
	// Notify delivers external navigation into the event loop, normally
	// tea.Program.Send. It is called from its own goroutine.
	Notify func(tea.Msg)
	Now    func() time.Time
}

// Session owns the filter, address, and result state of one view.
type Session struct {
	deps  Deps
	base  string
	state filter.State
	delay time.Duration

	coord  *coord.Coordinator
	search *debounce.Debouncer
	rec    *reconcile.Reconciler

	suggest     *debounce.Debouncer
	suggestSeq  uint64
	suggestions []model.Suggestion
	categories  []model.Category

	unsubscribe func()
	disposed    bool
}

// New creates a Session. Call Init before feeding it messages.
func New(deps Deps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Session{
		deps:    deps,
		delay:   debounce.ClampDelay(deps.Delay),
		coord:   coord.New(deps.Searcher, deps.Events),
		search:  debounce.New(),
		suggest: debounce.New(),
		rec:     reconcile.New(),
	}
}

// Init decodes the current address, which never fails, rewrites it in
// canonical form, and issues the first request without waiting.
func (s *Session) Init() tea.Cmd {
	current := s.deps.Location.Current()
	s.base, s.state = filter.ParseAddress(current)
	if canon := s.address(); canon != current {
		s.deps.Location.Replace(canon)
	}

	if s.deps.Notify != nil {
		notify := s.deps.Notify
		s.unsubscribe = s.deps.Location.Subscribe(func(addr string) {
			go notify(Navigated{Addr: addr})
		})
	}

	return tea.Batch(s.issue(), s.loadCategories())
}

// Update advances the state machine by one event.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	if s.disposed {
		return nil
	}

	switch msg := msg.(type) {
	case debounce.Fired:
		if s.search.Owns(msg) {
			return s.search.Fire(msg)
		}
		if s.suggest.Owns(msg) {
			return s.suggest.Fire(msg)
		}

	case coord.Response:
		return s.handleResponse(msg)

	case SetCategory:
		return s.change(s.state.WithCategory(msg.ID), false)
	case SetPricing:
		return s.change(s.state.WithPricing(msg.Tier), false)
	case TogglePlatform:
		return s.change(s.state.TogglePlatform(msg.Name), false)
	case SetSort:
		return s.change(s.state.WithSort(msg.Order), false)
	case ClearAll:
		return s.change(s.state.Cleared(), false)

	case TypeQuery:
		return tea.Batch(s.change(s.state.WithQuery(msg.Text), false), s.scheduleSuggestions(msg.Text))
	case SubmitQuery:
		return s.submit(msg.Text)
	case PickSuggestion:
		return s.pick(msg.Suggestion)
	case DismissSuggestions:
		s.clearSuggestions()

	case ChangePage:
		return s.changePage(msg.Page)
	case NextPage:
		return s.changePage(s.state.Page + 1)
	case PrevPage:
		return s.changePage(s.state.Page - 1)

	case Retry:
		if s.rec.Status() == reconcile.StatusFailed {
			s.search.Cancel()
			return s.issue()
		}

	case Back:
		if nav, ok := s.deps.Location.(Navigator); ok && nav.Back() {
			return s.navigated(s.deps.Location.Current())
		}
	case Forward:
		if nav, ok := s.deps.Location.(Navigator); ok && nav.Forward() {
			return s.navigated(s.deps.Location.Current())
		}
	case Navigated:
		// Deliveries may be reordered; the store's current entry is authoritative.
		return s.navigated(s.deps.Location.Current())

	case CategoriesLoaded:
		if msg.Err != nil {
			logging.Warn("categories unavailable", "err", msg.Err)
		}
		s.categories = msg.Items
	case SuggestionsLoaded:
		if msg.Seq == s.suggestSeq {
			s.suggestions = msg.Items
		}

	case Dispose:
		s.dispose()
	}
	return nil
}

// change applies a new filter: address first, request after the quiet period.
func (s *Session) change(next filter.State, push bool) tea.Cmd {
	next = filter.Normalize(next)
	if next.Equal(s.state) {
		return nil
	}
	s.state = next

	addr := s.address()
	kind := otel.KindAddressReplace
	if push {
		s.deps.Location.Push(addr)
		kind = otel.KindAddressPush
	} else {
		s.deps.Location.Replace(addr)
	}
	s.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFilterChange, Addr: addr, Page: next.Page, Query: next.Query})
	s.emit(otel.Event{Level: otel.LevelDebug, Kind: kind, Addr: addr})

	return s.search.Schedule(s.delay, s.issue)
}

// issue sends the current state to the coordinator.
func (s *Session) issue() tea.Cmd {
	s.rec.Begin(s.state)
	return s.coord.Apply(s.state)
}

func (s *Session) handleResponse(r coord.Response) tea.Cmd {
	out, ok := s.coord.Accept(r)
	if !ok {
		return nil
	}

	if out.Class == coord.ServiceUnavailable {
		logging.Warn("search failed", "seq", out.Seq, "err", out.Err)
	}

	corr, needed := s.rec.Apply(out)
	if !needed || !out.State.Equal(s.state) {
		return nil
	}

	// The service has fewer pages than the address asked for.
	s.state = s.state.WithPage(corr.To)
	addr := s.address()
	s.deps.Location.Replace(addr)
	ev := otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchClamp, Seq: out.Seq, Page: corr.To, Addr: addr}
	if !out.OK() {
		// Degraded to "no results"; asking again would only repeat the refusal.
		ev.Class = out.Class.String()
		s.emit(ev)
		return nil
	}
	s.emit(ev)
	return s.issue()
}

func (s *Session) changePage(n int) tea.Cmd {
	last := s.rec.Display().TotalPages()
	if !pagination.InRange(n, last) || n == s.state.Page {
		return nil
	}
	return s.change(s.state.WithPage(n), true)
}

func (s *Session) submit(text string) tea.Cmd {
	s.clearSuggestions()
	next := filter.Normalize(s.state.WithQuery(text))

	var record tea.Cmd
	if q := next.Query; q != "" && s.deps.History != nil {
		hist, now, events := s.deps.History, s.deps.Now(), s.deps.Events
		record = func() tea.Msg {
			if err := hist.Record(q, now); err != nil {
				logging.Warn("record search failed", "err", err)
				if events != nil {
					events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindStoreError, Comp: "browse", Query: q, Err: err.Error()})
				}
			}
			return nil
		}
	}

	if !next.Equal(s.state) {
		s.state = next
		s.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFilterChange, Addr: s.address(), Query: next.Query})
	}
	addr := s.address()
	s.deps.Location.Push(addr)
	s.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindAddressPush, Addr: addr})

	s.search.Cancel()
	return tea.Batch(s.issue(), record)
}

func (s *Session) pick(sg model.Suggestion) tea.Cmd {
	s.clearSuggestions()
	if sg.Kind == model.SuggestCategory && sg.CategoryID > 0 {
		return s.change(s.state.WithQuery("").WithCategory(sg.CategoryID), false)
	}
	return s.submit(sg.Text)
}

// navigated re-synchronizes with an address written by someone else.
func (s *Session) navigated(addr string) tea.Cmd {
	base, next := filter.ParseAddress(addr)
	if base == s.base && next.Equal(s.state) {
		return nil
	}
	s.base, s.state = base, next
	s.clearSuggestions()
	s.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindNavExternal, Addr: addr})
	return s.search.Schedule(s.delay, s.issue)
}

func (s *Session) dispose() {
	s.disposed = true
	s.search.Dispose()
	s.suggest.Dispose()
	s.coord.Dispose()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindViewDispose, Addr: s.address()})
}

func (s *Session) loadCategories() tea.Cmd {
	if s.deps.Catalog == nil {
		return nil
	}
	cat, events := s.deps.Catalog, s.deps.Events
	return func() tea.Msg {
		start := time.Now()
		items, err := cat.Categories(context.Background())
		if events != nil {
			e := otel.Event{Level: otel.LevelDebug, Kind: otel.KindCategories, Comp: "browse", Count: len(items), Dur: time.Since(start)}
			if err != nil {
				e.Level, e.Err = otel.LevelWarn, err.Error()
			}
			events.Emit(e)
		}
		return CategoriesLoaded{Items: items, Err: err}
	}
}

func (s *Session) emit(e otel.Event) {
	if s.deps.Events == nil {
		return
	}
	e.Comp = "browse"
	s.deps.Events.Emit(e)
}

func (s *Session) address() string {
	return filter.Address(s.base, s.state)
}

// State returns the current filter.
func (s *Session) State() filter.State { return s.state }

// Address returns the address the session last wrote.
func (s *Session) Address() string { return s.address() }

// Base returns the address path without the query.
func (s *Session) Base() string { return s.base }

// Display returns the result area snapshot.
func (s *Session) Display() reconcile.Display { return s.rec.Display() }

// Categories returns the sidebar categories, possibly empty.
func (s *Session) Categories() []model.Category { return s.categories }

// CategoryName returns the name for id, or "" when unknown.
func (s *Session) CategoryName(id int) string {
	for _, c := range s.categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// Suggestions returns the autocomplete rows for the current input.
func (s *Session) Suggestions() []model.Suggestion { return s.suggestions }

// Phase returns the coordinator phase.
func (s *Session) Phase() coord.Phase { return s.coord.Phase() }

// Disposed reports whether the session has been torn down.
func (s *Session) Disposed() bool { return s.disposed }

// Delay returns the search quiet period in use.
func (s *Session) Delay() time.Duration { return s.delay }

// Chips returns labels for the active filters, in display order.
func (s *Session) Chips() []string {
	var out []string
	if id := s.state.CategoryID; id > 0 {
		name := s.CategoryName(id)
		if name == "" {
			name = "category " + strconv.Itoa(id)
		}
		out = append(out, name)
	}
	if s.state.Pricing != "" {
		out = append(out, string(s.state.Pricing))
	}
	out = append(out, s.state.Platforms...)
	if s.state.Query != "" {
		out = append(out, `"`+strings.TrimSpace(s.state.Query)+`"`)
	}
	return out
}
