// Package coord issues search requests on behalf of one browsing view.
//
// A Coordinator keeps at most one request outstanding. Every Apply cancels
// the previous request and mints a higher sequence number; Accept lets a
// response through only if it carries the latest number. Cancellation is
// advisory: a cancelled request may still complete, and the sequence check
// is what keeps its result off the screen.
package coord

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/model"
	"github.com/abelbrown/catalog/internal/otel"
)

// Searcher runs one search against the remote service.
type Searcher interface {
	Search(ctx context.Context, s filter.State) (model.ResultSet, error)
}

// Phase is the coordinator lifecycle state.
type Phase int

const (
	Idle Phase = iota
	Pending
	Disposed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Disposed:
		return "disposed"
	}
	return "unknown"
}

// Handle identifies one issued request and can cancel it.
type Handle struct {
	Seq     uint64
	State   filter.State
	started time.Time
	cancel  context.CancelFunc
}

// Cancel asks the transport to abandon the request. Safe to call twice.
func (h *Handle) Cancel() {
	if h != nil && h.cancel != nil {
		h.cancel()
	}
}

// Response is the message a search command delivers back to the event loop.
type Response struct {
	Seq    uint64
	State  filter.State
	Result model.ResultSet
	Err    error
	Dur    time.Duration
}

// Outcome is an accepted Response with its failure class resolved.
type Outcome struct {
	Seq    uint64
	State  filter.State
	Result model.ResultSet
	Class  Class
	Err    error
}

// OK reports whether the request succeeded.
func (o Outcome) OK() bool { return o.Class == ClassNone }

// Coordinator sequences search requests. It is owned by the event loop and
// is not safe for concurrent use; the commands it returns run elsewhere but
// touch none of its fields.
type Coordinator struct {
	searcher Searcher
	events   *otel.Logger // optional
	base     context.Context
	seq      uint64
	live     *Handle
	phase    Phase
}

// New creates a Coordinator. events may be nil.
func New(s Searcher, events *otel.Logger) *Coordinator {
	return NewWithContext(context.Background(), s, events)
}

// NewWithContext creates a Coordinator whose requests are children of ctx.
func NewWithContext(ctx context.Context, s Searcher, events *otel.Logger) *Coordinator {
	return &Coordinator{searcher: s, events: events, base: ctx}
}

// Phase returns the lifecycle state.
func (c *Coordinator) Phase() Phase { return c.phase }

// Seq returns the latest minted sequence number (0 before the first Apply).
func (c *Coordinator) Seq() uint64 { return c.seq }

// Live returns the outstanding request handle, or nil.
func (c *Coordinator) Live() *Handle { return c.live }

// Apply supersedes any outstanding request and returns the command that
// performs a search for s. It returns nil once disposed.
func (c *Coordinator) Apply(s filter.State) tea.Cmd {
	if c.phase == Disposed {
		return nil
	}

	if c.live != nil {
		c.live.Cancel()
		supersededTotal.Inc()
		c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchCancel, Seq: c.live.Seq})
	}

	c.seq++
	ctx, cancel := context.WithCancel(c.base)
	h := &Handle{Seq: c.seq, State: s, started: time.Now(), cancel: cancel}
	c.live = h
	c.phase = Pending
	issuedTotal.Inc()

	c.emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindSearchStart,
		Seq:   h.Seq,
		Addr:  filter.Encode(s),
		Page:  s.Page,
		Query: s.Query,
	})

	searcher := c.searcher
	return func() tea.Msg {
		start := time.Now()
		rs, err := searcher.Search(ctx, s)
		return Response{Seq: h.Seq, State: s, Result: rs, Err: err, Dur: time.Since(start)}
	}
}

// Accept decides whether r may reach the screen. Responses from superseded
// requests, and anything arriving after Dispose, are dropped.
func (c *Coordinator) Accept(r Response) (Outcome, bool) {
	if c.phase == Disposed || c.live == nil || r.Seq != c.live.Seq {
		staleTotal.Inc()
		c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchStale, Seq: r.Seq})
		return Outcome{}, false
	}

	h := c.live
	h.Cancel()
	c.live = nil
	c.phase = Idle

	class := Classify(r.Err)
	outcomeTotal.WithLabelValues(class.String()).Inc()
	latency.Observe(time.Since(h.started).Seconds())

	switch class {
	case ClassNone:
		c.emit(otel.Event{
			Level: otel.LevelInfo,
			Kind:  otel.KindSearchComplete,
			Seq:   r.Seq,
			Dur:   r.Dur,
			Count: len(r.Result.Items),
			Total: r.Result.Total,
			Page:  r.State.Page,
		})
	case Cancelled:
		// A cancelled search is not a failure.
		c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchCancel, Seq: r.Seq, Dur: r.Dur})
	default:
		c.emit(otel.Event{
			Level: otel.LevelWarn,
			Kind:  otel.KindSearchError,
			Seq:   r.Seq,
			Dur:   r.Dur,
			Class: class.String(),
			Err:   errString(r.Err),
		})
	}

	return Outcome{Seq: r.Seq, State: r.State, Result: r.Result, Class: class, Err: r.Err}, true
}

// Dispose cancels the outstanding request and makes the coordinator inert.
func (c *Coordinator) Dispose() {
	if c.phase == Disposed {
		return
	}
	if c.live != nil {
		c.live.Cancel()
		c.live = nil
	}
	c.phase = Disposed
}

func (c *Coordinator) emit(e otel.Event) {
	if c.events == nil {
		return
	}
	e.Comp = "coord"
	c.events.Emit(e)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
