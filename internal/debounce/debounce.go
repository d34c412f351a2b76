// Package debounce coalesces bursts of events on the bubbletea event loop.
//
// A Debouncer is one logical channel. Every Schedule supersedes the action
// scheduled before it; only the last one survives its quiet period. Timing
// runs in tea.Tick and the fired message comes back through Update, so the
// action always executes on the event loop, never on a timer goroutine.
package debounce

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Delay bounds for search input.
const (
	DefaultDelay = 200 * time.Millisecond
	MinDelay     = 150 * time.Millisecond
	MaxDelay     = 300 * time.Millisecond
)

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// Fired is delivered when a scheduled quiet period has elapsed.
// Pass it to Fire on the Debouncer that produced it.
type Fired struct {
	ID  int
	Gen int
}

// Debouncer runs the most recently scheduled action once its delay elapses
// with no further Schedule calls. The zero value is not usable; use New.
//
// A Debouncer is owned by the event loop and is not safe for concurrent use.
type Debouncer struct {
	id       int
	gen      int
	pending  func() tea.Cmd
	disposed bool
}

// New returns a Debouncer with a process-unique id, so Fired messages from
// different channels never collide.
func New() *Debouncer {
	return &Debouncer{id: nextID()}
}

// ID returns the channel id carried by this Debouncer's Fired messages.
func (d *Debouncer) ID() int { return d.id }

// Schedule registers action to run after delay and invalidates any earlier,
// unfired action. The returned command must be handed to the runtime.
// It returns nil once the Debouncer is disposed.
func (d *Debouncer) Schedule(delay time.Duration, action func() tea.Cmd) tea.Cmd {
	if d.disposed {
		return nil
	}
	d.gen++
	d.pending = action
	id, gen := d.id, d.gen
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return Fired{ID: id, Gen: gen}
	})
}

// Owns reports whether msg was produced by this Debouncer.
func (d *Debouncer) Owns(msg Fired) bool {
	return msg.ID == d.id
}

// Fire runs the pending action if msg belongs to the latest Schedule call.
// Superseded, foreign, and post-dispose messages are ignored.
func (d *Debouncer) Fire(msg Fired) tea.Cmd {
	if d.disposed || msg.ID != d.id || msg.Gen != d.gen || d.pending == nil {
		return nil
	}
	action := d.pending
	d.pending = nil
	return action()
}

// Pending reports whether an action is waiting for its quiet period.
func (d *Debouncer) Pending() bool {
	return !d.disposed && d.pending != nil
}

// Cancel drops the pending action without running it.
func (d *Debouncer) Cancel() {
	d.gen++
	d.pending = nil
}

// Dispose cancels the pending action and turns every later call into a no-op.
func (d *Debouncer) Dispose() {
	d.Cancel()
	d.disposed = true
}

// ClampDelay forces a configured delay into [MinDelay, MaxDelay].
// Zero selects DefaultDelay.
func ClampDelay(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultDelay
	case d < MinDelay:
		return MinDelay
	case d > MaxDelay:
		return MaxDelay
	}
	return d
}
