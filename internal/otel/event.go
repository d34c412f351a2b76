// Package otel provides structured observability for the catalog client.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer provides live in-memory inspection for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Search events
	KindSearchStart    EventKind = "search.start"
	KindSearchComplete EventKind = "search.complete"
	KindSearchCancel   EventKind = "search.cancel"
	KindSearchStale    EventKind = "search.stale"
	KindSearchError    EventKind = "search.error"
	KindSearchClamp    EventKind = "search.clamp"
	KindSuggest        EventKind = "search.suggest"
	KindCategories     EventKind = "search.categories"

	// Filter and address events
	KindFilterChange   EventKind = "filter.change"
	KindAddressReplace EventKind = "address.replace"
	KindAddressPush    EventKind = "address.push"
	KindNavExternal    EventKind = "nav.external"

	// Store events
	KindStoreError EventKind = "store.error"

	// View events
	KindKeyPress    EventKind = "ui.key"
	KindViewDispose EventKind = "view.dispose"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace events
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time     `json:"t"`
	Level     Level         `json:"level,omitempty"`
	Kind      EventKind     `json:"kind"`
	Comp      string        `json:"comp,omitempty"`       // component: "coord", "browse", "ui", "main"
	SessionID string        `json:"session_id,omitempty"` // random hex, same for entire app run
	Seq       uint64        `json:"seq,omitempty"`        // request sequence number
	Dur       time.Duration `json:"-"`                    // not serialized directly
	DurMs     float64       `json:"dur_ms,omitempty"`     // computed from Dur at marshal time
	Count     int           `json:"count,omitempty"`
	Total     int           `json:"total,omitempty"`
	Page      int           `json:"page,omitempty"`
	Addr      string        `json:"addr,omitempty"` // view address
	Query     string        `json:"query,omitempty"`
	Class     string        `json:"class,omitempty"` // failure class
	Err       string        `json:"err,omitempty"`
	Msg       string        `json:"msg,omitempty"` // free text
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
