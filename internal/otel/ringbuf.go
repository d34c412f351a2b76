package otel

import "sync"

// DefaultRingSize holds roughly the last few hundred searches.
const DefaultRingSize = 1024

// RingBuffer keeps the most recent events in memory for the debug overlay.
// It is safe for concurrent use.
type RingBuffer struct {
	mu     sync.Mutex
	events []Event // oldest at start once full
	start  int
	max    int
	seq    uint64 // highest request seq pushed
}

// NewRingBuffer returns a ring holding up to size events. A size of zero
// or less selects DefaultRingSize.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{events: make([]Event, 0, size), max: size}
}

// Push appends e, evicting the oldest event when full.
func (r *RingBuffer) Push(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.Seq > r.seq {
		r.seq = e.Seq
	}
	if len(r.events) < r.max {
		r.events = append(r.events, e)
		return
	}
	r.events[r.start] = e
	r.start = (r.start + 1) % r.max
}

// ordered copies the buffered events oldest first. Callers hold mu.
func (r *RingBuffer) ordered() []Event {
	out := make([]Event, 0, len(r.events))
	out = append(out, r.events[r.start:]...)
	return append(out, r.events[:r.start]...)
}

// Last returns up to n of the newest events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || len(r.events) == 0 {
		return nil
	}
	all := r.ordered()
	if n < len(all) {
		all = all[len(all)-n:]
	}
	return all
}

// BySeq returns the buffered events of request seq, oldest first: its start,
// any cancel or stale drop, and how it completed.
func (r *RingBuffer) BySeq(seq uint64) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, e := range r.ordered() {
		if e.Seq == seq {
			out = append(out, e)
		}
	}
	return out
}

// LatestSeq returns the newest request sequence number seen, or 0.
func (r *RingBuffer) LatestSeq() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Stats counts the buffered events by kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[EventKind]int)
	for _, e := range r.events {
		counts[e.Kind]++
	}
	return counts
}

// Len returns how many events are buffered.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Cap returns the ring's capacity.
func (r *RingBuffer) Cap() int { return r.max }
