package otel

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// queueSize bounds how many events may wait for the writer. A search burst
// emits a handful per keystroke, so this only fills if the disk stalls.
const queueSize = 2048

// Logger records catalog events as JSONL. Emit never blocks the event loop:
// events are queued and a single writer goroutine encodes them, feeds the
// attached ring and appends them to the log.
type Logger struct {
	session string
	queue   chan Event
	enc     *json.Encoder
	file    io.Closer // owned when created by Open

	ringMu sync.Mutex
	ring   *RingBuffer

	lost     atomic.Uint64
	stopping atomic.Bool
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewLogger starts a Logger writing to w. Close must be called to flush.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		session: newSessionID(),
		queue:   make(chan Event, queueSize),
		enc:     json.NewEncoder(w),
		stopped: make(chan struct{}),
	}
	go l.write()
	return l
}

// Open appends events to the log file at path, creating the file and its
// directory when missing.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create event log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	l := NewLogger(f)
	l.file = f
	return l, nil
}

// NewNullLogger returns a Logger that keeps feeding its ring but writes
// nowhere.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func newSessionID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func (l *Logger) write() {
	defer close(l.stopped)
	for e := range l.queue {
		l.ringMu.Lock()
		ring := l.ring
		l.ringMu.Unlock()
		if ring != nil {
			ring.Push(e)
		}
		// Encoder appends the newline.
		if err := l.enc.Encode(e); err != nil {
			l.lost.Add(1)
		}
	}
}

// Emit queues e, stamping the time and session. An event that arrives after
// Close, or while the queue is full, is counted as lost.
func (l *Logger) Emit(e Event) {
	if l.stopping.Load() {
		l.lost.Add(1)
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.session

	// Close may win the race between the check above and the send.
	defer func() {
		if recover() != nil {
			l.lost.Add(1)
		}
	}()
	select {
	case l.queue <- e:
	default:
		l.lost.Add(1)
	}
}

// Error records err at error level.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	e := Event{Level: LevelError, Kind: kind, Comp: comp}
	if err != nil {
		e.Err = err.Error()
	}
	l.Emit(e)
}

// Trace records the dynamic type of msg when CATALOG_TRACE is set.
func (l *Logger) Trace(kind EventKind, comp string, msg any) {
	if !TraceEnabled() {
		return
	}
	l.Emit(Event{Level: LevelDebug, Kind: kind, Comp: comp, Msg: fmt.Sprintf("%T", msg)})
}

// SessionID identifies this run in the event log; `catalog events
// --session` filters on it.
func (l *Logger) SessionID() string {
	return l.session
}

// SetRingBuffer mirrors every later event into ring.
func (l *Logger) SetRingBuffer(ring *RingBuffer) {
	l.ringMu.Lock()
	l.ring = ring
	l.ringMu.Unlock()
}

// Close drains the queue, closes a file opened by Open and reports lost
// events on stderr. Further Emits are counted as lost.
func (l *Logger) Close() {
	l.stopOnce.Do(func() {
		l.stopping.Store(true)
		close(l.queue)
		<-l.stopped
		if l.file != nil {
			_ = l.file.Close()
		}
		if n := l.lost.Load(); n > 0 {
			fmt.Fprintf(os.Stderr, "catalog: %d events lost in session %s\n", n, l.session)
		}
	})
}
