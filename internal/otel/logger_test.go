package otel

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestEmitWritesRequestLifecycle(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Emit(Event{Level: LevelInfo, Kind: KindSearchStart, Comp: "coord", Seq: 7, Page: 2, Addr: "/en/tool?page=2"})
	l.Emit(Event{Level: LevelInfo, Kind: KindSearchComplete, Comp: "coord", Seq: 7, Total: 40, Dur: 12500 * time.Microsecond})
	l.Close()

	lines := decodeLines(t, buf.Bytes())
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	start, done := lines[0], lines[1]
	if start["kind"] != "search.start" || start["addr"] != "/en/tool?page=2" || start["page"] != float64(2) {
		t.Errorf("start = %v", start)
	}
	if done["kind"] != "search.complete" || done["total"] != float64(40) || done["dur_ms"] != 12.5 {
		t.Errorf("complete = %v", done)
	}
	if start["seq"] != float64(7) || done["seq"] != float64(7) {
		t.Errorf("events not correlated by seq: %v / %v", start["seq"], done["seq"])
	}
	if start["session_id"] == "" || start["session_id"] != done["session_id"] {
		t.Errorf("session ids = %v / %v", start["session_id"], done["session_id"])
	}
	if _, ok := start["t"]; !ok {
		t.Error("time not stamped")
	}
}

func TestEmitOmitsUnsetFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindFilterChange, Comp: "browse", Addr: "/en/tool"})
	l.Close()

	line := buf.String()
	for _, absent := range []string{`"seq"`, `"total"`, `"class"`, `"dur_ms"`, `"err"`} {
		if strings.Contains(line, absent) {
			t.Errorf("%s should be omitted: %s", absent, line)
		}
	}
}

func TestEmitMirrorsIntoRing(t *testing.T) {
	l := NewNullLogger()
	ring := NewRingBuffer(16)
	l.SetRingBuffer(ring)

	l.Emit(Event{Kind: KindSearchStart, Seq: 1})
	l.Emit(Event{Kind: KindSearchStart, Seq: 2})
	l.Emit(Event{Kind: KindSearchStale, Seq: 1})
	l.Emit(Event{Kind: KindSearchError, Seq: 2, Class: "rate_limited"})
	l.Close()

	if got := ring.LatestSeq(); got != 2 {
		t.Errorf("LatestSeq = %d, want 2", got)
	}
	trail := ring.BySeq(2)
	if len(trail) != 2 || trail[1].Class != "rate_limited" {
		t.Fatalf("trail for #2 = %+v", trail)
	}
	if trail[0].SessionID != l.SessionID() {
		t.Errorf("ring copy missing session id")
	}
}

func TestEmitAfterCloseIsLost(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Close()
	l.Close()

	l.Emit(Event{Kind: KindSearchStart, Seq: 1})

	if buf.Len() != 0 {
		t.Errorf("wrote after close: %q", buf.String())
	}
	if got := l.lost.Load(); got != 1 {
		t.Errorf("lost = %d, want 1", got)
	}
}

func TestEmitRacingClose(t *testing.T) {
	l := NewNullLogger()
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				l.Emit(Event{Kind: KindSearchStart, Seq: uint64(g*1000 + i)})
			}
		}(g)
	}
	l.Close()
	wg.Wait()
}

// stallWriter blocks its first Write until released.
type stallWriter struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (w *stallWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.entered)
		<-w.release
	})
	return len(p), nil
}

func TestFullQueueDropsInsteadOfBlocking(t *testing.T) {
	w := &stallWriter{entered: make(chan struct{}), release: make(chan struct{})}
	l := NewLogger(w)

	l.Emit(Event{Kind: KindSearchStart, Seq: 1})
	<-w.entered

	for i := 0; i < queueSize+3; i++ {
		l.Emit(Event{Kind: KindSearchStart, Seq: uint64(i + 2)})
	}
	if got := l.lost.Load(); got != 3 {
		t.Errorf("lost = %d, want 3", got)
	}

	close(w.release)
	l.Close()
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteFailureCountsLost(t *testing.T) {
	l := NewLogger(failWriter{})
	l.Emit(Event{Kind: KindSearchStart, Seq: 1})
	l.Emit(Event{Kind: KindSearchComplete, Seq: 1})
	l.Close()

	if got := l.lost.Load(); got != 2 {
		t.Errorf("lost = %d, want 2", got)
	}
}

func TestErrorNilSafe(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Error(KindStoreError, "main", errors.New("database is locked"))
	l.Error(KindStoreError, "main", nil)
	l.Close()

	lines := decodeLines(t, buf.Bytes())
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0]["level"] != "error" || lines[0]["err"] != "database is locked" {
		t.Errorf("first = %v", lines[0])
	}
	if _, ok := lines[1]["err"]; ok {
		t.Errorf("nil error should leave err empty: %v", lines[1])
	}
}

type tickMsg struct{}

func TestTraceRespectsToggle(t *testing.T) {
	defer setTraceEnabled(TraceEnabled())

	var buf bytes.Buffer
	l := NewLogger(&buf)

	setTraceEnabled(false)
	l.Trace(KindMsgReceived, "ui", tickMsg{})
	setTraceEnabled(true)
	l.Trace(KindMsgReceived, "ui", tickMsg{})
	l.Close()

	lines := decodeLines(t, buf.Bytes())
	if len(lines) != 1 {
		t.Fatalf("got %d trace lines, want 1", len(lines))
	}
	if lines[0]["msg"] != "otel.tickMsg" || lines[0]["level"] != "debug" {
		t.Errorf("trace = %v", lines[0])
	}
}

func TestSessionIDsDiffer(t *testing.T) {
	a, b := NewNullLogger(), NewNullLogger()
	defer a.Close()
	defer b.Close()

	if len(a.SessionID()) != 16 {
		t.Errorf("session id %q, want 16 hex chars", a.SessionID())
	}
	if a.SessionID() == b.SessionID() {
		t.Error("two runs share a session id")
	}
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")

	for seq := uint64(1); seq <= 2; seq++ {
		l, err := Open(path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		l.Emit(Event{Kind: KindSearchStart, Seq: seq})
		l.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := decodeLines(t, data)
	if len(lines) != 2 || lines[1]["seq"] != float64(2) {
		t.Errorf("lines = %v", lines)
	}
	if lines[0]["session_id"] == lines[1]["session_id"] {
		t.Error("each Open is a separate session")
	}
}
