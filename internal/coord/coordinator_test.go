package coord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/model"
	"github.com/abelbrown/catalog/internal/otel"
	"github.com/abelbrown/catalog/internal/search"
)

// mockSearcher implements Searcher for testing.
type mockSearcher struct {
	mu          sync.Mutex
	requests    []filter.State
	returnSet   model.ResultSet
	returnErr   error
	searchDelay time.Duration
	searchCount atomic.Int32
	sawCancel   atomic.Int32
}

func (m *mockSearcher) Search(ctx context.Context, s filter.State) (model.ResultSet, error) {
	m.searchCount.Add(1)

	if m.searchDelay > 0 {
		select {
		case <-ctx.Done():
			m.sawCancel.Add(1)
			return model.ResultSet{}, ctx.Err()
		case <-time.After(m.searchDelay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, s)
	rs := m.returnSet
	rs.Page, rs.PageSize = s.Page, s.PageSize
	return rs, m.returnErr
}

func (m *mockSearcher) getRequests() []filter.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]filter.State, len(m.requests))
	copy(result, m.requests)
	return result
}

// run executes a command the way the bubbletea runtime would.
func run(t *testing.T, cmd tea.Cmd) Response {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	resp, ok := cmd().(Response)
	if !ok {
		t.Fatalf("expected Response message")
	}
	return resp
}

func TestApplyIssuesSearch(t *testing.T) {
	mock := &mockSearcher{returnSet: model.ResultSet{Total: 3, Items: make([]model.Entry, 3)}}
	c := New(mock, nil)

	s := filter.Default().WithCategory(3)
	cmd := c.Apply(s)
	if c.Phase() != Pending {
		t.Errorf("phase = %v, want pending", c.Phase())
	}

	resp := run(t, cmd)
	if resp.Seq != 1 {
		t.Errorf("seq = %d, want 1", resp.Seq)
	}

	out, ok := c.Accept(resp)
	if !ok {
		t.Fatal("latest response was rejected")
	}
	if !out.OK() || out.Result.Total != 3 {
		t.Errorf("unexpected outcome: %+v", out)
	}
	if c.Phase() != Idle {
		t.Errorf("phase = %v, want idle", c.Phase())
	}
	if got := mock.getRequests(); len(got) != 1 || got[0].CategoryID != 3 {
		t.Errorf("requests = %+v", got)
	}
}

func TestApplyCancelsPrevious(t *testing.T) {
	mock := &mockSearcher{searchDelay: 5 * time.Second}
	c := New(mock, nil)

	first := c.Apply(filter.Default().WithQuery("a"))
	firstHandle := c.Live()
	_ = c.Apply(filter.Default().WithQuery("ab"))

	// The first command's context is already cancelled, so it returns at once.
	done := make(chan Response, 1)
	go func() { done <- first().(Response) }()

	select {
	case resp := <-done:
		if !errors.Is(resp.Err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", resp.Err)
		}
		if _, ok := c.Accept(resp); ok {
			t.Error("superseded response must be dropped")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("superseded request was not cancelled")
	}

	if firstHandle.Seq != 1 || c.Live().Seq != 2 {
		t.Errorf("handles: first=%d live=%d", firstHandle.Seq, c.Live().Seq)
	}
	if c.Phase() != Pending {
		t.Errorf("phase = %v, want pending", c.Phase())
	}
}

func TestOutOfOrderResponses(t *testing.T) {
	// Cancellation is advisory: here the transport ignores it and the older
	// request finishes last. Only the newer answer may be shown.
	mock := &mockSearcher{}
	c := New(mock, nil)

	cmdA := c.Apply(filter.Default().WithQuery("a"))
	cmdB := c.Apply(filter.Default().WithQuery("ab"))

	respB := run(t, cmdB)
	respA := run(t, cmdA)
	respA.Err = nil // pretend A completed despite cancellation

	outB, okB := c.Accept(respB)
	_, okA := c.Accept(respA)

	if !okB || outB.State.Query != "ab" {
		t.Errorf("newest response rejected: ok=%v out=%+v", okB, outB)
	}
	if okA {
		t.Error("older response accepted after newer one")
	}
}

func TestStaleArrivingBeforeLatest(t *testing.T) {
	mock := &mockSearcher{}
	c := New(mock, nil)

	cmdA := c.Apply(filter.Default().WithQuery("a"))
	cmdB := c.Apply(filter.Default().WithQuery("ab"))

	respA := run(t, cmdA)
	respA.Err = nil
	if _, ok := c.Accept(respA); ok {
		t.Error("stale response accepted")
	}
	if c.Phase() != Pending {
		t.Errorf("stale response changed phase to %v", c.Phase())
	}

	if _, ok := c.Accept(run(t, cmdB)); !ok {
		t.Error("latest response rejected")
	}
}

func TestAcceptTwiceRejectsDuplicate(t *testing.T) {
	c := New(&mockSearcher{}, nil)
	cmd := c.Apply(filter.Default())
	resp := run(t, cmd)

	if _, ok := c.Accept(resp); !ok {
		t.Fatal("first accept failed")
	}
	if _, ok := c.Accept(resp); ok {
		t.Error("duplicate delivery accepted")
	}
}

func TestDispose(t *testing.T) {
	mock := &mockSearcher{searchDelay: 5 * time.Second}
	c := New(mock, nil)

	cmd := c.Apply(filter.Default())
	c.Dispose()

	if c.Phase() != Disposed {
		t.Errorf("phase = %v, want disposed", c.Phase())
	}

	resp := run(t, cmd)
	if _, ok := c.Accept(resp); ok {
		t.Error("response accepted after dispose")
	}
	if mock.sawCancel.Load() != 1 {
		t.Error("dispose did not cancel the outstanding request")
	}
	if c.Apply(filter.Default()) != nil {
		t.Error("Apply after dispose must return nil")
	}

	c.Dispose() // idempotent
}

func TestNewWithContextParentCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &mockSearcher{searchDelay: 5 * time.Second}
	c := NewWithContext(ctx, mock, nil)

	cmd := c.Apply(filter.Default())
	cancel()

	resp := run(t, cmd)
	out, ok := c.Accept(resp)
	if !ok {
		t.Fatal("latest response rejected")
	}
	if out.Class != Cancelled {
		t.Errorf("class = %v, want cancelled", out.Class)
	}
}

func TestCancelledOutcomeIsNotLoggedAsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	events := otel.NewLogger(&buf)
	c := NewWithContext(ctx, &mockSearcher{searchDelay: 5 * time.Second}, events)

	cmd := c.Apply(filter.Default())
	cancel()
	if _, ok := c.Accept(run(t, cmd)); !ok {
		t.Fatal("latest response rejected")
	}
	events.Close()

	out := buf.String()
	if strings.Contains(out, `"kind":"search.error"`) {
		t.Errorf("cancelled search logged as an error:\n%s", out)
	}
	if !strings.Contains(out, `"level":"debug","kind":"search.cancel","comp":"coord"`) {
		t.Errorf("missing debug search.cancel:\n%s", out)
	}
}

func TestAcceptClassifiesFailures(t *testing.T) {
	tests := []struct {
		err  error
		want Class
	}{
		{&search.StatusError{Code: http.StatusTooManyRequests}, RateLimited},
		{&search.StatusError{Code: http.StatusBadRequest}, ClientRejected},
		{&search.StatusError{Code: http.StatusServiceUnavailable}, ServiceUnavailable},
		{fmt.Errorf("parse: %w", search.ErrMalformed), ServiceUnavailable},
	}
	for _, tt := range tests {
		c := New(&mockSearcher{returnErr: tt.err}, nil)
		cmd := c.Apply(filter.Default())
		out, ok := c.Accept(run(t, cmd))
		if !ok {
			t.Fatalf("%v: rejected", tt.err)
		}
		if out.Class != tt.want {
			t.Errorf("%v: class = %v, want %v", tt.err, out.Class, tt.want)
		}
	}
}

func TestMetrics(t *testing.T) {
	issued := testutil.ToFloat64(issuedTotal)
	superseded := testutil.ToFloat64(supersededTotal)
	stale := testutil.ToFloat64(staleTotal)
	ok := testutil.ToFloat64(outcomeTotal.WithLabelValues("ok"))

	c := New(&mockSearcher{}, nil)
	cmdA := c.Apply(filter.Default())
	cmdB := c.Apply(filter.Default().WithPage(2))
	c.Accept(run(t, cmdA))
	c.Accept(run(t, cmdB))

	if d := testutil.ToFloat64(issuedTotal) - issued; d != 2 {
		t.Errorf("issued delta = %v, want 2", d)
	}
	if d := testutil.ToFloat64(supersededTotal) - superseded; d != 1 {
		t.Errorf("superseded delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(staleTotal) - stale; d != 1 {
		t.Errorf("stale delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(outcomeTotal.WithLabelValues("ok")) - ok; d != 1 {
		t.Errorf("ok delta = %v, want 1", d)
	}
}

func TestEventsCorrelateBySeq(t *testing.T) {
	var buf bytes.Buffer
	events := otel.NewLogger(&buf)
	c := New(&mockSearcher{}, events)

	cmdA := c.Apply(filter.Default())
	cmdB := c.Apply(filter.Default().WithPage(2))
	c.Accept(run(t, cmdA))
	c.Accept(run(t, cmdB))
	events.Close()

	out := buf.String()
	for _, want := range []string{
		`"kind":"search.start","comp":"coord"`,
		`"kind":"search.cancel","comp":"coord"`,
		`"kind":"search.stale","comp":"coord"`,
		`"kind":"search.complete","comp":"coord"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in:\n%s", want, out)
		}
	}
	if !strings.Contains(out, `"seq":2`) {
		t.Errorf("events not tagged with seq:\n%s", out)
	}
}
