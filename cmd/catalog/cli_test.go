package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/catalog/internal/store"
)

// isolate points every state file at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CATALOG_CONFIG", filepath.Join(home, "config.json"))
	t.Setenv("CATALOG_API_URL", "")
	t.Setenv("CATALOG_HISTORY_DB", filepath.Join(home, "history.db"))
	t.Setenv("CATALOG_EVENT_LOG", filepath.Join(home, "events.jsonl"))
	return home
}

// run executes the CLI with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newCLIApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"catalog"}, args...))
	return out.String(), err
}

// catalogServer fakes the search service.
func catalogServer(t *testing.T, seen *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			if seen != nil {
				*seen = append(*seen, r.URL.RawQuery)
			}
			w.Write([]byte(`{"items":[{"id":1,"name":"Quill","pricing_model":"free","platforms":["Web"],"category":{"id":3}}],"total":40}`))
		case "/categories":
			w.Write([]byte(`[{"id":3,"name":"Writing"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestURLEncode(t *testing.T) {
	isolate(t)

	out, err := run(t, "url", "encode", "--base", "/en/tool", "--pricing", "free", "--category", "3")
	require.NoError(t, err)
	assert.Equal(t, "/en/tool?category_id=3&pricing_model=free\n", out)
}

func TestURLEncodeUsesConfiguredBase(t *testing.T) {
	isolate(t)

	out, err := run(t, "--lang", "ru", "url", "encode", "--sort", "popular")
	require.NoError(t, err)
	assert.Equal(t, "/ru/tool?sort=popular\n", out)
}

func TestURLDecodeIsLenient(t *testing.T) {
	isolate(t)

	out, err := run(t, "url", "decode", "/en/tool?page=abc&pricing_model=bogus&q=ai")
	require.NoError(t, err)

	var got decodedAddress
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "/en/tool", got.Base)
	assert.Equal(t, "ai", got.State.Query)
	assert.Equal(t, 1, got.State.Page)
	assert.Empty(t, got.State.Pricing)
	assert.Equal(t, "/en/tool?q=ai", got.Canonical)
	assert.Equal(t, "limit=12&page=1&q=ai&sort=newest", got.Request)
}

func TestURLDecodeNeedsAddress(t *testing.T) {
	isolate(t)

	_, err := run(t, "url", "decode")
	require.Error(t, err)
}

func TestSearchJSON(t *testing.T) {
	isolate(t)
	var seen []string
	srv := catalogServer(t, &seen)

	out, err := run(t, "--api-url", srv.URL, "search", "--json", "--pricing", "free", "--page", "2", "note", "taking")
	require.NoError(t, err)

	var got searchResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 40, got.Total)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 4, got.TotalPages)
	assert.Equal(t, []int{1, 2, 3, 4}, got.Pages)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Quill", got.Items[0].Name)
	assert.Equal(t, "/en/tool?page=2&pricing_model=free&q=note+taking", got.Address)

	require.Len(t, seen, 1)
	assert.Equal(t, "limit=12&page=2&pricing_model=free&q=note+taking&sort=newest", seen[0])
}

func TestSearchTable(t *testing.T) {
	isolate(t)
	srv := catalogServer(t, nil)

	out, err := run(t, "--api-url", srv.URL, "search")
	require.NoError(t, err)
	assert.Contains(t, out, "Quill")
	assert.Contains(t, out, "Writing", "category names come from /categories")
	assert.Contains(t, out, "40 results, page 1 of 4  [1] 2 3 4")
}

func TestSearchPastLastPageClamps(t *testing.T) {
	isolate(t)
	var seen []string
	srv := catalogServer(t, &seen)

	out, err := run(t, "--api-url", srv.URL, "search", "--json", "--page", "9")
	require.NoError(t, err)

	var got searchResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 4, got.Page)
	assert.Equal(t, "/en/tool?page=4", got.Address)
	require.Len(t, seen, 2)
	assert.Contains(t, seen[0], "page=9")
	assert.Contains(t, seen[1], "page=4")
}

func TestSearchServiceError(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := run(t, "--api-url", srv.URL, "search", "--json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestSearchRefusalIsNoResults(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusBadRequest} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			isolate(t)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "slow down", code)
			}))
			defer srv.Close()

			out, err := run(t, "--api-url", srv.URL, "search", "--json", "--page", "3", "notes")
			require.NoError(t, err)

			var got searchResult
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, 0, got.Total)
			assert.Equal(t, 1, got.Page)
			assert.Equal(t, 1, got.TotalPages)
			assert.Empty(t, got.Items)
			assert.Equal(t, "/en/tool?q=notes", got.Address)

			out, err = run(t, "--api-url", srv.URL, "search", "notes")
			require.NoError(t, err)
			assert.Equal(t, "no results\n", out)
		})
	}
}

func TestConfigInitAndShow(t *testing.T) {
	home := isolate(t)

	out, err := run(t, "--api-url", "http://catalog.test/api", "--lang", "ru", "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	_, err = run(t, "config", "init")
	require.Error(t, err, "refuses to overwrite without --force")

	out, err = run(t, "config", "show")
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "http://catalog.test/api", cfg["api_url"])
	assert.Equal(t, "/ru/tool", cfg["base_path"])
	assert.Equal(t, filepath.Join(home, "history.db"), cfg["history_db"])
}

func TestHistoryListAndClear(t *testing.T) {
	home := isolate(t)

	st, err := store.Open(filepath.Join(home, "history.db"))
	require.NoError(t, err)
	require.NoError(t, st.Record("markdown editor", time.Now().Add(-time.Minute)))
	require.NoError(t, st.Record("invoicing", time.Now()))
	require.NoError(t, st.Close())

	out, err := run(t, "history", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "invoicing"), "newest first, got %q", lines[0])

	out, err = run(t, "history", "clear")
	require.NoError(t, err)
	assert.Equal(t, "history cleared\n", out)

	out, err = run(t, "history", "list")
	require.NoError(t, err)
	assert.Equal(t, "no recent searches\n", out)
}

func TestEventsFilters(t *testing.T) {
	home := isolate(t)
	log := strings.Join([]string{
		`{"t":"2026-10-15T10:00:00Z","level":"debug","kind":"filter.change","comp":"browse","addr":"/en/tool?pricing_model=free"}`,
		`{"t":"2026-10-15T10:00:01Z","level":"info","kind":"search.start","comp":"coord","seq":4}`,
		`not json`,
		`{"t":"2026-10-15T10:00:02Z","level":"info","kind":"search.complete","comp":"coord","seq":4,"total":40,"dur_ms":12.5}`,
		`{"t":"2026-10-15T10:00:03Z","level":"warn","kind":"search.error","comp":"coord","seq":5,"class":"service_unavailable","err":"status 503"}`,
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "events.jsonl"), []byte(log), 0o644))

	out, err := run(t, "events", "--kind", "search", "--seq", "4")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "search.complete")
	assert.Contains(t, lines[1], "#4")
	assert.Contains(t, lines[1], "(12.5ms)")
	assert.Contains(t, lines[1], "total=40")

	out, err = run(t, "events", "--level", "warn", "--json")
	require.NoError(t, err)
	assert.Equal(t, `{"t":"2026-10-15T10:00:03Z","level":"warn","kind":"search.error","comp":"coord","seq":5,"class":"service_unavailable","err":"status 503"}`+"\n", out)

	out, err = run(t, "events", "--tail", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "class=service_unavailable")
}

func TestEventsMissingLog(t *testing.T) {
	isolate(t)

	_, err := run(t, "events")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event log not found")
}

func TestReadTailLinesKeepsLastN(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 5; i++ {
		b.WriteString(`{"kind":"search.start","seq":`)
		b.WriteString(string(rune('0' + i)))
		b.WriteString("}\n")
	}

	got := readTailLines(strings.NewReader(b.String()), 2, func(eventRecord) bool { return true })
	require.Len(t, got, 2)
	assert.Equal(t, uint64(4), got[0].ev.Seq)
	assert.Equal(t, uint64(5), got[1].ev.Seq)

	assert.Nil(t, readTailLines(strings.NewReader(b.String()), 0, func(eventRecord) bool { return true }))
}

func TestDurPrecision(t *testing.T) {
	assert.Equal(t, 0, durPrecision(250))
	assert.Equal(t, 1, durPrecision(12.5))
	assert.Equal(t, 2, durPrecision(0.25))
}
