package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

// eventRecord mirrors otel.Event for JSON decoding.
// We decode from JSONL rather than importing otel to keep this
// subcommand usable even if the event schema evolves.
type eventRecord struct {
	Time      time.Time `json:"t"`
	Level     string    `json:"level"`
	Kind      string    `json:"kind"`
	Comp      string    `json:"comp"`
	SessionID string    `json:"session_id"`
	Seq       uint64    `json:"seq"`
	DurMs     float64   `json:"dur_ms"`
	Count     int       `json:"count"`
	Total     int       `json:"total"`
	Page      int       `json:"page"`
	Addr      string    `json:"addr"`
	Query     string    `json:"query"`
	Class     string    `json:"class"`
	Err       string    `json:"err"`
	Msg       string    `json:"msg"`
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "debug":
		return 0
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

// eventFilter selects which records the viewer prints.
type eventFilter struct {
	kind    string
	level   string
	comp    string
	seq     uint64
	session string
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind) {
		return false
	}
	if f.level != "" && levelRank(ev.Level) < levelRank(f.level) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.seq != 0 && ev.Seq != f.seq {
		return false
	}
	if f.session != "" && !strings.HasPrefix(ev.SessionID, f.session) {
		return false
	}
	return true
}

func eventsCmd() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Show the JSONL event log",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "tail", Aliases: []string{"n"}, Value: 50, Usage: "Number of recent lines to show"},
			&cli.BoolFlag{Name: "follow", Aliases: []string{"f"}, Usage: "Follow mode (like tail -f)"},
			&cli.StringFlag{Name: "kind", Usage: "Filter by event kind prefix (e.g. 'search')"},
			&cli.StringFlag{Name: "level", Usage: "Minimum level: debug, info, warn, error"},
			&cli.StringFlag{Name: "comp", Usage: "Filter by component name"},
			&cli.Uint64Flag{Name: "seq", Usage: "Filter by request sequence number"},
			&cli.StringFlag{Name: "session", Usage: "Filter by session ID prefix"},
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON lines"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return outputError(err)
			}

			f, err := os.Open(cfg.EventLog)
			if err != nil {
				return outputError(fmt.Errorf("event log not found at %s (run 'catalog browse' first): %w", cfg.EventLog, err))
			}
			defer f.Close()

			filter := eventFilter{
				kind:    c.String("kind"),
				level:   c.String("level"),
				comp:    c.String("comp"),
				seq:     c.Uint64("seq"),
				session: c.String("session"),
			}
			raw := c.Bool("json")
			w := c.App.Writer

			for _, l := range readTailLines(f, c.Int("tail"), filter.match) {
				fmt.Fprintln(w, formatEvent(l.ev, l.raw, raw))
			}
			if !c.Bool("follow") {
				return nil
			}
			return followEvents(c.Context, f, w, filter.match, raw)
		},
	}
}

// followEvents polls f for appended lines until ctx is done.
func followEvents(ctx context.Context, f io.Reader, w io.Writer, match func(eventRecord) bool, raw bool) error {
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if match(ev) {
			fmt.Fprintln(w, formatEvent(ev, line, raw))
		}
	}
}

func formatEvent(ev eventRecord, line []byte, raw bool) string {
	if raw {
		return string(line)
	}
	ts := ev.Time.Format("15:04:05.000")
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-6s] %-18s", ts, lvl, ev.Comp, ev.Kind)}

	if ev.Seq > 0 {
		parts = append(parts, fmt.Sprintf("#%d", ev.Seq))
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Total > 0 {
		parts = append(parts, fmt.Sprintf("total=%d", ev.Total))
	}
	if ev.Page > 0 {
		parts = append(parts, fmt.Sprintf("page=%d", ev.Page))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Class != "" {
		parts = append(parts, "class="+ev.Class)
	}
	if ev.Query != "" {
		parts = append(parts, fmt.Sprintf("q=%q", ev.Query))
	}
	if ev.Addr != "" {
		parts = append(parts, ev.Addr)
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}

	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads r and returns the last n lines matching the filter.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	if n <= 0 {
		return nil
	}
	scanner := bufio.NewScanner(r)
	// Addresses with long queries make for long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	ring := make([]parsedLine, 0, n)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) {
			continue
		}
		// Make a copy of raw since scanner reuses the buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}
	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
