package browse

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/catalog/internal/model"
	"github.com/abelbrown/catalog/internal/otel"
)

const (
	// suggestDelay is the autocomplete quiet period.
	suggestDelay = 300 * time.Millisecond
	// suggestMinChars is the shortest input that asks for suggestions.
	suggestMinChars = 2
	// suggestRecent caps matching history rows shown above service rows.
	suggestRecent = 3
)

// scheduleSuggestions debounces an autocomplete lookup for text on its own
// channel, independent of the search channel.
func (s *Session) scheduleSuggestions(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < suggestMinChars || (s.deps.Catalog == nil && s.deps.History == nil) {
		s.clearSuggestions()
		return nil
	}

	s.suggestSeq++
	seq := s.suggestSeq
	cat, hist, now, events := s.deps.Catalog, s.deps.History, s.deps.Now, s.deps.Events

	return s.suggest.Schedule(suggestDelay, func() tea.Cmd {
		return func() tea.Msg {
			start := time.Now()
			var out []model.Suggestion
			if hist != nil {
				if recent, err := hist.Matching(now(), text, suggestRecent); err == nil {
					for _, r := range recent {
						out = append(out, model.Suggestion{Kind: model.SuggestRecent, Text: r.Query})
					}
				}
			}

			var err error
			if cat != nil {
				var rows []model.Suggestion
				rows, err = cat.Suggest(context.Background(), text)
				out = append(out, rows...)
			}

			if events != nil {
				events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSuggest, Comp: "browse", Query: text, Count: len(out), Dur: time.Since(start)})
			}
			return SuggestionsLoaded{Seq: seq, Items: out, Err: err}
		}
	})
}

// clearSuggestions hides the dropdown and invalidates any lookup in flight.
func (s *Session) clearSuggestions() {
	s.suggest.Cancel()
	s.suggestSeq++
	s.suggestions = nil
}
