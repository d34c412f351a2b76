// Package search is the HTTP transport to the remote catalog search service.
//
// The client only asks; it never filters, ranks, or caches what comes back.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/model"
)

// maxBody caps how much of a response body is read.
const maxBody = 4 << 20

// Suggestion limits, matching the autocomplete dropdown.
const (
	suggestEntryLimit    = 5
	suggestCategoryLimit = 3
)

// ErrMalformed is returned when the service answers 200 with a body that is
// not the expected shape.
var ErrMalformed = errors.New("malformed response")

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("search service status %d", e.Code)
	}
	return fmt.Sprintf("search service status %d: %s", e.Code, e.Body)
}

// Options configures a Client.
type Options struct {
	BaseURL  string        // e.g. http://localhost:8000/api
	Language string        // sent as Accept-Language
	Timeout  time.Duration // 0 means no client-side timeout
	Rate     float64       // requests per second; <= 0 disables limiting
	Burst    int
}

// Client talks to the search service.
type Client struct {
	base    string
	lang    string
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a Client. HTTP calls honour ctx cancellation.
func New(opts Options) *Client {
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	return &Client{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		lang:    opts.Language,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// searchResponse is the body of GET /search.
type searchResponse struct {
	Items []model.Entry `json:"items"`
	Total *int          `json:"total"`
}

// Search fetches one page of results for s.
func (c *Client) Search(ctx context.Context, s filter.State) (model.ResultSet, error) {
	n := filter.Normalize(s)

	var resp searchResponse
	if err := c.get(ctx, "/search", filter.RequestValues(n), &resp); err != nil {
		return model.ResultSet{}, err
	}
	if resp.Total == nil || *resp.Total < 0 {
		return model.ResultSet{}, fmt.Errorf("search: missing total: %w", ErrMalformed)
	}

	return model.ResultSet{
		Items:    resp.Items,
		Total:    *resp.Total,
		Page:     n.Page,
		PageSize: n.PageSize,
	}, nil
}

// Categories returns every category known to the service.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	if err := c.get(ctx, "/categories", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// Suggest returns entry and category suggestions for a partial query.
// Entries come from the suggestion endpoint, falling back to a plain search
// when that fails. Category suggestions are best effort.
func (c *Client) Suggest(ctx context.Context, text string) ([]model.Suggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	entries, err := c.suggestEntries(ctx, text)
	if err != nil {
		return nil, err
	}

	var cats []model.Category
	v := url.Values{"q": {text}, "limit": {strconv.Itoa(suggestCategoryLimit)}}
	if err := c.get(ctx, "/categories/search", v, &cats); err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	out := make([]model.Suggestion, 0, len(entries)+len(cats))
	for i, e := range entries {
		if i == suggestEntryLimit {
			break
		}
		out = append(out, model.Suggestion{Kind: model.SuggestEntry, Text: e.Name, Slug: e.Slug})
	}
	for i, cat := range cats {
		if i == suggestCategoryLimit {
			break
		}
		out = append(out, model.Suggestion{Kind: model.SuggestCategory, Text: cat.Name, CategoryID: cat.ID})
	}
	return out, nil
}

func (c *Client) suggestEntries(ctx context.Context, text string) ([]model.Entry, error) {
	v := url.Values{"q": {text}, "limit": {strconv.Itoa(suggestEntryLimit)}}

	// The suggestion endpoint may answer with a bare list or a page object.
	var raw json.RawMessage
	err := c.get(ctx, "/search/suggestions", v, &raw)
	if err == nil {
		if entries, ok := decodeEntries(raw); ok {
			return entries, nil
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var page searchResponse
	if err := c.get(ctx, "/search", v, &page); err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return page.Items, nil
}

func decodeEntries(raw json.RawMessage) ([]model.Entry, bool) {
	var list []model.Entry
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true
	}
	var page searchResponse
	if err := json.Unmarshal(raw, &page); err == nil && page.Items != nil {
		return page.Items, true
	}
	return nil, false
}

// get performs a rate-limited GET and decodes a JSON body into out.
func (c *Client) get(ctx context.Context, path string, v url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.base + path
	if len(v) > 0 {
		u += "?" + v.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: snippet(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse %s: %v: %w", path, err, ErrMalformed)
	}
	return nil
}

// snippet trims an error body for logs.
func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if r := []rune(s); len(r) > 200 {
		return string(r[:197]) + "..."
	}
	return s
}
