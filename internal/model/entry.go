// Package model holds the catalog records exchanged with the search service.
package model

// Category is a catalog grouping shown in the filter sidebar.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Entry is a single catalog item returned by the search service.
type Entry struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description,omitempty"`
	URL           string   `json:"url,omitempty"`
	IconURL       string   `json:"icon_url,omitempty"`
	Featured      bool     `json:"is_featured,omitempty"`
	PricingModel  string   `json:"pricing_model,omitempty"`
	Platforms     []string `json:"platforms,omitempty"`
	Category      Category `json:"category"`
	ReviewCount   int      `json:"review_count,omitempty"`
	AverageRating float64  `json:"average_rating,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"` // service timestamps carry no zone
}

// ResultSet is one page of search results.
// Items never exceeds PageSize; a new ResultSet replaces the previous one wholesale.
type ResultSet struct {
	Items    []Entry
	Total    int
	Page     int
	PageSize int
}

// Empty reports whether the result set is the distinguishable "no results" answer.
func (r ResultSet) Empty() bool {
	return len(r.Items) == 0 && r.Total == 0
}

// SuggestionKind identifies where an autocomplete suggestion came from.
type SuggestionKind string

const (
	SuggestRecent   SuggestionKind = "recent"
	SuggestEntry    SuggestionKind = "entry"
	SuggestCategory SuggestionKind = "category"
)

// Suggestion is a single autocomplete row under the query input.
type Suggestion struct {
	Kind       SuggestionKind
	Text       string
	Slug       string // set for SuggestEntry
	CategoryID int    // set for SuggestCategory
}
