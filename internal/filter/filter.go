// Package filter holds the catalog view's filter state and its address codec.
// The encoded query string is the single source of truth for a view: every
// State can be written to an address and read back unchanged after Normalize.
package filter

import (
	"slices"
	"strings"
)

// PricingTier narrows results to one pricing model.
type PricingTier string

const (
	PricingFree     PricingTier = "free"
	PricingFreemium PricingTier = "freemium"
	PricingPaid     PricingTier = "paid"
	PricingTrial    PricingTier = "trial"
)

// PricingTiers lists the tiers in display order.
var PricingTiers = []PricingTier{PricingFree, PricingFreemium, PricingPaid, PricingTrial}

// Valid reports whether p is a known tier.
func (p PricingTier) Valid() bool {
	return slices.Contains(PricingTiers, p)
}

// SortOrder selects the service-side ordering of results.
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPopular   SortOrder = "popular"
	SortDiscussed SortOrder = "discussed"
)

// SortOrders lists the orders in display order.
var SortOrders = []SortOrder{SortNewest, SortPopular, SortDiscussed}

// Valid reports whether s is a known order.
func (s SortOrder) Valid() bool {
	return slices.Contains(SortOrders, s)
}

// Defaults applied to absent or invalid fields.
const (
	DefaultPage     = 1
	DefaultPageSize = 12
	MaxPageSize     = 100
	DefaultSort     = SortNewest
)

// CommonPlatforms are the platform toggles offered in the sidebar.
// Addresses may carry any other platform string.
var CommonPlatforms = []string{
	"Web", "iOS", "Android", "Windows", "macOS", "Linux", "Chrome Extension", "API",
}

// State is the complete description of one catalog view.
// Zero values of CategoryID, Pricing and Query mean "not filtered".
// State is a value: every With* method returns a modified copy.
type State struct {
	CategoryID int         `json:"category_id,omitempty"`
	Pricing    PricingTier `json:"pricing_model,omitempty"`
	Platforms  []string    `json:"platforms,omitempty"`
	Sort       SortOrder   `json:"sort"`
	Query      string      `json:"q,omitempty"`
	Page       int         `json:"page"`
	PageSize   int         `json:"limit"`
}

// Default returns the all-defaults state (the bare base address).
func Default() State {
	return State{
		Sort:     DefaultSort,
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}
}

// Normalize clamps and defaults every field so the state is encodable.
// Platforms are trimmed, split on commas, de-duplicated (first occurrence
// wins) and set to nil when empty.
func Normalize(s State) State {
	out := s
	if out.CategoryID < 0 {
		out.CategoryID = 0
	}
	if !out.Pricing.Valid() {
		out.Pricing = ""
	}
	out.Platforms = normalizePlatforms(s.Platforms)
	if !out.Sort.Valid() {
		out.Sort = DefaultSort
	}
	out.Query = strings.TrimSpace(out.Query)
	if out.Page < 1 {
		out.Page = DefaultPage
	}
	switch {
	case out.PageSize <= 0:
		out.PageSize = DefaultPageSize
	case out.PageSize > MaxPageSize:
		out.PageSize = MaxPageSize
	}
	return out
}

func normalizePlatforms(in []string) []string {
	var out []string
	for _, raw := range in {
		for _, p := range strings.Split(raw, ",") {
			p = strings.TrimSpace(p)
			if p == "" || slices.Contains(out, p) {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

// Equal reports whether two states describe the same view.
func (s State) Equal(o State) bool {
	a, b := Normalize(s), Normalize(o)
	return a.CategoryID == b.CategoryID &&
		a.Pricing == b.Pricing &&
		slices.Equal(a.Platforms, b.Platforms) &&
		a.Sort == b.Sort &&
		a.Query == b.Query &&
		a.Page == b.Page &&
		a.PageSize == b.PageSize
}

// IsDefault reports whether s encodes to the bare base address.
func (s State) IsDefault() bool {
	return s.Equal(Default())
}

// HasActiveFilters reports whether any narrowing filter is set.
// Sort order and paging do not narrow results.
func (s State) HasActiveFilters() bool {
	n := Normalize(s)
	return n.CategoryID > 0 || n.Pricing != "" || len(n.Platforms) > 0 || n.Query != ""
}

// HasPlatform reports whether p is among the selected platforms.
func (s State) HasPlatform(p string) bool {
	return slices.Contains(s.Platforms, p)
}

// clone copies s so the Platforms backing array is never shared.
func (s State) clone() State {
	s.Platforms = slices.Clone(s.Platforms)
	return s
}

// WithCategory filters by category; id <= 0 clears it. Resets to page 1.
func (s State) WithCategory(id int) State {
	out := s.clone()
	out.CategoryID = max(id, 0)
	out.Page = DefaultPage
	return out
}

// WithPricing filters by pricing tier; "" clears it. Resets to page 1.
func (s State) WithPricing(p PricingTier) State {
	out := s.clone()
	out.Pricing = p
	out.Page = DefaultPage
	return out
}

// TogglePlatform adds p if absent, removes it otherwise. Resets to page 1.
func (s State) TogglePlatform(p string) State {
	out := s.clone()
	if i := slices.Index(out.Platforms, p); i >= 0 {
		out.Platforms = slices.Delete(out.Platforms, i, i+1)
	} else {
		out.Platforms = append(out.Platforms, p)
	}
	out.Page = DefaultPage
	return out
}

// WithPlatforms replaces the platform set. Resets to page 1.
func (s State) WithPlatforms(ps []string) State {
	out := s.clone()
	out.Platforms = slices.Clone(ps)
	out.Page = DefaultPage
	return out
}

// WithSort changes the ordering. Resets to page 1.
func (s State) WithSort(o SortOrder) State {
	out := s.clone()
	out.Sort = o
	out.Page = DefaultPage
	return out
}

// WithQuery changes the free-text query. Resets to page 1.
func (s State) WithQuery(q string) State {
	out := s.clone()
	out.Query = q
	out.Page = DefaultPage
	return out
}

// WithPage moves to page n without touching any filter.
// Range checks against the total are the caller's job.
func (s State) WithPage(n int) State {
	out := s.clone()
	out.Page = max(n, DefaultPage)
	return out
}

// Cleared drops every filter. The result encodes to the bare base address.
func (s State) Cleared() State {
	return Default()
}
