package filter

import (
	"net/url"
	"strconv"
	"strings"
)

// Query-string keys shared by addresses and search requests.
const (
	KeyCategory  = "category_id"
	KeyPricing   = "pricing_model"
	KeyPlatforms = "platforms"
	KeySort      = "sort"
	KeyQuery     = "q"
	KeyPage      = "page"
	KeyLimit     = "limit"
)

// Encode returns the query string for s, omitting every field equal to its
// default. Keys are sorted, so equal states always produce equal strings.
func Encode(s State) string {
	n := Normalize(s)
	v := url.Values{}
	if n.CategoryID > 0 {
		v.Set(KeyCategory, strconv.Itoa(n.CategoryID))
	}
	if n.Pricing != "" {
		v.Set(KeyPricing, string(n.Pricing))
	}
	if len(n.Platforms) > 0 {
		v.Set(KeyPlatforms, strings.Join(n.Platforms, ","))
	}
	if n.Sort != DefaultSort {
		v.Set(KeySort, string(n.Sort))
	}
	if n.Query != "" {
		v.Set(KeyQuery, n.Query)
	}
	if n.Page != DefaultPage {
		v.Set(KeyPage, strconv.Itoa(n.Page))
	}
	if n.PageSize != DefaultPageSize {
		v.Set(KeyLimit, strconv.Itoa(n.PageSize))
	}
	return v.Encode()
}

// Decode parses a query string (with or without the leading '?') into a
// normalized State. It never fails: anything malformed or out of range
// falls back to its default.
func Decode(raw string) State {
	// ParseQuery keeps every pair it could parse and reports only the first
	// bad one, which is exactly the leniency wanted here.
	v, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))

	s := Default()
	if id, ok := positiveInt(v.Get(KeyCategory)); ok {
		s.CategoryID = id
	}
	s.Pricing = PricingTier(v.Get(KeyPricing))
	if p := v.Get(KeyPlatforms); p != "" {
		s.Platforms = []string{p}
	}
	if o := SortOrder(v.Get(KeySort)); o.Valid() {
		s.Sort = o
	}
	s.Query = v.Get(KeyQuery)
	if n, ok := positiveInt(v.Get(KeyPage)); ok {
		s.Page = n
	}
	if n, ok := positiveInt(v.Get(KeyLimit)); ok {
		s.PageSize = n
	}
	return Normalize(s)
}

func positiveInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// RequestValues returns the parameters sent to the search service. Unlike
// Encode it always carries page and limit.
func RequestValues(s State) url.Values {
	n := Normalize(s)
	v := url.Values{}
	if n.CategoryID > 0 {
		v.Set(KeyCategory, strconv.Itoa(n.CategoryID))
	}
	if n.Pricing != "" {
		v.Set(KeyPricing, string(n.Pricing))
	}
	if len(n.Platforms) > 0 {
		v.Set(KeyPlatforms, strings.Join(n.Platforms, ","))
	}
	v.Set(KeySort, string(n.Sort))
	if n.Query != "" {
		v.Set(KeyQuery, n.Query)
	}
	v.Set(KeyPage, strconv.Itoa(n.Page))
	v.Set(KeyLimit, strconv.Itoa(n.PageSize))
	return v
}

// Address joins a base path and the encoded state. A default state yields
// the base path alone.
func Address(base string, s State) string {
	q := Encode(s)
	if q == "" {
		return base
	}
	return base + "?" + q
}

// ParseAddress splits an address into its base path and decoded state.
// Fragments are ignored.
func ParseAddress(addr string) (string, State) {
	if i := strings.IndexByte(addr, '#'); i >= 0 {
		addr = addr[:i]
	}
	base, query, _ := strings.Cut(addr, "?")
	return base, Decode(query)
}
