package browse

import (
	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/model"
)

// User intents. Each is a tea.Msg handled by Session.Update.
//
// TypeQuery is live input and rewrites the address in place. SubmitQuery
// is an explicit search: it appends a history entry and skips the quiet
// period.
type (
	SetCategory        struct{ ID int }
	SetPricing         struct{ Tier filter.PricingTier }
	TogglePlatform     struct{ Name string }
	SetSort            struct{ Order filter.SortOrder }
	TypeQuery          struct{ Text string }
	SubmitQuery        struct{ Text string }
	ChangePage         struct{ Page int }
	NextPage           struct{}
	PrevPage           struct{}
	ClearAll           struct{}
	Retry              struct{}
	Back               struct{}
	Forward            struct{}
	PickSuggestion     struct{ Suggestion model.Suggestion }
	DismissSuggestions struct{}
)

// Navigated reports navigation the session did not cause: back, forward,
// or an address entered directly.
type Navigated struct{ Addr string }

// Dispose tears the session down. Nothing runs afterwards.
type Dispose struct{}

// CategoriesLoaded carries the category list for the sidebar.
type CategoriesLoaded struct {
	Items []model.Category
	Err   error
}

// SuggestionsLoaded carries autocomplete rows for one keystroke burst.
type SuggestionsLoaded struct {
	Seq   uint64
	Items []model.Suggestion
	Err   error
}
