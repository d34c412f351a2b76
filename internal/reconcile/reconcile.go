// Package reconcile turns accepted search outcomes into display state.
package reconcile

import (
	"github.com/abelbrown/catalog/internal/coord"
	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/model"
	"github.com/abelbrown/catalog/internal/pagination"
)

// Status is what the result area is showing.
type Status int

const (
	// StatusLoading means a request is in flight. Items may be empty or may
	// still hold the previous page.
	StatusLoading Status = iota
	// StatusReady means Items holds the current page.
	StatusReady
	// StatusEmpty is the explicit "no results" answer.
	StatusEmpty
	// StatusFailed means the service was unavailable; a retry is offered.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Display is a snapshot of the result area.
type Display struct {
	Status   Status
	Items    []model.Entry
	Total    int
	Page     int
	PageSize int
	Err      string // set with StatusFailed
}

// TotalPages returns the page count for the current total.
func (d Display) TotalPages() int {
	return pagination.TotalPages(d.Total, d.PageSize)
}

// Window returns the page-number widget. It is computed on every call.
func (d Display) Window() []pagination.Slot {
	return pagination.Window(d.Total, d.PageSize, d.Page)
}

// ShowPager reports whether there is more than one page to navigate.
func (d Display) ShowPager() bool {
	return d.Total > d.PageSize
}

// HasPrev reports whether a previous page exists.
func (d Display) HasPrev() bool { return d.Page > 1 }

// HasNext reports whether a following page exists.
func (d Display) HasNext() bool { return d.Page < d.TotalPages() }

// Retry reports whether a retry should be offered.
func (d Display) Retry() bool { return d.Status == StatusFailed }

// Correction asks the caller to rewrite the address because the service
// reported fewer pages than the one requested.
type Correction struct {
	From, To int
}

// Reconciler owns the display state of one view.
type Reconciler struct {
	d Display
}

// New returns a Reconciler in the loading state.
func New() *Reconciler {
	return &Reconciler{d: Display{
		Status:   StatusLoading,
		Page:     filter.DefaultPage,
		PageSize: filter.DefaultPageSize,
	}}
}

// Begin marks a request for s as in flight.
func (r *Reconciler) Begin(s filter.State) {
	r.d.Status = StatusLoading
	r.d.Err = ""
	r.d.Page = s.Page
	r.d.PageSize = s.PageSize
}

// Apply dispatches an accepted outcome to Reconcile or Fail.
func (r *Reconciler) Apply(o coord.Outcome) (Correction, bool) {
	if !o.OK() {
		return r.Fail(o.Class, o.Err)
	}
	return r.Reconcile(o.Result)
}

// Reconcile replaces the displayed page with rs. If rs.Page lies beyond the
// last page for rs.Total, nothing is shown and a Correction is returned.
func (r *Reconciler) Reconcile(rs model.ResultSet) (Correction, bool) {
	size := rs.PageSize
	if size <= 0 {
		size = filter.DefaultPageSize
	}
	page := rs.Page
	if page < 1 {
		page = 1
	}

	if last := pagination.TotalPages(rs.Total, size); page > last {
		r.d = Display{Status: StatusLoading, Total: rs.Total, Page: last, PageSize: size}
		return Correction{From: page, To: last}, true
	}

	items := rs.Items
	if len(items) > size {
		items = items[:size]
	}
	items = append([]model.Entry(nil), items...)

	status := StatusReady
	if rs.Empty() {
		status = StatusEmpty
	}
	r.d = Display{Status: status, Items: items, Total: rs.Total, Page: page, PageSize: size}
	return Correction{}, false
}

// Fail applies the failure policy for class. Cancelled leaves the display
// untouched; rate limiting and rejections degrade to "no results" on page 1,
// returning a Correction when the address asked for a later page; an
// unavailable service is shown with a retry.
func (r *Reconciler) Fail(class coord.Class, err error) (Correction, bool) {
	switch class {
	case coord.ClassNone, coord.Cancelled:
		return Correction{}, false
	case coord.RateLimited, coord.ClientRejected:
		from := r.d.Page
		r.d = Display{Status: StatusEmpty, Page: 1, PageSize: r.d.PageSize}
		if from > 1 {
			return Correction{From: from, To: 1}, true
		}
		return Correction{}, false
	default:
		msg := "service unavailable"
		if err != nil {
			msg = err.Error()
		}
		r.d = Display{Status: StatusFailed, Page: r.d.Page, PageSize: r.d.PageSize, Err: msg}
		return Correction{}, false
	}
}

// Status returns the current status.
func (r *Reconciler) Status() Status { return r.d.Status }

// Display returns a snapshot safe to hold across updates.
func (r *Reconciler) Display() Display {
	d := r.d
	d.Items = append([]model.Entry(nil), r.d.Items...)
	return d
}
