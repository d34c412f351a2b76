package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/catalog/internal/coord"
	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/model"
	"github.com/abelbrown/catalog/internal/pagination"
)

// searchResult is the JSON shape printed by 'search --json'.
type searchResult struct {
	Address    string        `json:"address"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Pages      []int         `json:"pages"` // 0 marks an ellipsis
	Items      []model.Entry `json:"items"`
}

func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Run one search and print the results",
		ArgsUsage: "[query]",
		Flags: append(filterFlags(),
			&cli.BoolFlag{Name: "json", Usage: "Output JSON instead of a table"},
		),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return outputError(err)
			}
			client := newClient(cfg)
			st := stateFromFlags(c)

			// Categories only label the table; a failure there is not fatal.
			var (
				rs   model.ResultSet
				cats []model.Category
			)
			g, ctx := errgroup.WithContext(c.Context)
			g.Go(func() error {
				var err error
				rs, err = client.Search(ctx, st)
				return err
			})
			if !c.Bool("json") {
				g.Go(func() error {
					cats, _ = client.Categories(ctx)
					return nil
				})
			}
			err = g.Wait()

			// Past the last page: ask again for the last one.
			if last := pagination.TotalPages(rs.Total, st.PageSize); err == nil && !pagination.InRange(st.Page, last) {
				st = st.WithPage(pagination.Clamp(st.Page, last))
				rs, err = client.Search(c.Context, st)
			}
			if err != nil {
				switch coord.Classify(err) {
				case coord.RateLimited, coord.ClientRejected:
					// Treated as "no results".
					rs = model.ResultSet{Page: 1, PageSize: st.PageSize}
					st = st.WithPage(1)
				default:
					return outputError(fmt.Errorf("search: %w", err))
				}
			}
			last := pagination.TotalPages(rs.Total, rs.PageSize)

			if c.Bool("json") {
				return outputJSON(c.App.Writer, searchResult{
					Address:    filter.Address(cfg.BasePath, st),
					Total:      rs.Total,
					Page:       rs.Page,
					TotalPages: last,
					Pages:      pagination.Pages(pagination.Window(rs.Total, rs.PageSize, rs.Page)),
					Items:      rs.Items,
				})
			}
			if rs.Empty() {
				fmt.Fprintln(c.App.Writer, "no results")
				return nil
			}
			fmt.Fprintln(c.App.Writer, renderTable(rs, categoryNames(cats)))
			fmt.Fprintf(c.App.Writer, "%d results, page %d of %d  %s\n",
				rs.Total, rs.Page, last, renderPages(rs))
			return nil
		},
	}
}

// categoryNames indexes categories by ID.
func categoryNames(cats []model.Category) map[int]string {
	names := make(map[int]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names
}

func renderTable(rs model.ResultSet, names map[int]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "CATEGORY", "PRICING", "PLATFORMS")
	for _, e := range rs.Items {
		cat := e.Category.Name
		if cat == "" {
			cat = names[e.Category.ID]
		}
		name := e.Name
		if e.Featured {
			name = "★ " + name
		}
		t.Row(name, cat, e.PricingModel, strings.Join(e.Platforms, ", "))
	}
	return t.Render()
}

// renderPages prints the page window, e.g. "1 … 4 [5] 6 … 20".
func renderPages(rs model.ResultSet) string {
	var parts []string
	for _, s := range pagination.Window(rs.Total, rs.PageSize, rs.Page) {
		switch {
		case s.Ellipsis:
			parts = append(parts, "…")
		case s.Page == rs.Page:
			parts = append(parts, "["+strconv.Itoa(s.Page)+"]")
		default:
			parts = append(parts, strconv.Itoa(s.Page))
		}
	}
	return strings.Join(parts, " ")
}
