package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/abelbrown/catalog/internal/config"
	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/search"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:      "catalog",
		Usage:     "Browse and search the catalog",
		Version:   Version,
		ArgsUsage: "[address]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", EnvVars: []string{"CATALOG_API_URL"}, Usage: "Search service base URL"},
			&cli.StringFlag{Name: "lang", Usage: "Content language (Accept-Language)"},
		},
		Action: browseAction,
		Commands: []*cli.Command{
			browseCmd(),
			searchCmd(),
			urlCmd(),
			historyCmd(),
			eventsCmd(),
			configCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	changed := false
	if u := c.String("api-url"); u != "" {
		cfg.APIURL = u
		changed = true
	}
	if l := c.String("lang"); l != "" {
		cfg.Language = l
		cfg.BasePath = ""
		changed = true
	}
	if changed {
		return cfg.Validate()
	}
	return cfg, nil
}

// newClient builds the search service client for cfg.
func newClient(cfg config.Config) *search.Client {
	return search.New(search.Options{
		BaseURL:  cfg.APIURL,
		Language: cfg.Language,
		Timeout:  cfg.RequestTimeout(),
		Rate:     cfg.RateLimitPerSec,
		Burst:    2,
	})
}

// urlCmd groups the address codec tools.
func urlCmd() *cli.Command {
	return &cli.Command{
		Name:  "url",
		Usage: "Encode filters to an address or decode an address",
		Subcommands: []*cli.Command{
			{
				Name:  "encode",
				Usage: "Print the canonical address for the given filters",
				Flags: append(filterFlags(),
					&cli.StringFlag{Name: "base", Usage: "Address path (default from config)"},
				),
				Action: func(c *cli.Context) error {
					base := c.String("base")
					if base == "" {
						cfg, err := loadConfig(c)
						if err != nil {
							return outputError(err)
						}
						base = cfg.BasePath
					}
					fmt.Fprintln(c.App.Writer, filter.Address(base, stateFromFlags(c)))
					return nil
				},
			},
			{
				Name:      "decode",
				Usage:     "Print the filter state an address decodes to",
				ArgsUsage: "<address>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return outputError(fmt.Errorf("decode takes exactly one address"))
					}
					base, st := filter.ParseAddress(c.Args().First())
					return outputJSON(c.App.Writer, decodedAddress{
						Base:      base,
						State:     st,
						Canonical: filter.Address(base, st),
						Request:   filter.RequestValues(st).Encode(),
					})
				},
			},
		},
	}
}

// decodedAddress is the JSON shape printed by 'url decode'.
type decodedAddress struct {
	Base      string       `json:"base"`
	State     filter.State `json:"state"`
	Canonical string       `json:"canonical"`
	Request   string       `json:"request"`
}

// filterFlags are shared by every command that builds a filter.State.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category ID"},
		&cli.StringFlag{Name: "pricing", Aliases: []string{"p"}, Usage: "Pricing: free|freemium|paid|trial"},
		&cli.StringSliceFlag{Name: "platform", Usage: "Platform (repeatable)"},
		&cli.StringFlag{Name: "sort", Aliases: []string{"s"}, Value: string(filter.DefaultSort), Usage: "Sort: newest|popular|discussed"},
		&cli.IntFlag{Name: "page", Value: filter.DefaultPage, Usage: "Page number"},
		&cli.IntFlag{Name: "limit", Value: filter.DefaultPageSize, Usage: "Page size (max 100)"},
		&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Free-text query"},
	}
}

// stateFromFlags builds a normalized filter from filterFlags. Remaining
// positional args are joined into the query when --query is absent.
func stateFromFlags(c *cli.Context) filter.State {
	q := c.String("query")
	if q == "" && c.NArg() > 0 {
		q = strings.Join(c.Args().Slice(), " ")
	}
	return filter.Normalize(filter.State{
		CategoryID: c.Int("category"),
		Pricing:    filter.PricingTier(c.String("pricing")),
		Platforms:  c.StringSlice("platform"),
		Sort:       filter.SortOrder(c.String("sort")),
		Query:      q,
		Page:       c.Int("page"),
		PageSize:   c.Int("limit"),
	})
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats err for the CLI.
func outputError(err error) error {
	return cli.Exit(err.Error(), 1)
}
