package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/abelbrown/catalog/internal/store"
)

// historyCmd groups the recent search history tools.
func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show or clear recent searches",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent searches, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: store.MaxEntries, Usage: "Maximum rows"},
					&cli.BoolFlag{Name: "json", Usage: "Output JSON"},
				},
				Action: func(c *cli.Context) error {
					st, err := openHistory(c)
					if err != nil {
						return outputError(err)
					}
					defer st.Close()

					rows, err := st.Recent(time.Now(), c.Int("limit"))
					if err != nil {
						return outputError(err)
					}
					if c.Bool("json") {
						return outputJSON(c.App.Writer, rows)
					}
					if len(rows) == 0 {
						fmt.Fprintln(c.App.Writer, "no recent searches")
						return nil
					}
					for _, r := range rows {
						fmt.Fprintf(c.App.Writer, "%s  %s\n", r.SearchedAt.Format("2006-01-02 15:04"), r.Query)
					}
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Forget every recent search",
				Action: func(c *cli.Context) error {
					st, err := openHistory(c)
					if err != nil {
						return outputError(err)
					}
					defer st.Close()

					if err := st.Clear(); err != nil {
						return outputError(err)
					}
					fmt.Fprintln(c.App.Writer, "history cleared")
					return nil
				},
			},
		},
	}
}

func openHistory(c *cli.Context) (*store.Store, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.HistoryDB)
}
