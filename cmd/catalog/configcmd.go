package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/abelbrown/catalog/internal/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or write the client configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective configuration as JSON",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, cfg)
				},
			},
			{
				Name:  "init",
				Usage: "Write the effective configuration to the config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
				Action: func(c *cli.Context) error {
					path := config.Path()
					if _, err := os.Stat(path); err == nil && !c.Bool("force") {
						return outputError(fmt.Errorf("%s already exists (use --force to overwrite)", path))
					}
					cfg, err := loadConfig(c)
					if err != nil {
						return outputError(err)
					}
					if err := config.Save(cfg); err != nil {
						return outputError(err)
					}
					fmt.Fprintln(c.App.Writer, "wrote", path)
					return nil
				},
			},
		},
	}
}
