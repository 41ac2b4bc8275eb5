// Command invoicer serves the invoice builder API and renders documents
// from YAML sheets.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("invoicer failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "invoicer",
		Usage:   "build invoices and quotations",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"INVOICER_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			renderCommand(),
			wordsCommand(),
		},
	}
}

func wordsCommand() *cli.Command {
	return &cli.Command{
		Name:      "words",
		Usage:     "spell an amount in Naira and Kobo",
		ArgsUsage: "<amount>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("words: expected exactly one amount", 2)
			}
			w, err := spell(c.Args().First())
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			_, err = fmt.Fprintln(c.App.Writer, w)
			return err
		},
	}
}
