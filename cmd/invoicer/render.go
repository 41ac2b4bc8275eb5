package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/xraph/invoicer"
	"github.com/xraph/invoicer/config"
	"github.com/xraph/invoicer/document"
	"github.com/xraph/invoicer/input"
	"github.com/xraph/invoicer/internal/logger"
	"github.com/xraph/invoicer/ledger"
	"github.com/xraph/invoicer/words"
)

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "render a document sheet to PDF or HTML",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "YAML sheet describing the document",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "pdf",
				Usage:   "output format (pdf, html)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output path; \"-\" writes to stdout (default: the document file name for pdf, stdout for html)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			slog.SetDefault(logger.New(logger.Config{Level: "warn", Format: cfg.Log.Format}, c.App.ErrWriter))

			sheet, err := readSheet(c.String("input"))
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			name, err := render(c.Context, cfg, sheet, c.String("format"), &buf)
			if err != nil {
				return err
			}

			out := c.String("output")
			if out == "" && c.String("format") == "pdf" {
				out = name
			}
			if out == "" || out == "-" {
				_, err = io.Copy(c.App.Writer, &buf)
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(c.App.ErrWriter, "wrote %s\n", out)
			return nil
		},
	}
}

func readSheet(path string) (input.Sheet, error) {
	var sheet input.Sheet
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return sheet, err
	}
	if err := yaml.Unmarshal(data, &sheet); err != nil {
		return sheet, fmt.Errorf("sheet %s: %w", path, err)
	}
	return sheet, nil
}

// render opens a throwaway session, fills it from sheet and writes it in
// format to w. It returns the document's suggested file name.
func render(ctx context.Context, cfg *config.Config, sheet input.Sheet, format string, w io.Writer) (string, error) {
	eng, err := newEngine(cfg)
	if err != nil {
		return "", err
	}
	if err := eng.Start(ctx); err != nil {
		return "", err
	}
	defer eng.Stop()

	sess, err := eng.Open(ctx, invoicer.OpenOpts{})
	if err != nil {
		return "", err
	}
	if err := applySheet(ctx, sess.Manager, sheet); err != nil {
		return "", err
	}

	if _, err := eng.Render(ctx, sess.ID, format, w); err != nil {
		return "", err
	}
	return sess.Manager.Snapshot().Filename(), nil
}

// applySheet sets the record fields and replaces the default row with the
// sheet's rows in order. A sheet without rows keeps the default row.
func applySheet(ctx context.Context, m *ledger.Manager, sheet input.Sheet) error {
	patch, err := sheet.Form.Patch()
	if err != nil {
		return invoicer.ValidationError{Field: "sheet", Message: err.Error()}
	}
	if !patch.IsEmpty() {
		m.SetField(ctx, patch)
	}

	currency := m.Snapshot().Total.Currency
	for i, row := range sheet.Items {
		itemID := document.ItemID("1")
		if i > 0 {
			itemID = m.AddItem(ctx).ID
		}
		m.UpdateItem(ctx, itemID, row.Patch(currency))
	}
	return nil
}

func spell(amount string) (string, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "", fmt.Errorf("words: %q is not a number", amount)
	}
	return words.Amount(d), nil
}
