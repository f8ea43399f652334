package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/adscan/internal/model"
	"github.com/sells-group/adscan/internal/scan"
	"github.com/sells-group/adscan/internal/view"
)

// scanOptions controls how scan results are rendered.
type scanOptions struct {
	Format      string
	Filter      string
	Sort        string
	Desc        bool
	ShowHistory bool
}

var (
	scanOpts scanOptions
	scanOut  string
)

var scanCmd = &cobra.Command{
	Use:   "scan <url-or-domain>...",
	Short: "Scan one or more ads.txt or sellers.json sources",
	Long: "Each argument is normalized to an https URL. Arguments containing \"sellers.json\" are fetched as sellers.json; " +
		"anything else is scanned for ads.txt at the given path, then at the host root.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("scan"); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if scanOut != "" {
			f, err := os.Create(scanOut)
			if err != nil {
				return eris.Wrap(err, "scan: create output file")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		return runScan(ctx, newScanner(cfg), args, scanOpts, out, cmd.ErrOrStderr())
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanOpts.Format, "format", "f", view.FormatTable, "output format: table, csv, json, yaml")
	scanCmd.Flags().StringVar(&scanOpts.Filter, "filter", "", "keep entries whose domain, name or publisher ID contains this text")
	scanCmd.Flags().StringVar(&scanOpts.Sort, "sort", "", "sort by domain, name, type or publisherId (default: file order)")
	scanCmd.Flags().BoolVar(&scanOpts.Desc, "desc", false, "sort descending")
	scanCmd.Flags().BoolVar(&scanOpts.ShowHistory, "history", false, "print the scan history after scanning")
	scanCmd.Flags().StringVarP(&scanOut, "out", "o", "", "write output to a file instead of stdout")
	rootCmd.AddCommand(scanCmd)
}

// runScan scans each input in order and renders its results to out. Blank
// inputs are skipped. A failed scan is reported on errOut and the remaining
// inputs still run; the returned error counts the failures.
//
// CSV output for more than one input is written once at the end as a single
// file, each entry tagged with the URL it was scanned from.
func runScan(ctx context.Context, s *scan.Scanner, inputs []string, opts scanOptions, out, errOut io.Writer) error {
	combine := opts.Format == view.FormatCSV && len(inputs) > 1

	var (
		failed   int
		combined []model.ResultEntry
	)
	for _, input := range inputs {
		res, err := s.Scan(ctx, input)
		if errors.Is(err, model.ErrEmptyInput) {
			continue
		}
		if err != nil {
			failed++
			zap.L().Error("scan failed", zap.String("input", input), zap.Error(err))
			_, _ = fmt.Fprintf(errOut, "%s: %s\n", input, err.Error())
			continue
		}

		shown := present(res.Entries, opts)
		if combine {
			for _, e := range shown {
				combined = append(combined, e.WithExtra(scannedURLKey, res.URL))
			}
			continue
		}
		if err := view.Write(out, opts.Format, shown); err != nil {
			return err
		}
	}

	if combine {
		if err := view.WriteCSV(out, combined); err != nil {
			return err
		}
	}

	if opts.ShowHistory {
		// Only the table view shares its stream with the history listing.
		hw := out
		if opts.Format != "" && opts.Format != view.FormatTable {
			hw = errOut
		}
		writeHistory(hw, s.History())
	}

	if failed > 0 {
		return eris.Errorf("%d of %d scans failed", failed, len(inputs))
	}
	return nil
}

// present applies the filter and optional sort to a copy of entries.
func present(entries []model.ResultEntry, opts scanOptions) []model.ResultEntry {
	shown := view.Filter(entries, opts.Filter)
	if opts.Sort != "" {
		shown = view.Sort(shown, view.ParseSortField(opts.Sort), opts.Desc)
	}
	return shown
}

func writeHistory(out io.Writer, urls []string) {
	_, _ = fmt.Fprintln(out, "\nRecent scans:")
	if len(urls) == 0 {
		_, _ = fmt.Fprintln(out, "  (none)")
		return
	}
	for i, u := range urls {
		_, _ = fmt.Fprintf(out, "%3d. %s\n", i+1, u)
	}
}
