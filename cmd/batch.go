package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/adscan/internal/model"
	"github.com/sells-group/adscan/internal/scan"
	"github.com/sells-group/adscan/internal/view"
)

// scannedURLKey is the extension field batch exports add to each entry.
const scannedURLKey = "scannedUrl"

var (
	batchFile        string
	batchOut         string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scan every input listed in a file and export one combined CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchConcurrency > 0 {
			cfg.Batch.Concurrency = batchConcurrency
		}
		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		in, err := os.Open(batchFile)
		if err != nil {
			return eris.Wrap(err, "batch: open input file")
		}
		defer in.Close() //nolint:errcheck

		inputs, err := readInputs(in)
		if err != nil {
			return err
		}

		s := newScanner(cfg)
		entries, err := processBatch(ctx, inputs, cfg.Batch.Concurrency, s.Scan)
		if err != nil {
			return err
		}

		out, err := os.Create(batchOut)
		if err != nil {
			return eris.Wrap(err, "batch: create output file")
		}
		defer out.Close() //nolint:errcheck

		if err := view.WriteCSV(out, entries); err != nil {
			return err
		}
		zap.L().Info("batch export written",
			zap.String("path", batchOut),
			zap.Int("entries", len(entries)),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "file with one URL or domain per line")
	batchCmd.Flags().StringVar(&batchOut, "out", view.DefaultCSVName, "combined CSV output path")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent scans (default from config)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// readInputs returns the non-blank lines of r. Lines starting with # are
// skipped.
func readInputs(r io.Reader) ([]string, error) {
	var inputs []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "batch: read inputs")
	}
	return inputs, nil
}

// scanFunc is the callback signature for scanning one input.
type scanFunc func(ctx context.Context, input string) (*scan.Result, error)

// processBatch scans inputs concurrently and returns all entries in input
// order, each tagged with the URL it was scanned from. Individual failures
// are logged and skipped.
func processBatch(ctx context.Context, inputs []string, concurrency int, scanOne scanFunc) ([]model.ResultEntry, error) {
	if len(inputs) == 0 {
		zap.L().Info("no inputs to scan")
		return nil, nil
	}

	zap.L().Info("processing batch",
		zap.Int("inputs", len(inputs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	perInput := make([][]model.ResultEntry, len(inputs))

	for i, input := range inputs {
		g.Go(func() error {
			log := zap.L().With(zap.String("input", input))

			res, err := scanOne(gctx, input)
			if errors.Is(err, model.ErrEmptyInput) {
				return nil
			}
			if err != nil {
				failed.Add(1)
				log.Error("scan failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			tagged := make([]model.ResultEntry, len(res.Entries))
			for j, e := range res.Entries {
				tagged[j] = e.WithExtra(scannedURLKey, res.URL)
			}
			perInput[i] = tagged

			succeeded.Add(1)
			log.Info("scan complete", zap.Int("entries", len(tagged)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)

	var all []model.ResultEntry
	for _, entries := range perInput {
		all = append(all, entries...)
	}
	return all, nil
}
