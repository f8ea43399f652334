// Package scan drives a single scan: normalize the input, fetch the matching
// transparency file, and parse it into result entries.
package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/adscan/internal/fetcher"
	"github.com/sells-group/adscan/internal/history"
	"github.com/sells-group/adscan/internal/model"
	"github.com/sells-group/adscan/internal/parser"
	"github.com/sells-group/adscan/internal/resolver"
)

// State is a snapshot of the scanner's presentation state.
type State struct {
	Results []model.ResultEntry
	Err     error
	Loading bool
}

// Result is the outcome of one successful scan.
type Result struct {
	ID      string
	URL     string
	Format  model.Format
	Entries []model.ResultEntry
}

// Scanner owns the current results, the last error and the scan history.
// Concurrent Scan calls are safe but the current results reflect whichever
// finished last; callers wanting single-flight behavior must enforce it.
type Scanner struct {
	fetcher fetcher.Fetcher
	history *history.History

	mu      sync.Mutex
	results []model.ResultEntry
	err     error
	loading int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithHistory replaces the default 20-entry history.
func WithHistory(h *history.History) Option {
	return func(s *Scanner) {
		s.history = h
	}
}

// New creates a Scanner fetching through f.
func New(f fetcher.Fetcher, opts ...Option) *Scanner {
	s := &Scanner{fetcher: f}
	for _, opt := range opts {
		opt(s)
	}
	if s.history == nil {
		s.history = history.New(history.DefaultSize)
	}
	return s
}

// Scan runs one scan of rawInput. Blank input returns model.ErrEmptyInput
// without touching state or history. Otherwise the normalized URL is
// recorded in history before any fetch, whether or not the scan succeeds.
func (s *Scanner) Scan(ctx context.Context, rawInput string) (*Result, error) {
	if strings.TrimSpace(rawInput) == "" {
		return nil, model.ErrEmptyInput
	}

	s.begin()

	normalized := resolver.Normalize(rawInput)
	s.history.Push(normalized)

	res := &Result{
		ID:     uuid.NewString(),
		URL:    normalized,
		Format: resolver.Classify(normalized),
	}
	log := zap.L().With(
		zap.String("scan_id", res.ID),
		zap.String("url", normalized),
		zap.String("format", string(res.Format)),
	)

	var err error
	switch res.Format {
	case model.FormatSellersJSON:
		res.Entries, err = s.scanSellersJSON(ctx, normalized)
	default:
		res.Entries, err = s.scanAdsTxt(ctx, normalized, log)
	}

	s.finish(res.Entries, err)
	if err != nil {
		log.Warn("scan failed", zap.Error(err))
		return nil, err
	}

	log.Info("scan complete", zap.Int("entries", len(res.Entries)))
	return res, nil
}

func (s *Scanner) scanSellersJSON(ctx context.Context, u string) ([]model.ResultEntry, error) {
	resp, err := s.fetcher.FetchJSON(ctx, u)
	if err != nil {
		var de *fetcher.DecodeError
		if errors.As(err, &de) {
			return nil, &model.ScanError{
				Kind:    model.ErrorKindDecodeFailed,
				URL:     u,
				Message: fmt.Sprintf("Failed to parse sellers.json: %v", de.Err),
				Err:     err,
			}
		}
		return nil, fetchFailed(u, "sellers.json", err)
	}
	if !resp.OK {
		return nil, statusFailed(u, "sellers.json", resp)
	}
	return parser.ParseSellersJSON(resp.Value), nil
}

// scanAdsTxt tries each candidate in order. When every candidate fails the
// first candidate's error is returned.
func (s *Scanner) scanAdsTxt(ctx context.Context, u string, log *zap.Logger) ([]model.ResultEntry, error) {
	var firstErr error
	for i, candidate := range resolver.BuildAdsTxtCandidates(u) {
		body, err := s.fetchAdsTxt(ctx, candidate)
		if err == nil {
			return parser.ParseAdsTxt(body), nil
		}
		log.Warn("ads.txt candidate failed",
			zap.Int("candidate", i+1),
			zap.String("candidate_url", candidate),
			zap.Error(err),
		)
		if firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, firstErr
}

func (s *Scanner) fetchAdsTxt(ctx context.Context, u string) (string, error) {
	resp, err := s.fetcher.FetchText(ctx, u)
	if err != nil {
		return "", fetchFailed(u, "ads.txt", err)
	}
	if !resp.OK {
		return "", statusFailed(u, "ads.txt", resp)
	}
	return resp.Body, nil
}

func fetchFailed(u, file string, err error) *model.ScanError {
	return &model.ScanError{
		Kind:    model.ErrorKindFetchFailed,
		URL:     u,
		Message: fmt.Sprintf("Failed to fetch %s: %v", file, err),
		Err:     err,
	}
}

func statusFailed(u, file string, resp *fetcher.Response) *model.ScanError {
	return &model.ScanError{
		Kind:    model.ErrorKindFetchFailed,
		URL:     u,
		Message: fmt.Sprintf("Failed to fetch %s: %s", file, resp.StatusText),
	}
}

func (s *Scanner) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading++
	s.results = nil
	s.err = nil
}

func (s *Scanner) finish(entries []model.ResultEntry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	s.results = entries
	s.err = err
}

// History returns the scanned URLs, most recent first.
func (s *Scanner) History() []string {
	return s.history.Items()
}

// Clear drops the current results and error. History is kept.
func (s *Scanner) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = nil
	s.err = nil
}

// State returns a snapshot of the current results, error and loading flag.
// The returned results slice is a copy.
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := make([]model.ResultEntry, len(s.results))
	copy(results, s.results)
	return State{
		Results: results,
		Err:     s.err,
		Loading: s.loading > 0,
	}
}
