package main

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/adscan/internal/config"
	"github.com/sells-group/adscan/internal/fetcher"
	"github.com/sells-group/adscan/internal/history"
	"github.com/sells-group/adscan/internal/scan"
)

// newFetcher builds the HTTP transport from fetch settings.
func newFetcher(c config.FetchConfig) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    c.UserAgent,
		Timeout:      time.Duration(c.TimeoutSecs) * time.Second,
		MaxRetries:   c.MaxRetries,
		RatePerHost:  rate.Limit(c.RatePerHost),
		Burst:        c.Burst,
		CacheTTL:     time.Duration(c.CacheTTLSecs) * time.Second,
		MaxBodyBytes: c.MaxBodyBytes,
	})
}

// newScanner wires a Scanner from configuration.
func newScanner(c *config.Config) *scan.Scanner {
	return scan.New(newFetcher(c.Fetch), scan.WithHistory(history.New(c.History.Size)))
}
