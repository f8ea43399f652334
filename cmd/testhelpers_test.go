//go:build !integration

package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sells-group/adscan/internal/config"
	"github.com/sells-group/adscan/internal/scan"
)

const testAdsTxt = "# ads.txt\n" +
	"google.com, pub-2, DIRECT, f08c47fec0942fa0\n" +
	"appnexus.com, 1001, reseller\n" +
	"broken line\n"

const testSellersJSON = `{"sellers":[
	{"seller_id":"1","name":"Alpha Media","domain":"alpha.com"},
	{"seller_id":"2","name":"Beta Exchange","domain":"beta.com","is_passthrough":true},
	{"seller_id":"3","name":"No Domain"}
]}`

// newTestSource serves a fixed ads.txt and sellers.json.
func newTestSource(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ads.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(testAdsTxt))
	})
	mux.HandleFunc("GET /sellers.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testSellersJSON))
	})
	mux.HandleFunc("GET /bad/sellers.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>oops</html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// testConfig returns a configuration with fast, local-friendly fetch settings.
func testConfig() *config.Config {
	c := &config.Config{}
	c.Fetch.UserAgent = "adscan-test"
	c.Fetch.TimeoutSecs = 5
	c.Fetch.MaxRetries = 1
	c.Fetch.RatePerHost = 1000
	c.Fetch.Burst = 100
	c.History.Size = 20
	c.Server.Port = 8080
	c.Batch.Concurrency = 4
	return c
}

func newTestScanner() *scan.Scanner {
	return newScanner(testConfig())
}
