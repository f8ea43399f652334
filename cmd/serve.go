package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/adscan/internal/model"
	"github.com/sells-group/adscan/internal/scan"
	"github.com/sells-group/adscan/internal/view"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for scanning and exporting results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg.Server.Port = resolvePort(servePort, cfg.Server.Port)
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		router := buildRouter(newScanner(cfg), cfg.Server.CORSOrigins)
		return startServer(ctx, router, cfg.Server.Port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort prefers the flag value over the configured port.
func resolvePort(flagPort, configPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return configPort
}

// api serves one Scanner over HTTP. Only one scan runs at a time.
type api struct {
	scanner *scan.Scanner
	busy    atomic.Bool
}

// buildRouter registers the API routes.
func buildRouter(s *scan.Scanner, origins []string) http.Handler {
	a := &api{scanner: s}

	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/scan", a.handleScan)
	r.Get("/results", a.handleResults)
	r.Get("/results.csv", a.handleResultsCSV)
	r.Delete("/results", a.handleClear)
	r.Get("/history", a.handleHistory)

	return r
}

type scanRequest struct {
	URL string `json:"url"`
}

type scanResponse struct {
	ScanID  string              `json:"scan_id"`
	URL     string              `json:"url"`
	Format  string              `json:"format"`
	Count   int                 `json:"count"`
	Results []map[string]string `json:"results"`
}

func (a *api) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	if !a.busy.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "a scan is already in progress", "")
		return
	}
	defer a.busy.Store(false)

	res, err := a.scanner.Scan(r.Context(), req.URL)
	if errors.Is(err, model.ErrEmptyInput) {
		writeError(w, http.StatusBadRequest, "url is required", "")
		return
	}
	if err != nil {
		var se *model.ScanError
		kind := string(model.ErrorKindFetchFailed)
		if errors.As(err, &se) {
			kind = string(se.Kind)
		}
		writeError(w, http.StatusBadGateway, err.Error(), kind)
		return
	}

	writeJSON(w, http.StatusOK, scanResponse{
		ScanID:  res.ID,
		URL:     res.URL,
		Format:  string(res.Format),
		Count:   len(res.Entries),
		Results: view.Records(res.Entries),
	})
}

type resultsResponse struct {
	Title   string              `json:"title"`
	Count   int                 `json:"count"`
	Total   int                 `json:"total"`
	Loading bool                `json:"loading"`
	Error   string              `json:"error,omitempty"`
	Results []map[string]string `json:"results"`
}

func (a *api) handleResults(w http.ResponseWriter, r *http.Request) {
	st := a.scanner.State()

	q := r.URL.Query()
	opts := scanOptions{Filter: q.Get("filter"), Sort: q.Get("sort")}
	opts.Desc, _ = strconv.ParseBool(q.Get("desc"))
	shown := present(st.Results, opts)

	resp := resultsResponse{
		Title:   view.Title(st.Results),
		Count:   len(shown),
		Total:   len(st.Results),
		Loading: st.Loading,
		Results: view.Records(shown),
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) handleResultsCSV(w http.ResponseWriter, r *http.Request) {
	st := a.scanner.State()
	if len(st.Results) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", view.DefaultCSVName))
	if err := view.WriteCSV(w, st.Results); err != nil {
		zap.L().Error("write csv export", zap.Error(err))
	}
}

func (a *api) handleClear(w http.ResponseWriter, r *http.Request) {
	a.scanner.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"history": a.scanner.History()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	body := map[string]string{"error": msg}
	if kind != "" {
		body["kind"] = kind
	}
	writeJSON(w, status, body)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// startServer runs the HTTP server until ctx is cancelled, then shuts it
// down gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- eris.Wrap(err, "server listen")
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return <-errCh
}
