// Package server exposes the dashboard queries as a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stock-dashboard/internal/dataset"
	"stock-dashboard/internal/date"
	"stock-dashboard/internal/engine"
	"stock-dashboard/internal/interfaces"
	"stock-dashboard/internal/logger"
	"stock-dashboard/internal/types"
)

type Params struct {
	Addr         string
	Descriptor   types.Descriptor
	Defaults     types.FilterSpec
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	p      Params
	loader interfaces.DatasetLoader
	engine interfaces.Engine
	mux    *http.ServeMux
}

func New(p Params, loader interfaces.DatasetLoader, eng interfaces.Engine) *Server {
	s := &Server{
		p:      p,
		loader: loader,
		engine: eng,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/dataset", s.handleDataset)
	s.mux.HandleFunc("GET /api/tickers", s.handleTickers)
	s.mux.HandleFunc("GET /api/range", s.handleRange)
	s.mux.HandleFunc("GET /api/view", s.handleView)
	s.mux.HandleFunc("POST /api/cache/clear", s.handleClearCache)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the API with request logging and panic recovery.
func (s *Server) Handler() http.Handler {
	return requestLogger(recoverer(s.mux))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.p.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.p.ReadTimeout,
		WriteTimeout: s.p.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", s.p.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info(ctx, "Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*types.Dataset, bool) {
	ds, err := s.loader.Load(r.Context(), s.p.Descriptor)
	if err != nil {
		logger.ErrorWithErr(r.Context(), "Dataset load failed", err, "request_id", RequestID(r.Context()))
		status := http.StatusInternalServerError
		if errors.Is(err, dataset.ErrNoValidData) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return nil, false
	}
	return ds, true
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"descriptor":   ds.Descriptor,
		"files":        ds.Files,
		"skipped":      ds.Skipped,
		"dropped_rows": ds.DroppedRows,
		"rows":         ds.Table.Len(),
	})
}

func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickers": ds.Table.Tickers()})
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.load(w, r)
	if !ok {
		return
	}
	min, max, ok := ds.Table.DateRange()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"start": nil, "end": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"start": min, "end": max})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.load(w, r)
	if !ok {
		return
	}

	spec, err := s.parseSpec(r, ds.Table)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := s.engine.Query(r.Context(), ds.Table, spec)
	writeJSON(w, http.StatusOK, toViewResponse(res))
}

// parseSpec reads tickers, start, end and policy from the query string.
// Missing values fall back to the configured defaults, then to the
// table's full date range.
func (s *Server) parseSpec(r *http.Request, t *types.Table) (types.FilterSpec, error) {
	q := r.URL.Query()

	tickers := s.p.Defaults.Tickers
	if raw := q.Get("tickers"); raw != "" {
		tickers = splitList(raw)
	}

	start, end := s.p.Defaults.Start, s.p.Defaults.End
	var err error
	if raw := q.Get("start"); raw != "" {
		if start, err = date.Parse(raw); err != nil {
			return types.FilterSpec{}, fmt.Errorf("invalid start: %w", err)
		}
	}
	if raw := q.Get("end"); raw != "" {
		if end, err = date.Parse(raw); err != nil {
			return types.FilterSpec{}, fmt.Errorf("invalid end: %w", err)
		}
	}

	policy := s.p.Defaults.StartPolicy
	if raw := q.Get("policy"); raw != "" {
		policy = types.StartPolicy(strings.ToUpper(raw))
	}

	spec := engine.DefaultSpec(t, tickers, start, end, policy)
	if err := spec.Validate(); err != nil {
		return types.FilterSpec{}, err
	}
	return spec, nil
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.loader.ClearCache()
	logger.Info(r.Context(), "Dataset cache cleared", "request_id", RequestID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// writeJSON encodes v before writing the header so an encoding failure
// becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.ErrorWithErr(context.Background(), "Failed to encode response", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
