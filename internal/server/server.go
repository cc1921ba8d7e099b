// Package server exposes the feature selector over HTTP.
//
// Every POST /select builds a fresh selector, so requests never share reduction state.
// Completed runs are written to the optional run store and counted on /metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"featsel/internal/cfg"
	"featsel/internal/dataset"
	"featsel/internal/estimator"
	"featsel/internal/metrics"
	"featsel/internal/selector"
	"featsel/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

const (
	maxBodyBytes     = 32 << 20
	defaultRunsLimit = 20
)

// Server serves the selection API.
type Server struct {
	settings cfg.Settings
	store    *storage.Store
	metrics  *metrics.Wrapper
	handler  http.Handler
	server   *http.Server
}

// New creates a server. store may be nil, which disables run history. A nil registry
// gets a private one so several servers can coexist in one process.
func New(settings cfg.Settings, store *storage.Store, registry *prometheus.Registry) *Server {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		settings: settings,
		store:    store,
		metrics:  metrics.NewWrapper(metrics.NewWithRegistry(registry)),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/select", s.instrument("select", s.handleSelect))
	mux.HandleFunc("/health", s.instrument("health", s.handleHealth))
	mux.HandleFunc("/runs", s.instrument("runs", s.handleRuns))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s.handler = mux

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", settings.ServerPort),
		Handler:      mux,
		ReadTimeout:  settings.RequestTimeout,
		WriteTimeout: settings.RequestTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP requests. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Bool("storage", s.store != nil).Msg("starting selection server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var req SelectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	X, names, err := validateRequest(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	kind, est, err := s.estimatorFor(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sel, err := selector.NewWithMetrics(est, s.selectorConfig(&req), s.metrics)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := sel.FitTransform(X, req.Labels)
	if err != nil {
		log.Error().Err(err).Str("request_id", req.RequestID).Msg("selection failed")
		http.Error(w, fmt.Sprintf("selection failed: %v", err), statusFor(err))
		return
	}

	support, _ := sel.Support()
	trace, _ := sel.Trace()
	reduced, err := sel.ReducedNames(names)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	selected := dataset.Select(reduced, support)

	resp := SelectResponse{
		Features:      dataset.Rows(out),
		Support:       support,
		SelectedNames: selected,
		ReducedNames:  reduced,
		Importances:   sel.Importances(),
		NumberLogs:    sel.NumberLogs(),
		Threshold:     sel.Threshold(),
		Estimator:     kind,
		Trace:         trace,
		RequestID:     req.RequestID,
	}
	if resp.Features == nil {
		resp.Features = [][]float64{}
	}

	if s.store != nil {
		run, err := s.store.SaveRun(storage.RunRecord{
			Source:             "http",
			Estimator:          kind,
			InputColumns:       names,
			ReducedColumns:     reduced,
			OutputColumns:      selected,
			Importances:        resp.Importances,
			Support:            support,
			NumberLogs:         resp.NumberLogs,
			Threshold:          resp.Threshold,
			ApplyNormalization: s.selectorConfig(&req).ApplyNormalization,
			Rows:               len(req.Features),
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to store run")
		} else {
			resp.RunID = run.ID
			s.metrics.RunsStoredInc()
		}
	}

	resp.Latency = float64(time.Since(start).Milliseconds())

	log.Debug().
		Str("request_id", req.RequestID).
		Str("estimator", kind).
		Int("input_columns", len(names)).
		Int("output_columns", len(selected)).
		Msg("selection served")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Estimator: s.settings.Estimator,
		Storage:   s.store != nil,
		Timestamp: time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "run history is disabled", http.StatusNotFound)
		return
	}

	if r.Method == http.MethodDelete {
		s.deleteRun(w, r.URL.Query().Get("id"))
		return
	}

	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, fmt.Sprintf("invalid limit %q", v), http.StatusBadRequest)
			return
		}
		limit = n
	}

	if id := r.URL.Query().Get("id"); id != "" {
		run, err := s.store.GetRun(id)
		if errors.Is(err, storage.ErrRunNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(run)
		return
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []storage.RunRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

func (s *Server) deleteRun(w http.ResponseWriter, id string) {
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	err := s.store.DeleteRun(id)
	if errors.Is(err, storage.ErrRunNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Info().Str("run_id", id).Msg("run deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) selectorConfig(req *SelectRequest) selector.Config {
	config := s.settings.SelectorConfig()
	if req.Threshold != nil {
		config.Threshold = *req.Threshold
	}
	if req.NumberLogs != nil {
		config.NumberLogs = *req.NumberLogs
	}
	if req.ApplyNormalization != nil {
		config.ApplyNormalization = *req.ApplyNormalization
	}
	return config
}

func (s *Server) estimatorFor(req *SelectRequest) (string, selector.Estimator, error) {
	if len(req.Importances) > 0 {
		return estimator.KindStatic, estimator.NewStatic(req.Importances), nil
	}

	kind := req.Estimator
	if kind == "" {
		kind = s.settings.Estimator
	}
	est, err := estimator.New(kind, s.settings.EstimatorConfig())
	if err != nil {
		return "", nil, err
	}
	return kind, est, nil
}

// validateRequest builds the feature matrix and column names. Missing names become
// f0, f1, ...
func validateRequest(req *SelectRequest) (*mat.Dense, []string, error) {
	if len(req.Features) == 0 || len(req.Features[0]) == 0 {
		return nil, nil, errors.New("features cannot be empty")
	}
	X, err := dataset.FromRows(req.Features)
	if err != nil {
		return nil, nil, err
	}
	rows, cols := X.Dims()

	if len(req.Importances) == 0 && len(req.Labels) != rows {
		return nil, nil, fmt.Errorf("got %d labels for %d rows", len(req.Labels), rows)
	}
	if len(req.Importances) > 0 && len(req.Importances) != cols {
		return nil, nil, fmt.Errorf("got %d importances for %d columns", len(req.Importances), cols)
	}

	names := req.FeatureNames
	if len(names) == 0 {
		names = make([]string, cols)
		for i := range names {
			names[i] = "f" + strconv.Itoa(i)
		}
	}
	if len(names) != cols {
		return nil, nil, fmt.Errorf("got %d feature names for %d columns", len(names), cols)
	}

	return X, names, nil
}

// statusFor maps selection errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, selector.ErrDimensionMismatch),
		errors.Is(err, selector.ErrNoRows),
		errors.Is(err, selector.ErrInvalidConfig),
		errors.Is(err, estimator.ErrEmptyInput),
		errors.Is(err, estimator.ErrLengthMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts requests per handler and status code.
func (s *Server) instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.HTTPRequestInc(name, rec.status)
	}
}
