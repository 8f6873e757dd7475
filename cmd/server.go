package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/mining-intel/internal/metrics"
	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/internal/orchestrator"
	"github.com/sells-group/mining-intel/internal/progress"
	"github.com/sells-group/mining-intel/internal/store"
)

// pinger is implemented by stores that can check their connection.
type pinger interface {
	Ping(ctx context.Context) error
}

// server exposes progress, run triggering and run history over HTTP.
type server struct {
	// baseCtx outlives requests; runs started over HTTP use it.
	baseCtx   context.Context
	progress  *progress.Reporter
	runner    *orchestrator.Runner
	runs      store.RunStore
	metrics   *metrics.Pipeline
	pipelines func(kind string) orchestrator.RunFunc
}

// routes builds the HTTP handler.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Get("/progress", s.handleProgress)
	r.Get("/runs", s.handleListRuns)
	r.Post("/runs/{kind}", s.handleStartRun)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

// observe records request counts and latency by route pattern.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveHTTP(r.Method, route, strconv.Itoa(status), time.Since(start))
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if p, ok := s.runs.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			zap.L().Warn("health: store ping failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": "store unreachable"})
			return
		}
	}
	if active := s.runner.Active(); active != nil {
		body["active_run"] = active.ID
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.progress.Get())
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{
		Kind:   model.RunKind(q.Get("kind")),
		Status: model.RunStatus(q.Get("status")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	fn := s.pipelines(kind)
	if fn == nil {
		writeError(w, http.StatusNotFound, "unknown run kind "+strconv.Quote(kind))
		return
	}

	run, err := s.runner.Start(s.baseCtx, model.RunKind(kind), fn)
	if errors.Is(err, orchestrator.ErrRunActive) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      err.Error(),
			"active_run": s.runner.Active(),
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	zap.L().Info("run accepted", zap.String("run_id", run.ID), zap.String("kind", kind))
	writeJSON(w, http.StatusAccepted, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
