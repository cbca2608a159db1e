package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"fsa-anomaly-lab/internal/fsa"
	"fsa-anomaly-lab/internal/logging"
	"fsa-anomaly-lab/internal/sim"
)

// Server exposes the simulator over HTTP: an HTML status page, a JSON API
// for snapshots and lifecycle control, and optionally /metrics.
type Server struct {
	Sim     sim.Controller
	metrics http.Handler
	tpl     *template.Template
	ctx     context.Context
}

//go:embed templates/index.html
var content embed.FS

var funcs = template.FuncMap{
	"display": func(a fsa.AnomalyLabel) string { return a.Display() },
	"event": func(e *fsa.Event) string {
		if e == nil {
			return "-"
		}
		return string(*e)
	},
}

// NewServer wires a server around ctrl. metrics may be nil.
func NewServer(ctrl sim.Controller, metrics http.Handler) *Server {
	tpl := template.Must(template.New("index.html").Funcs(funcs).ParseFS(content, "templates/index.html"))
	return &Server{Sim: ctrl, metrics: metrics, tpl: tpl, ctx: context.Background()}
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/nodes/{id}", s.handleNode)
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/stop", s.handleStop)
	mux.HandleFunc("POST /api/step", s.handleStep)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("POST /api/speed", s.handleSpeed)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// Start serves on addr until ctx is done. The simulation loop started via
// POST /api/start lives as long as ctx.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.ctx = ctx
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	logging.FromContext(ctx).Info("admin server listening", "addr", addr)
	select {
	case err := <-errCh:
		return fmt.Errorf("admin server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("admin shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	data := struct {
		Snap  sim.Snapshot
		Stats sim.Stats
	}{snap, snap.Stats()}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		logging.FromContext(r.Context()).Error("render index", "err", err)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Snapshot())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Snapshot().Stats())
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	node, ok := sim.Registry(s.Sim.Snapshot().Nodes).Lookup(id)
	if !ok {
		http.Error(w, "unknown node: "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	started := s.Sim.Start(s.ctx)
	writeJSON(w, http.StatusOK, map[string]any{"started": started, "running": true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	stopped := s.Sim.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"stopped": stopped, "running": false})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	res := s.Sim.Step(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"tick": res.Tick, "entries": res.Entries, "anomalies": res.Trend.Count})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	n := len(s.Sim.Snapshot().Nodes)
	if v := r.URL.Query().Get("nodes"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid nodes: "+v, http.StatusBadRequest)
			return
		}
		n = parsed
	}
	s.Sim.Reset(n)
	writeJSON(w, http.StatusOK, s.Sim.Snapshot().Stats())
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query().Get("x")
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		http.Error(w, "invalid speed: "+v, http.StatusBadRequest)
		return
	}
	s.Sim.SetSpeed(x)
	writeJSON(w, http.StatusOK, s.Sim.Snapshot().Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
