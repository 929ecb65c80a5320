package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/surge-devops/surge/internal/collect"
)

// Server serves /metrics, /healthz and /snapshot.
type Server struct {
	exporter *Exporter
	gatherer prometheus.Gatherer
	router   *mux.Router

	mu     sync.RWMutex
	latest *collect.Snapshot
}

// NewServer wires the routes for exporter and gatherer.
func NewServer(exporter *Exporter, gatherer prometheus.Gatherer) *Server {
	s := &Server{exporter: exporter, gatherer: gatherer, router: mux.NewRouter()}
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/snapshot", s.handleSnapshot).Methods("GET")
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.router }

// Sink records snap as the latest snapshot and updates the gauges. It
// matches scheduler.Sink.
func (s *Server) Sink(_ context.Context, snap *collect.Snapshot) error {
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()
	s.exporter.Update(snap)
	return nil
}

// Latest returns the most recent snapshot, or nil.
func (s *Server) Latest() *collect.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("exporter listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("exporter shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	latest := s.Latest()
	resp := map[string]any{"status": "healthy"}
	if latest != nil {
		resp["last_collection"] = latest.TakenAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	latest := s.Latest()
	if latest == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot collected yet"})
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}
