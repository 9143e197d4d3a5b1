// Package obs exposes a read-only HTTP surface over the engine's published
// state: Prometheus metrics, a JSON state snapshot, and a WebSocket stream of
// the live spectrum for a UI to render. It never touches the engine's
// CommandQueue — commands are the only legal way to mutate engine state, and
// this package only ever reads StateStore snapshots.
package obs

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TenVexAI/soundscapes/internal/audio"
	"github.com/TenVexAI/soundscapes/internal/config"
)

// stateSnapshot is the JSON shape served by GET /state, assembled from the
// four StateStore records.
type stateSnapshot struct {
	Progress       audio.AudioProgress               `json:"progress"`
	Playback       audio.PlaybackState                `json:"playback"`
	ActiveAmbients map[string]audio.ActiveAmbientInfo `json:"active_ambients"`
	CurrentTrack   *audio.CurrentTrackInfo            `json:"current_track,omitempty"`
}

// Server is the observability HTTP surface. It wraps a chi router so routes
// compose the same way the rest of the stack's HTTP surfaces do.
type Server struct {
	httpServer *http.Server
	store      *audio.StateStore
	upgrader   websocket.Upgrader
}

// NewServer builds the router: rate limiting first, then CORS, then routes,
// mirroring the ordering the rest of the stack uses so a flood of requests
// never reaches the heavier CORS/handler logic.
func NewServer(cfg config.ObsConfig, store *audio.StateStore) *Server {
	limiter := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		CleanupInterval:   5 * time.Minute,
	})

	s := &Server{
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(limiter.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET"},
		AllowedHeaders:   []string{"*"},
		MaxAge:           300,
	}))

	r.Get("/state", s.handleState)
	r.Get("/ws/spectrum", s.handleSpectrumWS)
	r.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

// Start runs the HTTP server until the context is canceled, then shuts it
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) snapshot() stateSnapshot {
	return stateSnapshot{
		Progress:       s.store.Progress(),
		Playback:       s.store.Playback(),
		ActiveAmbients: s.store.ActiveAmbients(),
		CurrentTrack:   s.store.CurrentTrack(),
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
		log.Printf("obs: encode state: %v", err)
	}
}

// handleSpectrumWS upgrades to a WebSocket and pushes the playback snapshot
// (which carries both spectrum bucket arrays) every 100ms until the client
// disconnects.
func (s *Server) handleSpectrumWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("obs: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	// Detect client-initiated close without blocking the write loop.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
			if err := conn.WriteJSON(s.store.Playback()); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
