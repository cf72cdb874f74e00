package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dukapulse/dukapulse/internal/application"
	"github.com/dukapulse/dukapulse/internal/config"
	"github.com/dukapulse/dukapulse/internal/telemetry/metrics"
)

// Server exposes the engine's results to the dashboard widgets. The
// surface is deliberately small: read endpoints per widget, acknowledge
// and dismiss actions, health, Prometheus metrics, and a WebSocket feed.
type Server struct {
	router  *mux.Router
	server  *http.Server
	engine  *application.Engine
	hub     *Hub
	limiter *rate.Limiter
	config  config.ServerConfig
}

// NewServer wires the router against an engine.
func NewServer(cfg config.ServerConfig, engine *application.Engine, telem *metrics.Registry) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		engine:  engine,
		hub:     NewHub(engine, telem),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		config:  cfg,
	}

	s.setupRoutes(telem)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  cfg.IdleTimeout(),
	}

	return s
}

func (s *Server) setupRoutes(telem *metrics.Registry) {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.rateLimitMiddleware)
	s.router.Use(s.timeoutMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", telem.Handler()).Methods("GET")
	s.router.HandleFunc("/ws", s.hub.HandleWS)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)

	api.HandleFunc("/alerts", s.handleAlerts).Methods("GET")
	api.HandleFunc("/alerts/{id}/acknowledge", s.handleAcknowledge).Methods("POST")
	api.HandleFunc("/alerts/{id}/dismiss", s.handleDismiss).Methods("POST")
	api.HandleFunc("/insights", s.handleInsights).Methods("GET")
	api.HandleFunc("/forecast", s.handleForecast).Methods("GET")
	api.HandleFunc("/trends", s.handleTrends).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"last_tick": s.engine.Latest().Tick,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	res := s.engine.Latest()
	writeJSON(w, http.StatusOK, map[string]any{
		"tick":   res.Tick,
		"alerts": orEmpty(res.Alerts),
	})
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.engine.Acknowledge(id) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no live alert with id %q", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": id})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.engine.Dismiss(id) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no live alert with id %q", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dismissed": id})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	res := s.engine.Latest()
	writeJSON(w, http.StatusOK, map[string]any{
		"tick":     res.Tick,
		"insights": orEmpty(res.Insights),
	})
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	res := s.engine.Latest()
	writeJSON(w, http.StatusOK, map[string]any{
		"tick":     res.Tick,
		"forecast": res.Forecast,
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	res := s.engine.Latest()
	writeJSON(w, http.StatusOK, map[string]any{
		"tick":   res.Tick,
		"trends": orEmpty(res.Trends),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeError(w, http.StatusNotFound, "unknown endpoint")
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		requestID, _ := r.Context().Value(requestIDKey{}).(string)
		log.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start begins serving and blocks until shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	s.hub.Run()
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	s.hub.Stop()
	return s.server.Shutdown(ctx)
}

type requestIDKey struct{}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func orEmpty[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
