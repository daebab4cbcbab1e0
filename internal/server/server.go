// Package server is the HTTP/WebSocket transport: REST CRUD over the
// store, a live session channel for the meeting co-pilot, and the metrics
// endpoint.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"meetpilot/internal/orchestrator"
	"meetpilot/internal/store"
)

// Server holds the transport's dependencies. The hub it owns is the
// orchestrator's emitter target.
type Server struct {
	store  *store.Store
	orch   *orchestrator.Orchestrator
	hub    *Hub
	logger *zap.Logger
}

// New creates the server. The returned hub's Emit method must be wired as
// the orchestrator's emitter.
func New(st *store.Store, orch *orchestrator.Orchestrator, hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:  st,
		orch:   orch,
		hub:    hub,
		logger: logger.Named("server"),
	}
}

// Router builds the full route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/ws", s.handleWS)

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", s.listEmployees)
			r.Post("/", s.createEmployee)
			r.Get("/{id}", s.getEmployee)
			r.Put("/{id}/profile", s.updateProfile)
			r.Get("/{id}/commitments", s.listCommitments)
			r.Post("/{id}/commitments", s.addCommitment)
			r.Post("/{id}/survey", s.saveSurveyResponse)
		})
		r.Route("/meetings", func(r chi.Router) {
			r.Post("/", s.createMeeting)
			r.Get("/{id}", s.getMeeting)
			r.Put("/{id}/notes", s.updateNotes)
			r.Post("/{id}/end", s.endMeeting)
		})
	})
	return r
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}
