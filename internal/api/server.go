package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pairpad/internal/catalog"
)

// Registry exposes the connection counters the API reports.
type Registry interface {
	Stats() map[string]int
}

// Server serves the read-only catalog API and health endpoints next to the
// WebSocket relay. No relay traffic flows through here.
type Server struct {
	store    *catalog.Store
	registry Registry
	mux      *http.ServeMux
}

// NewServer creates the API server over the catalog store and registry.
func NewServer(store *catalog.Store, registry Registry) *Server {
	s := &Server{
		store:    store,
		registry: registry,
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.Handle("/api/questions", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleQuestions))))
	s.mux.Handle("/api/questions/", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleQuestionByID))))
	s.mux.Handle("/api/languages", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleLanguages))))
	s.mux.Handle("/api/stats", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleStats))))
	s.mux.Handle("/health", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.healthCheck))))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Database    string         `json:"database"`
	Connections map[string]int `json:"connections"`
}

// handleQuestions serves GET /api/questions, the full catalog in order.
func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	questions, err := s.store.Questions(r.Context())
	if err != nil {
		s.sendError(w, "Failed to load questions", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"questions": questions})
}

// handleQuestionByID serves GET /api/questions/{id}.
func (s *Server) handleQuestionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/questions/")
	if id == "" || strings.Contains(id, "/") {
		s.sendError(w, "Question ID required", http.StatusBadRequest)
		return
	}

	question, err := s.store.Question(r.Context(), id)
	if errors.Is(err, catalog.ErrQuestionNotFound) {
		s.sendError(w, "Question not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.sendError(w, "Failed to load question", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(question)
}

// handleLanguages serves GET /api/languages.
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	languages, err := s.store.Languages(r.Context())
	if err != nil {
		s.sendError(w, "Failed to load languages", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"languages": languages})
}

// handleStats serves GET /api/stats with live connection counters.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	json.NewEncoder(w).Encode(s.registry.Stats())
}

// healthCheck serves GET /health with catalog store connectivity included.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	dbStatus := "healthy"
	if err := s.store.HealthCheck(ctx); err != nil {
		status = "unhealthy"
		dbStatus = fmt.Sprintf("error: %v", err)
	}

	response := healthResponse{
		Status:      status,
		Timestamp:   time.Now(),
		Database:    dbStatus,
		Connections: s.registry.Stats(),
	}

	if status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}

func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
