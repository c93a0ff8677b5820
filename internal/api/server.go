// Package api exposes a small admin surface over the crawler: health,
// crawl counters, and a manual trigger.
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wafflestudio/siksha-crawler/internal/observability"
	syncjob "github.com/wafflestudio/siksha-crawler/internal/sync"
)

type Server struct {
	router *chi.Mux
	job    *syncjob.Job

	// One crawl at a time; the trigger returns 409 while a run is active.
	running sync.Mutex
}

func NewServer(job *syncjob.Job) *Server {
	s := &Server{
		router: chi.NewRouter(),
		job:    job,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/stats", s.handleStats)
	s.router.Post("/crawl", s.handleCrawl)
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, observability.Snapshot())
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	if !s.running.TryLock() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "crawl already running"})
		return
	}
	defer s.running.Unlock()

	status := s.job.Run(r.Context())
	code := http.StatusOK
	if status != syncjob.StatusSucceeded {
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, map[string]string{"status": status})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
