package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/arroyo-downloader/arroyo/internal/core"
)

// Server holds the dependencies of the HTTP API.
type Server struct {
	service core.DownloadService
	token   string
	timeout time.Duration
}

// NewServer creates a Server. An empty token disables authentication.
func NewServer(service core.DownloadService, token string) *Server {
	return &Server{
		service: service,
		token:   token,
		timeout: 60 * time.Second,
	}
}

// Router sets up and returns the API router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(corsMiddleware)

	r.Get("/api/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/api", func(r chi.Router) {
			r.Get("/downloads", s.handleListDownloads)
			r.Post("/downloads", s.handleAddDownload)
			r.Get("/downloads/{id}", s.handleGetDownload)
			r.Delete("/downloads/{id}", s.handleCancelDownload)
			r.Post("/downloads/{id}/archive", s.handleArchiveDownload)
			r.Get("/downloads/{id}/history", s.handleDownloadHistory)
			r.Post("/sync", s.handleSync)
		})
	})

	return r
}

// NewHTTPServer wraps the router in an http.Server listening on addr.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
