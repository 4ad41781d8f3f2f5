// Package api exposes the region registry over HTTP: region CRUD, time
// window selection, data source configuration, drawing session control, and
// batch results. Handlers are thin; all domain behavior lives in the
// registry and the pipeline behind it.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/gzhttp"

	"shademap/internal/registry"
)

// Server wires the chi router, middleware chain, and handlers.
type Server struct {
	router   chi.Router
	logger   *slog.Logger
	validate *validator.Validate
	registry *registry.Registry
	drawing  *registry.DrawingSession
}

// NewServer creates the HTTP server around a registry and drawing session.
func NewServer(reg *registry.Registry, drawing *registry.DrawingSession, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		validate: validator.New(),
		registry: reg,
		drawing:  drawing,
	}
	s.mountRoutes()
	return s
}

// Handler returns the complete handler chain with response compression
// applied outermost.
func (s *Server) Handler() http.Handler {
	return gzhttp.GzipHandler(s.router)
}

// mountRoutes registers the middleware chain and all endpoints. Middleware
// order matters: the recoverer is outermost so the logger below it observes
// the synthesized 500.
func (s *Server) mountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.logger))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Route("/regions", func(r chi.Router) {
			r.Get("/", s.handleListRegions)
			r.Post("/", s.handleCreateRegion)
			r.Get("/{id}", s.handleGetRegion)
			r.Delete("/{id}", s.handleDeleteRegion)
			r.Get("/{id}/result", s.handleGetRegionResult)
		})

		r.Route("/window", func(r chi.Router) {
			r.Get("/", s.handleGetWindow)
			r.Put("/", s.handleSetWindow)
		})

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", s.handleListSources)
			r.Post("/{id}/toggle", s.handleToggleSource)
			r.Put("/{id}/field", s.handleSelectField)
			r.Put("/{id}/rules", s.handleUpdateRule)
			r.Delete("/{id}/rules/{ruleID}", s.handleDeleteRule)
			r.Put("/{id}/rules/order", s.handleReorderRules)
		})

		r.Get("/fields", s.handleListFields)
		r.Post("/recompute", s.handleRecompute)

		r.Route("/drawing", func(r chi.Router) {
			r.Post("/start", s.handleDrawingStart)
			r.Post("/vertices", s.handleDrawingVertex)
			r.Post("/layer", s.handleDrawingLayer)
			r.Post("/finish", s.handleDrawingFinish)
			r.Post("/cancel", s.handleDrawingCancel)
		})
	})
}
