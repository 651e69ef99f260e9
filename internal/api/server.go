package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/blockdoc/internal/command"
	"github.com/dgallion1/blockdoc/internal/config"
	"github.com/dgallion1/blockdoc/internal/pathstore"
	"github.com/dgallion1/blockdoc/internal/pipeline"
	"github.com/dgallion1/blockdoc/internal/schema"
	"github.com/dgallion1/blockdoc/internal/session"
)

// Server is the HTTP API server for blockdoc.
type Server struct {
	router       chi.Router
	reg          *schema.Registry
	sessions     *session.Store
	orchestrator *pipeline.Orchestrator
	docs         *pathstore.Documents
	metrics      *Metrics
	log          *slog.Logger
	cfg          config.Config
}

// Deps are the collaborators of a Server. Orchestrator and Docs may be nil,
// which disables generation and persistence routes.
type Deps struct {
	Registry     *schema.Registry
	Sessions     *session.Store
	Orchestrator *pipeline.Orchestrator
	Docs         *pathstore.Documents
	Metrics      *Metrics
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		reg:          deps.Registry,
		sessions:     deps.Sessions,
		orchestrator: deps.Orchestrator,
		docs:         deps.Docs,
		metrics:      deps.Metrics,
		log:          log,
		cfg:          cfg,
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log, s.metrics))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Get("/api/commands", s.handleListCommands)

		r.Post("/api/sessions", s.handleCreateSession)
		r.Get("/api/sessions", s.handleListSessions)
		r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/commands", s.handleExecute)
			r.Put("/selection", s.handleSetSelection)
			r.Post("/undo", s.handleUndo)
			r.Post("/redo", s.handleRedo)
			r.Get("/document", s.handleSerialize)
			r.Put("/document", s.handleLoad)
			r.Get("/outline", s.handleOutline)
			r.Post("/import", s.handleImport)

			if s.docs != nil {
				r.Post("/save", s.handleSaveDocument)
			}
			if s.orchestrator != nil {
				r.Post("/generate", s.handleGenerate)
				r.Get("/jobs", s.handleSessionJobs)
			}
		})

		if s.docs != nil {
			r.Get("/api/documents", s.handleListDocuments)
			r.Post("/api/documents/{docID}/open", s.handleOpenDocument)
			r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		}
		if s.orchestrator != nil {
			r.Get("/api/jobs/{jobID}", s.handleJobStatus)
			r.Delete("/api/jobs/{jobID}", s.handleCancelJob)
			r.Get("/api/stats/generation", s.handleGenerationStats)
		}
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"commands": command.Names()})
}
