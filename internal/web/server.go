// Package web provides the HTTP RPC surface for the tabular session:
// command endpoints, the import progress event stream and a health check.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Beekeepers-Inc/rats/internal/config"
	"github.com/Beekeepers-Inc/rats/internal/session"
	mw "github.com/Beekeepers-Inc/rats/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server fronting a single tabular session.
type Server struct {
	session *session.Session
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(sess *session.Session, cfg *config.Config) *Server {
	s := &Server{
		session: sess,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// Security hardening
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Unknown commands and paths get a JSON error, not chi's text 404.
	// Registered before the /api mount: chi copies the handler into
	// subrouters at mount time.
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "unknown route: "+r.URL.Path)
	})

	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.BearerAuth(s.cfg.Security.APIToken))

		// Progress events stream for as long as the client stays
		// connected; the command timeout must not apply here.
		r.Get("/events/import-progress", s.handleImportProgress)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.Server.CommandTimeout))

			r.Post("/command/importFile", s.handleImportFile)
			r.Post("/command/previewFile", s.handlePreviewFile)
			r.Post("/command/listTables", s.handleListTables)
			r.Post("/command/getTableInfo", s.handleGetTableInfo)
			r.Post("/command/queryData", s.handleQueryData)
			r.Post("/command/dropTable", s.handleDropTable)
			r.Post("/command/reorderRows", s.handleReorderRows)
			r.Post("/command/filterData", s.handleFilterData)
			r.Post("/command/createFilteredView", s.handleCreateFilteredView)
			r.Post("/command/groupAndAggregate", s.handleGroupAndAggregate)
			r.Post("/command/getTableStatistics", s.handleGetTableStatistics)
			r.Post("/command/aggregateColumn", s.handleAggregateColumn)
			r.Post("/command/calculateCorrelation", s.handleCalculateCorrelation)
			r.Post("/command/exportToCsv", s.handleExportToCSV)
			r.Post("/command/exportQueryToCsv", s.handleExportQueryToCSV)
			r.Post("/command/exportToExcel", s.handleExportToExcel)
			r.Post("/command/resetSession", s.handleResetSession)
			r.Post("/command/importHistory", s.handleImportHistory)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // zero keeps SSE streams open
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
