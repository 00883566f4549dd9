// Package http exposes the JSON API. All business routes are JWT-protected
// and workspace-scoped; only registration, login and the health probes are
// public.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tally/internal/auth"
	"tally/internal/cache"
	"tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"

	"github.com/gorilla/mux"
)

type Server struct {
	httpServer *http.Server
	router     *mux.Router

	repo      *storage.Repository
	expenses  *services.ExpenseService
	generator *services.Generator
	auth      *auth.Manager
	logger    *log.Logger
	limiter   *rateLimiter

	budgetCache *cache.TTLCache[budgetResponse]
	burnCache   *cache.TTLCache[burnResponse]
}

func NewServer(port string, repo *storage.Repository, expenses *services.ExpenseService,
	generator *services.Generator, authManager *auth.Manager, logger *log.Logger) *Server {

	s := &Server{
		router:      mux.NewRouter(),
		repo:        repo,
		expenses:    expenses,
		generator:   generator,
		auth:        authManager,
		logger:      logger.WithComponent(log.ComponentHTTP),
		limiter:     newRateLimiter(),
		budgetCache: cache.New[budgetResponse](256, 5*time.Minute),
		burnCache:   cache.New[burnResponse](256, 5*time.Minute),
	}
	s.routes()

	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(log.Middleware(s.logger))
	s.router.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			return id
		}
		return generateRequestID()
	}))
	s.router.Use(s.withCommon)

	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)
	s.router.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	s.router.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.requireAuth)

	api.HandleFunc("/workspace", s.handleGetWorkspace).Methods(http.MethodGet)
	api.HandleFunc("/workspace", s.handleUpdateWorkspace).Methods(http.MethodPut)

	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id}", s.handleUpdateCategory).Methods(http.MethodPut)
	api.HandleFunc("/categories/{id}", s.handleDeleteCategory).Methods(http.MethodDelete)

	api.HandleFunc("/bank-accounts", s.handleListBankAccounts).Methods(http.MethodGet)
	api.HandleFunc("/bank-accounts", s.handleCreateBankAccount).Methods(http.MethodPost)
	api.HandleFunc("/bank-accounts/{id}", s.handleUpdateBankAccount).Methods(http.MethodPut)
	api.HandleFunc("/bank-accounts/{id}", s.handleDeleteBankAccount).Methods(http.MethodDelete)

	api.HandleFunc("/keyword-mappings", s.handleListKeywordMappings).Methods(http.MethodGet)
	api.HandleFunc("/keyword-mappings", s.handleCreateKeywordMapping).Methods(http.MethodPost)
	api.HandleFunc("/keyword-mappings/{id}", s.handleUpdateKeywordMapping).Methods(http.MethodPut)
	api.HandleFunc("/keyword-mappings/{id}", s.handleDeleteKeywordMapping).Methods(http.MethodDelete)

	api.HandleFunc("/projects", s.handleListProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects", s.handleCreateProject).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", s.handleUpdateProject).Methods(http.MethodPut)
	api.HandleFunc("/projects/{id}", s.handleDeleteProject).Methods(http.MethodDelete)

	api.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/quick-add", s.handleQuickAdd).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id}", s.handleGetExpense).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id}", s.handleUpdateExpense).Methods(http.MethodPut)
	api.HandleFunc("/expenses/{id}", s.handleDeleteExpense).Methods(http.MethodDelete)

	api.HandleFunc("/recurring-templates", s.handleListTemplates).Methods(http.MethodGet)
	api.HandleFunc("/recurring-templates", s.handleCreateTemplate).Methods(http.MethodPost)
	api.HandleFunc("/recurring-templates/generate", s.handleGenerate).Methods(http.MethodPost)
	api.HandleFunc("/recurring-templates/{id}", s.handleUpdateTemplate).Methods(http.MethodPut)
	api.HandleFunc("/recurring-templates/{id}", s.handleDeleteTemplate).Methods(http.MethodDelete)

	api.HandleFunc("/imports", s.handleListImports).Methods(http.MethodGet)
	api.HandleFunc("/imports", s.handleCreateImport).Methods(http.MethodPost)

	api.HandleFunc("/dashboard/budget", s.handleDashboardBudget).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/burn", s.handleDashboardBurn).Methods(http.MethodGet)
}

// Handler exposes the router, used by the httptest-based tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.repo.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// invalidateDashboards drops a workspace's cached dashboard views after any
// expense write.
func (s *Server) invalidateDashboards(workspaceID string) {
	s.budgetCache.InvalidatePrefix("budget:" + workspaceID + ":")
	s.burnCache.InvalidatePrefix("burn:" + workspaceID + ":")
}
