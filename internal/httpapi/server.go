// Package httpapi exposes the encounter engine over a JSON HTTP surface:
// encounter creation, combat session loading, and every turn-engine intent
// the play view issues, plus explicit snapshot saves.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/loreforge/loreforge/internal/config"
	gamecombat "github.com/loreforge/loreforge/internal/game/combat"
	"github.com/loreforge/loreforge/internal/game/condition"
	"github.com/loreforge/loreforge/internal/game/encounter"
)

// CombatReader is the read/complete persistence surface the API needs beyond
// what the session manager owns.
type CombatReader interface {
	GetByID(ctx context.Context, combatID string) (*gamecombat.Combat, error)
	Complete(ctx context.Context, combatID string) error
}

// HealthChecker reports backing-store reachability for the health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server is the HTTP front end. It implements the lifecycle Service
// interface: Start blocks serving requests until Stop drains and closes the
// listener.
type Server struct {
	logger     *zap.Logger
	httpServer *http.Server
	cfg        config.HTTPConfig

	encounters *encounter.Service
	combats    CombatReader
	manager    *gamecombat.Manager
	conditions *condition.Registry
	health     HealthChecker
}

// NewServer creates the HTTP server with all routes registered.
//
// Precondition: all collaborators must be non-nil except health, which may be
// nil when no backing store is wired (the health endpoint then reports only
// process liveness).
func NewServer(
	cfg config.HTTPConfig,
	logger *zap.Logger,
	encounters *encounter.Service,
	combats CombatReader,
	manager *gamecombat.Manager,
	conditions *condition.Registry,
	health HealthChecker,
) *Server {
	s := &Server{
		logger:     logger,
		cfg:        cfg,
		encounters: encounters,
		combats:    combats,
		manager:    manager,
		conditions: conditions,
		health:     health,
	}

	router := mux.NewRouter()
	s.registerRoutes(router)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) registerRoutes(router *mux.Router) {
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/conditions", s.handleListConditions).Methods(http.MethodGet)

	api.HandleFunc("/combats", s.handleCreateCombat).Methods(http.MethodPost)
	api.HandleFunc("/combats/{id}", s.handleGetCombat).Methods(http.MethodGet)
	api.HandleFunc("/combats/{id}/complete", s.handleCompleteCombat).Methods(http.MethodPost)

	api.HandleFunc("/combats/{id}/session", s.handleLoadSession).Methods(http.MethodPost)
	api.HandleFunc("/combats/{id}/session", s.handleUnloadSession).Methods(http.MethodDelete)

	api.HandleFunc("/combats/{id}/initiative", s.handleRollInitiative).Methods(http.MethodPost)
	api.HandleFunc("/combats/{id}/start", s.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/combats/{id}/next-turn", s.handleNextTurn).Methods(http.MethodPost)
	api.HandleFunc("/combats/{id}/hp", s.handleUpdateHP).Methods(http.MethodPost)
	api.HandleFunc("/combats/{id}/conditions", s.handleAddCondition).Methods(http.MethodPost)
	api.HandleFunc("/combats/{id}/conditions/{conditionID}", s.handleRemoveCondition).Methods(http.MethodDelete)
	api.HandleFunc("/combats/{id}/actions/execute", s.handleExecuteAction).Methods(http.MethodPost)
	api.HandleFunc("/combats/{id}/roll-mode", s.handleSetRollMode).Methods(http.MethodPut)
	api.HandleFunc("/combats/{id}/save", s.handleSave).Methods(http.MethodPost)
}

// Handler returns the configured HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving HTTP requests. It blocks until the server is stopped.
//
// Postcondition: Returns nil on graceful shutdown, or the listener error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("http server shutdown", zap.Error(err))
	}
}
