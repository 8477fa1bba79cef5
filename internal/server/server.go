package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/raaihank/redactview/internal/cache"
	"github.com/raaihank/redactview/internal/config"
	"github.com/raaihank/redactview/internal/detect"
	"github.com/raaihank/redactview/internal/engine"
	"github.com/raaihank/redactview/internal/logger"
	"github.com/raaihank/redactview/internal/store"
	"github.com/raaihank/redactview/internal/web"
	"github.com/raaihank/redactview/internal/websocket"
	"go.uber.org/zap"
)

// Server is the redaction review HTTP server: it exposes the detection
// endpoint, the session operations of the redaction engine, and the live
// event stream for the dashboard.
type Server struct {
	config   *config.Config
	logger   *logger.Logger
	service  *detect.Service
	sessions *engine.Manager
	audit    *store.AuditStore // nil when auditing is disabled
	cache    *cache.ResultCache
	router   *mux.Router
	server   *http.Server
	wsHub    *websocket.Hub
	limiter  *ipRateLimiter
	started  time.Time

	// Most recently analyzed text, for the plain text store endpoints.
	textMu sync.RWMutex
	text   string
}

// New creates a new server instance
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	var resultCache *cache.ResultCache
	if cfg.Cache.Enabled {
		var err error
		resultCache, err = cache.New(cfg.Cache, log.WithComponent("cache").Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
	}

	service, err := detect.NewService(cfg.Detector, resultCache, log.WithComponent("detect"))
	if err != nil {
		return nil, fmt.Errorf("failed to create detection service: %w", err)
	}

	var auditStore *store.AuditStore
	if cfg.Audit.Enabled {
		auditStore, err = store.New(cfg.Audit, log.WithComponent("audit").Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create audit store: %w", err)
		}
	}

	wsHub := websocket.NewHub(&websocket.HubConfig{
		BroadcastDetections:  cfg.WebSocket.Events.BroadcastDetections,
		BroadcastToggles:     cfg.WebSocket.Events.BroadcastToggles,
		BroadcastSystem:      cfg.WebSocket.Events.BroadcastSystem,
		BroadcastConnections: cfg.WebSocket.Events.BroadcastConnections,
		AllowedOrigins:       cfg.WebSocket.AllowedOrigins,
	}, log.WithComponent("websocket").Logger)

	server := &Server{
		config:   cfg,
		logger:   log.WithComponent("server"),
		service:  service,
		sessions: engine.NewManager(),
		audit:    auditStore,
		cache:    resultCache,
		router:   mux.NewRouter(),
		wsHub:    wsHub,
		limiter:  newIPRateLimiter(cfg.RateLimit),
		started:  time.Now(),
	}

	server.setupRoutes()

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Info endpoint
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	// Dashboard
	s.router.HandleFunc("/", web.ServeDashboard).Methods("GET")
	s.router.HandleFunc("/dashboard", web.ServeDashboard).Methods("GET")

	// WebSocket endpoint for dashboard
	s.router.HandleFunc("/ws", s.handleWebSocket).Methods("GET")

	// Detection endpoint
	check := s.router.PathPrefix("/check").Subrouter()
	check.Use(s.loggingMiddleware, s.rateLimitMiddleware)
	check.HandleFunc("", s.handleCheck).Methods("POST")

	// Audit and cache management
	s.router.HandleFunc("/runs", s.handleRecentRuns).Methods("GET")
	s.router.HandleFunc("/cache/clear", s.handleClearCache).Methods("POST")

	// Plain text store
	text := s.router.PathPrefix("/text").Subrouter()
	text.Use(s.loggingMiddleware)
	text.HandleFunc("", s.handleSetText).Methods("POST")
	text.HandleFunc("", s.handleGetText).Methods("GET")

	// Session operations
	sessions := s.router.PathPrefix("/sessions").Subrouter()
	sessions.Use(s.loggingMiddleware)
	sessions.HandleFunc("", s.handleCreateSession).Methods("POST")
	sessions.HandleFunc("/{id}", s.handleDeleteSession).Methods("DELETE")
	sessions.HandleFunc("/{id}/analyze", s.handleAnalyze).Methods("POST")
	sessions.HandleFunc("/{id}/toggle", s.handleToggle).Methods("POST")
	sessions.HandleFunc("/{id}/toggle-label", s.handleToggleLabel).Methods("POST")
	sessions.HandleFunc("/{id}/view", s.handleView).Methods("GET")
}

// Handler returns the root handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting redactview server",
		zap.Int("port", s.config.Server.Port),
		zap.String("detector_mode", s.config.Detector.Mode),
		zap.Bool("cache_enabled", s.config.Cache.Enabled),
		zap.Bool("audit_enabled", s.config.Audit.Enabled),
	)

	// Start WebSocket hub in a separate goroutine
	go s.wsHub.Run()
	s.limiter.StartCleanupRoutine()

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server and closes backends
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping redactview server")

	err := s.server.Shutdown(ctx)

	if s.cache != nil {
		if cerr := s.cache.Close(); cerr != nil {
			s.logger.Error("Failed to close result cache", zap.Error(cerr))
		}
	}
	if s.audit != nil {
		if aerr := s.audit.Close(); aerr != nil {
			s.logger.Error("Failed to close audit store", zap.Error(aerr))
		}
	}

	return err
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":          "redactview",
		"version":       "0.1.0",
		"detector_mode": s.service.Mode(),
		"rules":         s.service.RuleNames(),
		"sessions":      s.sessions.Count(),
		"uptime":        time.Since(s.started).String(),
	}

	if s.cache != nil {
		info["cache"] = s.cache.Stats()
	}

	writeJSON(w, http.StatusOK, info)
}

// handleWebSocket handles WebSocket connections for the dashboard
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.config.WebSocket.Enabled {
		http.Error(w, "WebSocket disabled", http.StatusNotFound)
		return
	}
	s.wsHub.HandleWebSocket(w, r)
}

// GetWebSocketHub returns the WebSocket hub for broadcasting events
func (s *Server) GetWebSocketHub() *websocket.Hub {
	return s.wsHub
}
