package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"trading-signal-scanner/internal/scanner"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins string
	ProductionMode bool
}

// Server exposes the scanner's state over HTTP and WebSocket
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     ServerConfig
	loop       *scanner.Loop
	hub        *WSHub
	registry   *prometheus.Registry
	logger     zerolog.Logger
}

// NewServer creates the API server. registry may be nil to disable /metrics.
func NewServer(config ServerConfig, loop *scanner.Loop, hub *WSHub, registry *prometheus.Registry, logger zerolog.Logger) *Server {
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if config.AllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(config.AllowedOrigins, ",")
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:   router,
		config:   config,
		loop:     loop,
		hub:      hub,
		registry: registry,
		logger:   logger.With().Str("component", "APIServer").Logger(),
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	apiGroup := s.router.Group("/api/scanner")
	{
		apiGroup.GET("/status", s.handleStatus)
		apiGroup.GET("/results", s.handleResults)
		apiGroup.GET("/signals", s.handleSignals)
		apiGroup.GET("/diagnostics/:symbol", s.handleDiagnostics)
		apiGroup.POST("/scan", s.handleScanNow)
	}

	if s.registry != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	if s.hub != nil {
		s.router.GET("/ws", s.handleWebSocket)
	}
}

// Start runs the HTTP server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("API server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info().Msg("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
