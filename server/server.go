package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

// Server is the scoring HTTP server backed by Gin, serving one fitted
// pipeline over HTTP/2 cleartext.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *Config
	artifact   *Artifact
	metrics    *observability.Metrics
	log        *logger.Logger
}

// New creates a scoring server over the given artifact and registers
// its routes. Auth on /v1 is enabled when the config carries a secret.
func New(cfg *Config, artifact *Artifact, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), tracing())

	// h2c lets HTTP/2 clients connect without TLS.
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      h2c.NewHandler(engine, h2s),
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
		},
		engine:   engine,
		config:   cfg,
		artifact: artifact,
		log:      log.WithComponent("server"),
	}
	s.registerRoutes()
	return s
}

// tracing wraps each request in an HTTP span so pipeline spans created
// by the handlers nest under it.
func tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanHTTP)
		defer span.End()

		observability.SetSpanAttribute(ctx, "http.method", c.Request.Method)
		observability.SetSpanAttribute(ctx, "http.path", c.FullPath())

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		observability.SetSpanAttribute(ctx, "http.status", c.Writer.Status())
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	v1 := s.engine.Group("/v1")
	if s.config.AuthSecret != "" {
		v1.Use(Auth(s.config.AuthSecret))
	}
	v1.GET("/pipeline", s.handlePipelineInfo)
	v1.POST("/apply", s.handleApply)
	v1.POST("/apply/batch", s.handleApplyBatch)
}

// SetMetrics attaches metric instruments so apply requests are counted
// and timed. Without it the server serves fine and records nothing.
func (s *Server) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// Engine returns the underlying Gin engine. Used by tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start binds the port and begins serving. It returns once the listener
// is bound so the caller knows the port is ready; serving continues in
// a goroutine. When configured, the artifact watcher starts here too.
func (s *Server) Start(ctx context.Context) error {
	if s.config.WatchArtifact {
		if err := s.artifact.Watch(ctx); err != nil {
			return err
		}
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
	}()

	s.log.Info("scoring server started", map[string]interface{}{
		"addr":     s.httpServer.Addr,
		"artifact": s.artifact.Path(),
		"auth":     s.config.AuthSecret != "",
	})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down scoring server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
