// Package server wires the gin engine and runs the HTTP listener.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-v2/recommender/internal/api"
	"github.com/pageza/alchemorsel-v2/recommender/internal/middleware"
	"github.com/pageza/alchemorsel-v2/recommender/internal/service"
)

// DefaultMaxBodyBytes bounds a request body
const DefaultMaxBodyBytes = 1 << 20

// Options configures the HTTP server
type Options struct {
	Addr            string
	CORSOrigins     []string
	MaxBodyBytes    int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// Ready backs GET /ready when set
	Ready func(ctx context.Context) error
}

func (o *Options) setDefaults() {
	if o.Addr == "" {
		o.Addr = ":8080"
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 10 * time.Second
	}
	// plan generation waits on the third-party API
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 30 * time.Second
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 5 * time.Second
	}
}

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	opts   Options
	logger *zap.Logger
}

// New creates a server with the recommender routes. limiter may be nil.
func New(opts Options, mealPlans service.IMealPlanService, limiter gin.HandlerFunc, logger *zap.Logger) *Server {
	opts.setDefaults()

	router := gin.New()
	router.Use(
		requestid.New(),
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.BodySizeLimit(opts.MaxBodyBytes, logger),
	)

	var limits []gin.HandlerFunc
	if limiter != nil {
		limits = append(limits, limiter)
	}
	api.RegisterRoutes(router, mealPlans, validator.New(), logger, limits...)
	if opts.Ready != nil {
		router.GET("/ready", readiness(opts.Ready, logger))
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:         opts.Addr,
			Handler:      router,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		},
		opts:   opts,
		logger: logger.With(zap.String("component", "server")),
	}
}

func readiness(check func(ctx context.Context) error, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := check(ctx); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until the server is stopped. A clean stop returns nil.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.opts.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.http.Shutdown(ctx)
}
