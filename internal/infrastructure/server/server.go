package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	handlers "github.com/GriffinCanCode/awardtoken/internal/api/http"
	"github.com/GriffinCanCode/awardtoken/internal/api/middleware"
	"github.com/GriffinCanCode/awardtoken/internal/domain/token"
	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/config"
	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/logging"
	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/awardtoken/internal/providers/browser"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	provider *browser.Provider
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing award token server",
		zap.String("port", cfg.Server.Port),
		zap.String("base_url", cfg.Token.BaseURL),
		zap.Bool("headless", cfg.Browser.Headless),
	)

	// Metrics first, the breaker callback publishes into them
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("awardtoken", logger.Logger)

	script, err := token.NewScript(cfg.Token.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile token script: %w", err)
	}

	provider := browser.New(logger.Named("browser").Logger, cfg.Browser.IdleWindow)

	service := token.NewService(provider, script, token.Options{
		HomeURL:         cfg.Token.BaseURL,
		Bin:             cfg.Browser.Bin,
		Headless:        cfg.Browser.Headless,
		Stealth:         cfg.Browser.Stealth,
		ExtraFlags:      cfg.Browser.ExtraFlags,
		HomeTimeout:     cfg.Browser.HomeTimeout,
		TargetTimeout:   cfg.Browser.TargetTimeout,
		EvaluateTimeout: cfg.Browser.EvaluateTimeout,
	}, logger.Named("token").Logger).
		WithMetrics(metrics).
		WithTracer(tracer)

	h := handlers.NewHandlers(service, token.DecodeOptions{
		CookieDomain:   cfg.Token.CookieDomain,
		DefaultAwardID: cfg.Token.DefaultAwardID,
	}, metrics, logger.Logger).WithSessions(provider)

	if cfg.Breaker.Enabled {
		breaker := newLaunchBreaker(cfg.Breaker, metrics, logger)
		service.WithBreaker(breaker)
		h.WithBreaker(breaker)
		logger.Info("Browser launch breaker enabled",
			zap.Uint32("max_failures", cfg.Breaker.MaxFailures),
			zap.Duration("open_timeout", cfg.Breaker.OpenTimeout),
		)
	}

	router := newRouter(cfg, h, metrics, tracer, logger.Logger)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		provider: provider,
		tracer:   tracer,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

func newRouter(cfg *config.Config, h *handlers.Handlers, metrics *monitoring.Metrics, tracer *tracing.Tracer, logger *zap.Logger) *gin.Engine {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.POST("/get-token", h.GetToken)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router
}

func newLaunchBreaker(cfg config.BreakerConfig, metrics *monitoring.Metrics, logger *logging.Logger) *resilience.Breaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 1
	}

	return resilience.New("browser-launch", resilience.Settings{
		Cooldown: cfg.OpenTimeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A client hanging up mid-launch says nothing about the browser
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			metrics.SetBreakerState(int(to))
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops. A clean Shutdown
// returns nil.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Close gracefully shuts down the server, then any browsers still running
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to shut down http server: %w", err))
	}

	if err := s.provider.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to close browsers", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to close browsers: %w", err))
	}

	s.tracer.Close()
	_ = s.logger.Sync()

	return errors.Join(errs...)
}
