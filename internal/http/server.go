package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/karolinespohn/GenDevServer/internal/aggregator"
	"github.com/karolinespohn/GenDevServer/internal/models"
	"github.com/karolinespohn/GenDevServer/internal/prober"
)

// Options configures the HTTP server.
type Options struct {
	Addr        string
	CORSOrigins []string
	// WriteTimeout bounds writing a response, zero disables it. It must
	// exceed the longest provider run or /api/all/offers gets cut off.
	WriteTimeout time.Duration
	// ProbeRequest is used by /test-retrievers when no prober is running.
	ProbeRequest models.OfferRequest
	Aggregator   *aggregator.Aggregator
	// Prober is optional.
	Prober   *prober.Prober
	Metrics  *Metrics
	Gatherer prometheus.Gatherer
}

// Server represents the HTTP server for the offer API, metrics and status endpoints.
type Server struct {
	server  *http.Server
	engine  *gin.Engine
	logger  zerolog.Logger
	metrics *Metrics
}

// NewServer creates a new HTTP server.
func NewServer(opts Options, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "http").Logger()

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("country", validateCountry); err != nil {
			logger.Error().Err(err).Msg("failed to register country validation")
		}
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(RequestLogger(logger, opts.Metrics))
	engine.Use(cors.New(corsConfig(opts.CORSOrigins)))

	offers := NewOfferHandler(opts.Aggregator, opts.Prober, opts.ProbeRequest)
	status := NewStatusHandler(opts.Aggregator, opts.Prober)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	engine.GET("/status", status.Handle)
	engine.GET("/test-retrievers", offers.TestRetrievers)

	apiGroup := engine.Group("/api")
	for _, company := range models.AllCompanies() {
		apiGroup.POST("/"+routeName(company)+"/offers", offers.Single(company))
	}
	apiGroup.POST("/all/offers", offers.All)

	return &Server{
		server: &http.Server{
			Addr:         opts.Addr,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		engine:  engine,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Metrics returns the Prometheus metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// corsConfig allows any origin when origins is empty or contains "*".
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func validateCountry(fl validator.FieldLevel) bool {
	_, err := models.ParseCountry(fl.Field().String())
	return err == nil
}
