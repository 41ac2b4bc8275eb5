// Package api exposes editing sessions over HTTP with gin.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/xraph/invoicer"
	"github.com/xraph/invoicer/api/middleware"
)

// Option configures the router.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	corsOrigins []string
	rateLimit   int
	rateWindow  time.Duration
	maxUpload   int64
	metrics     http.Handler
}

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithCORSOrigins allows browser calls from the given origins. "*" allows any.
func WithCORSOrigins(origins ...string) Option {
	return func(o *options) { o.corsOrigins = origins }
}

// WithRateLimit caps requests per client IP per window. Zero disables.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(o *options) {
		o.rateLimit = requests
		o.rateWindow = window
	}
}

// WithMaxUpload bounds the size of an uploaded export raster.
func WithMaxUpload(bytes int64) Option {
	return func(o *options) { o.maxUpload = bytes }
}

// WithMetrics serves h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(o *options) { o.metrics = h }
}

// NewRouter builds the HTTP handler for eng.
func NewRouter(eng *invoicer.Engine, opts ...Option) *gin.Engine {
	o := options{
		logger:     slog.Default(),
		rateWindow: time.Minute,
		maxUpload:  20 << 20,
	}
	for _, opt := range opts {
		opt(&o)
	}

	h := &Handler{engine: eng, logger: o.logger, maxUpload: o.maxUpload}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	if len(o.corsOrigins) > 0 {
		router.Use(cors.New(corsConfig(o.corsOrigins)))
	}
	if o.rateLimit > 0 {
		router.Use(middleware.RateLimit(o.rateLimit, o.rateWindow))
	}

	router.GET("/healthz", h.Health)
	if o.metrics != nil {
		router.GET("/metrics", gin.WrapH(o.metrics))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/words", h.Words)
		v1.GET("/formats", h.Formats)

		v1.POST("/sessions", h.OpenSession)
		v1.GET("/sessions", h.ListSessions)

		s := v1.Group("/sessions/:session")
		s.Use(h.loadSession)
		{
			s.GET("", h.GetDocument)
			s.DELETE("", h.CloseSession)
			s.PATCH("/document", h.SetFields)
			s.POST("/totals", h.RecalculateTotals)
			s.GET("/words", h.SessionWords)

			s.POST("/items", h.AddItem)
			s.PATCH("/items/:item", h.UpdateItem)
			s.DELETE("/items/:item", h.RemoveItem)

			s.POST("/export", h.ExportPDF)
			s.GET("/render/:format", h.Render)
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
