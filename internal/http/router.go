// Package httpapi wires the HTTP transport (Gin) to the quote service,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Every failure, including unknown routes, uses the JSON envelope
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-quotes-api/docs"
	"github.com/tbourn/go-quotes-api/internal/config"
	"github.com/tbourn/go-quotes-api/internal/domain"
	"github.com/tbourn/go-quotes-api/internal/errs"
	"github.com/tbourn/go-quotes-api/internal/http/handlers"
	"github.com/tbourn/go-quotes-api/internal/http/middleware"
	"github.com/tbourn/go-quotes-api/internal/repo"
	"github.com/tbourn/go-quotes-api/internal/services"
	"github.com/tbourn/go-quotes-api/internal/utils"
)

// quoteRepoShim adapts the repository free functions to the
// services.QuoteRepo interface expected by the QuoteService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type quoteRepoShim struct{}

// CountQuotes proxies repo.CountQuotes.
func (quoteRepoShim) CountQuotes(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountQuotes(ctx, db)
}

// ListQuotesPage proxies repo.ListQuotesPage.
func (quoteRepoShim) ListQuotesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Quote, error) {
	return repo.ListQuotesPage(ctx, db, offset, limit)
}

// CreateQuote proxies repo.CreateQuote.
func (quoteRepoShim) CreateQuote(ctx context.Context, db *gorm.DB, author *string, text string) (*domain.Quote, error) {
	return repo.CreateQuote(ctx, db, author, text)
}

// CreateQuoteIdempotent proxies repo.CreateQuoteIdempotent.
func (quoteRepoShim) CreateQuoteIdempotent(ctx context.Context, db *gorm.DB, in repo.IdempotentCreate) (*domain.Quote, bool, error) {
	return repo.CreateQuoteIdempotent(ctx, db, in)
}

// GetQuote proxies repo.GetQuote.
func (quoteRepoShim) GetQuote(ctx context.Context, db *gorm.DB, id int64) (*domain.Quote, error) {
	return repo.GetQuote(ctx, db, id)
}

// DeleteQuote proxies repo.DeleteQuote.
func (quoteRepoShim) DeleteQuote(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	return repo.DeleteQuote(ctx, db, id)
}

// QuotesStats proxies repo.QuotesStats (list ETag support).
func (quoteRepoShim) QuotesStats(ctx context.Context, db *gorm.DB) (int64, int64, error) {
	return repo.QuotesStats(ctx, db)
}

// Ping proxies repo.Ping (readiness).
func (quoteRepoShim) Ping(ctx context.Context, db *gorm.DB) error {
	return repo.Ping(ctx, db)
}

// NewQuoteService builds the quote service used by the routes from cfg.
func NewQuoteService(db *gorm.DB, cfg config.Config) *services.QuoteService {
	svc := services.NewQuoteService(db, quoteRepoShim{})
	svc.Bounds = utils.Bounds{MinLimit: cfg.Pagination.MinLimit, MaxLimit: cfg.Pagination.MaxLimit}
	if cfg.IdempotencyTTL > 0 {
		svc.IdempotencyTTL = cfg.IdempotencyTTL
	}
	svc.LogStacks = !cfg.IsProduction()
	return svc
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health, readiness and metrics
// endpoints, and then mounts the quotes API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Response compression
//  7. Metrics
//  8. CORS and Security headers
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Rate limiter (per client IP, bypass on replay)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
			middleware.HeaderIdempotencyKey,
		},
	}))

	// 4) Panic recovery to the JSON envelope (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 6) gzip responses; promhttp negotiates its own encoding
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture (safe defaults: allow all if none configured)
	corsHeaders := []string{"Origin", "Content-Type", "Accept", "If-None-Match", middleware.HeaderIdempotencyKey}
	exposed := []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", middleware.HeaderIdempotentReplayed}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    exposed,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    exposed,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS).
	// Reads must be revalidated so list ETags are honored.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		Revalidate:   true,
		EnablePolicy: true,
	}))

	// 9) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, key string, now time.Time) (bool, error) {
			_, err := repo.GetIdempotency(ctx, db, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		},
	))

	// 10) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) { handlers.FailKind(c, errs.UnknownAPI) })
	r.NoMethod(func(c *gin.Context) { handlers.FailKind(c, errs.UnknownAPI) })

	// Dependency injection: services ← repo/db
	h := handlers.New(NewQuoteService(db, cfg)).WithDefaultLimit(cfg.Pagination.DefaultLimit)

	// Liveness/readiness
	r.GET("/health", h.Health)
	r.GET("/readyz", h.Ready)

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.RequireJSON())
	{
		idRoute := middleware.ValidateSchema(handlers.QuoteIDSchema)

		api.GET("/quotes", middleware.ValidateSchema(handlers.ListQuotesSchema), h.ListQuotes)
		api.POST("/quotes", middleware.ValidateSchema(handlers.CreateQuoteSchema), h.CreateQuote)
		api.GET("/quotes/:id", idRoute, h.GetQuote)
		api.DELETE("/quotes/:id", idRoute, h.DeleteQuote)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error. A non-positive cap disables it.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
