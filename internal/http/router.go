// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
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

	_ "github.com/tbourn/lotto-console/docs" // registers swagger docs
	"github.com/tbourn/lotto-console/internal/config"
	"github.com/tbourn/lotto-console/internal/domain"
	"github.com/tbourn/lotto-console/internal/http/handlers"
	"github.com/tbourn/lotto-console/internal/http/middleware"
	"github.com/tbourn/lotto-console/internal/notify"
	"github.com/tbourn/lotto-console/internal/repo"
	"github.com/tbourn/lotto-console/internal/secret"
	"github.com/tbourn/lotto-console/internal/services"
)

// configRepoShim adapts the repository free functions to the
// services.ConfigRepo interface expected by the ConfigService.
type configRepoShim struct{}

// GetConfig proxies repo.GetConfig.
func (configRepoShim) GetConfig(ctx context.Context, db *gorm.DB) (*domain.ConfigRecord, error) {
	return repo.GetConfig(ctx, db)
}

// SaveConfig proxies repo.SaveConfig.
func (configRepoShim) SaveConfig(ctx context.Context, db *gorm.DB, body []byte) (*domain.ConfigRecord, error) {
	return repo.SaveConfig(ctx, db, body)
}

// replayStore keeps Idempotency-Key replies in the database for ttl.
type replayStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func (s replayStore) Lookup(ctx context.Context, route, key string) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, s.db, route, key, time.Now().UTC())
}

func (s replayStore) Remember(ctx context.Context, route, key string, status int, body []byte) error {
	_, err := repo.CreateIdempotency(ctx, s.db, route, key, status, body, s.ttl)
	return err
}

// Deps carries the collaborators RegisterRoutes cannot build from cfg.
type Deps struct {
	// Box seals account passwords at rest. Nil stores them in the clear.
	Box *secret.Box
	// Notifier posts Discord messages. Nil disables notifications.
	Notifier notify.Notifier
	// Runner executes probe commands. Nil uses services.ExecRunner.
	Runner services.CommandRunner
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with credential scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip (log tails and documents compress well)
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per client IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
		QuietPaths:  []string{"/health", "/metrics"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	replays := replayStore{db: db, ttl: cfg.IdempotencyTTL}
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, route, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, route, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return rec != nil, err
		},
	))

	// 9) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	corsHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
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
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers. Responses may carry account passwords, so never cache.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:        cfg.Security.EnableHSTS,
		HSTSMaxAge:        cfg.Security.HSTSMaxAge,
		NoStore:           true,
		CacheablePrefixes: []string{"/swagger/"},
		EnablePolicy:      true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	cfgSvc := &services.ConfigService{
		DB:            db,
		Repo:          configRepoShim{},
		Box:           deps.Box,
		Notifier:      deps.Notifier,
		MaskSecrets:   cfg.MaskSecrets,
		NotifyTimeout: cfg.DiscordTimeout,
	}
	bot := &services.BotManager{
		Command:  cfg.Bot.Command,
		Dir:      cfg.Bot.Dir,
		PIDPath:  cfg.Bot.PIDPath,
		LogPath:  cfg.Bot.LogPath,
		Announce: cfgSvc.Announce,
	}
	statusSvc := &services.StatusService{
		DB:       db,
		Bot:      bot,
		Config:   cfgSvc,
		Location: cfg.Bot.Location,
	}
	runner := deps.Runner
	if runner == nil {
		runner = services.ExecRunner{Dir: cfg.Bot.Dir}
	}
	probes := &services.ProbeService{
		Runner:         runner,
		LoginCommand:   cfg.Probe.LoginCommand,
		DepositCommand: cfg.Probe.DepositCommand,
		Timeout:        cfg.Probe.Timeout,
		Credentials: func(ctx context.Context) (domain.Account, error) {
			doc, err := cfgSvc.Document(ctx)
			if err != nil {
				return domain.Account{}, err
			}
			return doc.Account, nil
		},
	}
	logs := services.LogFile{Path: cfg.Bot.LogPath, Lines: cfg.Bot.TailLines}

	h := handlers.New(cfgSvc, statusSvc, bot, probes, logs).WithReplays(replays)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api"
	{
		// Configuration
		api.GET("/config", h.GetConfig)
		api.POST("/config", h.PostConfig)

		// Status
		api.GET("/status", h.GetStatus)
		api.PUT("/status", h.ReportStatus)
		api.GET("/logs", h.GetLogs)
	}

	// Bot control and probes launch processes; limit them per route and client.
	probeRL := middleware.NewRateLimiter(cfg.ProbeRPS, cfg.ProbeBurst, middleware.KeyByRouteAndIP())
	ctl := api.Group("", probeRL.Handler())
	{
		ctl.POST("/bot/start", h.StartBot)
		ctl.POST("/bot/stop", h.StopBot)
		ctl.POST("/test/login", h.TestLogin)
		ctl.POST("/test/deposit", h.TestDeposit)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
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
