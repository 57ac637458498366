// Command lottod serves the configuration, status and control API of the
// lottery purchase bot.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/lotto-console/internal/config"
	httpapi "github.com/tbourn/lotto-console/internal/http"
	"github.com/tbourn/lotto-console/internal/notify"
	"github.com/tbourn/lotto-console/internal/observability"
	"github.com/tbourn/lotto-console/internal/repo"
	"github.com/tbourn/lotto-console/internal/secret"
	"github.com/tbourn/lotto-console/internal/services"
	"github.com/tbourn/lotto-console/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load() // .env is optional

	cfg := config.MustLoad()
	sysutil.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("lottod exited")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	box, err := secret.LoadOrCreateKey(cfg.SecretKeyPath)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, httpapi.Deps{
		Box:      box,
		Notifier: notify.NewDiscord(&http.Client{Timeout: cfg.DiscordTimeout}),
	}, cfg)

	// Expired replay entries are only dropped lazily per key; sweep the rest.
	cl := services.CronLogger(log.With().Str("component", "purge").Logger())
	sched := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))
	if _, err := sched.AddFunc("@hourly", func() {
		n, err := repo.PurgeIdempotency(context.Background(), db, time.Now().UTC())
		if err != nil {
			log.Warn().Err(err).Msg("purge idempotency keys")
			return
		}
		if n > 0 {
			log.Debug().Int64("purged", n).Msg("idempotency keys purged")
		}
	}); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("version", version).Str("api", cfg.APIBasePath).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	return err
}
