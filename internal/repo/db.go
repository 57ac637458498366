// Package repo implements the persistence layer of the configuration
// backend on GORM and SQLite (pure Go driver). The console backend and the
// bot worker share one small database file.
package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/lotto-console/internal/domain"
)

// ErrNotFound is returned when a singleton row has not been written yet.
var ErrNotFound = gorm.ErrRecordNotFound

// Applied on every pooled connection, not just the first.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
}

const (
	slowQuery    = 200 * time.Millisecond
	maxLoggedSQL = 512 // config documents are bound as one long literal
)

// sqliteDSN appends the connection pragmas to path.
func sqliteDSN(path string) string {
	var b strings.Builder
	b.WriteString(path)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	for _, p := range sqlitePragmas {
		b.WriteString(sep + "_pragma=" + p)
		sep = "&"
	}
	return b.String()
}

// OpenSQLite opens (or creates) the database at path with tracing and
// zerolog query logging installed. The parent directory must exist.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{
		Logger: zerologGorm{slow: slowQuery},
	})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(4)
		sqlDB.SetMaxIdleConns(4)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// AutoMigrate creates the config, status and idempotency tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.ConfigRecord{},
		&domain.StatusRecord{},
		&domain.Idempotency{},
	)
}

// zerologGorm routes GORM's logger through zerolog: failed statements at
// error, slow ones at warn, the rest at trace.
type zerologGorm struct {
	slow time.Duration
}

func (l zerologGorm) LogMode(logger.LogLevel) logger.Interface { return l }

func (zerologGorm) Info(_ context.Context, msg string, args ...any) {
	log.Info().Str("component", "gorm").Msgf(msg, args...)
}

func (zerologGorm) Warn(_ context.Context, msg string, args ...any) {
	log.Warn().Str("component", "gorm").Msgf(msg, args...)
}

func (zerologGorm) Error(_ context.Context, msg string, args ...any) {
	log.Error().Str("component", "gorm").Msgf(msg, args...)
}

func (l zerologGorm) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	ev := log.Trace()
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		ev = log.Error().Err(err)
	case l.slow > 0 && elapsed > l.slow:
		ev = log.Warn().Bool("slow", true)
	}
	if ev == nil {
		return
	}
	sql, rows := fc()
	if len(sql) > maxLoggedSQL {
		sql = sql[:maxLoggedSQL] + "…"
	}
	ev.Str("component", "gorm").
		Dur("elapsed", elapsed).
		Int64("rows", rows).
		Str("sql", sql).
		Msg("query")
}
