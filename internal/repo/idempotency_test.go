package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/lotto-console/internal/domain"
)

func newIdemDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid schema leakage across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

const depositRoute = "/api/test/deposit"

func TestGetIdempotency_BlankKey_ReturnsNotFound(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	rec, err := GetIdempotency(context.Background(), db, depositRoute, "   ", time.Now().UTC())
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for blank key, got (%v, %v)", rec, err)
	}
}

func TestGetIdempotency_ExpiredOrMissing_ReturnsNotFound(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	exp := &domain.Idempotency{
		ID:        "expired",
		Route:     depositRoute,
		Key:       "k1",
		Status:    200,
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}

	rec, err := GetIdempotency(context.Background(), db, depositRoute, "k1", now)
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for expired, got (%v, %v)", rec, err)
	}
	rec2, err2 := GetIdempotency(context.Background(), db, depositRoute, "missing", now)
	if rec2 != nil || err2 != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for missing, got (%v, %v)", rec2, err2)
	}
}

func TestCreateThenGetIdempotency(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	ctx := context.Background()
	body := []byte(`{"status":"success","message":"deposited"}`)

	if _, err := CreateIdempotency(ctx, db, depositRoute, "k1", 200, body, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec, err := GetIdempotency(ctx, db, depositRoute, "k1", time.Now().UTC())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != 200 || string(rec.Body) != string(body) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// Same key on another route is independent.
	if _, err := GetIdempotency(ctx, db, "/api/bot/start", "k1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on other route, got %v", err)
	}
}

func TestCreateIdempotency_Duplicate(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, depositRoute, "dup", 200, nil, time.Hour); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := CreateIdempotency(ctx, db, depositRoute, "dup", 200, nil, time.Hour)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateIdempotency_ReusesExpiredKey(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	ctx := context.Background()
	now := time.Now().UTC()

	old := &domain.Idempotency{
		ID: "old", Route: depositRoute, Key: "k", Status: 200,
		CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}
	if err := db.Create(old).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, depositRoute, "k", 200, nil, time.Hour); err != nil {
		t.Fatalf("expected expired key to be reusable, got %v", err)
	}
}

func TestCreateIdempotency_DBError(t *testing.T) {
	db := newIdemDB(t /* no table */)
	_, err := CreateIdempotency(context.Background(), db, depositRoute, "k", 200, nil, time.Hour)
	if err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected raw DB error, got %v", err)
	}
}

func TestPurgeIdempotency(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	ctx := context.Background()
	now := time.Now().UTC()

	rows := []domain.Idempotency{
		{ID: "a", Route: depositRoute, Key: "a", Status: 200, CreatedAt: now, ExpiresAt: now.Add(-time.Minute)},
		{ID: "b", Route: depositRoute, Key: "b", Status: 200, CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	n, err := PurgeIdempotency(ctx, db, now)
	if err != nil || n != 1 {
		t.Fatalf("want 1 purged, got %d (%v)", n, err)
	}
}
