package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/lotto-console/internal/config"
	"github.com/tbourn/lotto-console/internal/domain"
	httpapi "github.com/tbourn/lotto-console/internal/http"
	"github.com/tbourn/lotto-console/internal/repo"
)

type okRunner struct{}

func (okRunner) Run(context.Context, []string, []string) (string, error) { return "probe ok", nil }

// startBackend serves a real backend over a fresh in-memory store and
// points the console configuration at it.
func startBackend(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:ctl_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	dir := t.TempDir()
	r := gin.New()
	httpapi.RegisterRoutes(r, db, httpapi.Deps{Runner: okRunner{}}, config.Config{
		APIBasePath:    "/api",
		RateRPS:        100,
		RateBurst:      100,
		ProbeRPS:       100,
		ProbeBurst:     100,
		IdempotencyTTL: time.Hour,
		OTEL:           config.OTELConfig{ServiceName: "test"},
		Bot:            config.BotConfig{PIDPath: dir + "/bot.pid", LogPath: dir + "/bot.log", TailLines: 10, Location: time.UTC},
		Probe:          config.ProbeConfig{LoginCommand: []string{"login"}, DepositCommand: []string{"deposit"}, Timeout: time.Second},
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	t.Setenv("LOTTO_API_URL", srv.URL+"/api")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_PRETTY", "false")
	return db
}

func runCtl(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func storedDocument(t *testing.T, db *gorm.DB) domain.Document {
	t.Helper()
	rec, err := repo.GetConfig(context.Background(), db)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	doc, err := domain.Parse(rec.Body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestRun_FreshBackendAsksForSetup(t *testing.T) {
	startBackend(t)
	if _, err := runCtl(t, "", "show"); err == nil || !strings.Contains(err.Error(), "setup") {
		t.Fatalf("show on a fresh backend err=%v, want a setup hint", err)
	}
}

func TestRun_SetupSaveShow(t *testing.T) {
	db := startBackend(t)

	out, err := runCtl(t, "", "setup", "u1", "pw1", "123456")
	if err != nil || !strings.Contains(out, "setup complete") {
		t.Fatalf("setup out=%q err=%v", out, err)
	}
	if acc := storedDocument(t, db).Account; acc.UserID != "u1" || acc.PayPW != "123456" {
		t.Fatalf("stored account = %+v", acc)
	}

	if _, err := runCtl(t, "", "save", "purchase", "slot2.active=true", "slot2.mode=manual", "slot2.numbers=1,2,3,4,5,6"); err != nil {
		t.Fatalf("save purchase: %v", err)
	}
	g := storedDocument(t, db).Games[1]
	if !g.Active || g.Mode != domain.ModeManual || g.Numbers != "1,2,3,4,5,6" {
		t.Fatalf("slot 2 = %+v", g)
	}

	if _, err := runCtl(t, "", "save", "deposit", "threshold=5,000", "amount=20000"); err != nil {
		t.Fatalf("save deposit: %v", err)
	}
	if d := storedDocument(t, db).Deposit; d.Threshold != 5000 || d.Amount != 20000 {
		t.Fatalf("deposit = %+v", d)
	}

	if _, err := runCtl(t, "", "save", "schedule", "buy_day=saturday", "buy_time=18:30"); err != nil {
		t.Fatalf("save schedule: %v", err)
	}
	if s := storedDocument(t, db).Schedule; s.BuyDay != domain.Saturday || s.BuyTime != "18:30" {
		t.Fatalf("schedule = %+v", s)
	}

	out, err = runCtl(t, "", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"account", "u1", "slot 2", "numbers=1,2,3,4,5,6", "bot stopped"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_SaveKeepsStoredPasswords(t *testing.T) {
	db := startBackend(t)
	if _, err := runCtl(t, "", "setup", "u1", "pw1", "123456"); err != nil {
		t.Fatal(err)
	}

	if _, err := runCtl(t, "", "save", "deposit", "threshold=6000"); err != nil {
		t.Fatalf("save deposit: %v", err)
	}
	doc := storedDocument(t, db)
	want := domain.Account{UserID: "u1", UserPW: "pw1", PayPW: "123456"}
	if doc.Account != want || doc.Deposit.Threshold != 6000 {
		t.Fatalf("after save deposit: account=%+v deposit=%+v", doc.Account, doc.Deposit)
	}

	// Opting out restores the browser behaviour: blank inputs are sent as is.
	t.Setenv("KEEP_BLANK_SECRETS", "false")
	if _, err := runCtl(t, "", "save", "deposit", "amount=30000"); err != nil {
		t.Fatalf("save deposit: %v", err)
	}
	if acc := storedDocument(t, db).Account; acc.UserPW != "" || acc.PayPW != "" || acc.UserID != "u1" {
		t.Fatalf("with KEEP_BLANK_SECRETS=false account = %+v", acc)
	}
}

func TestRun_SetupRefusesConfiguredAccount(t *testing.T) {
	db := startBackend(t)
	if _, err := runCtl(t, "", "setup", "u1", "pw1", "123456"); err != nil {
		t.Fatal(err)
	}

	_, err := runCtl(t, "", "setup", "u2", "pw2", "654321")
	if err == nil || !strings.Contains(err.Error(), "-force") {
		t.Fatalf("second setup err=%v, want a -force hint", err)
	}
	if acc := storedDocument(t, db).Account; acc.UserID != "u1" {
		t.Fatalf("refused setup changed the account: %+v", acc)
	}

	if _, err := runCtl(t, "", "-force", "setup", "u2", "pw2", "654321"); err != nil {
		t.Fatalf("forced setup: %v", err)
	}
	if acc := storedDocument(t, db).Account; acc != (domain.Account{UserID: "u2", UserPW: "pw2", PayPW: "654321"}) {
		t.Fatalf("forced setup account = %+v", acc)
	}
}

func TestSetDeposit_ChecksKeyFirst(t *testing.T) {
	var d domain.Deposit
	err := setDeposit(&d, "user_pw", "pw1")
	if err == nil || !strings.Contains(err.Error(), `deposit has no field "user_pw"`) {
		t.Fatalf("unknown key err = %v", err)
	}
	if err := setDeposit(&d, "amount", "lots"); err == nil || !strings.Contains(err.Error(), "not a number") {
		t.Fatalf("bad number err = %v", err)
	}
	if err := setDeposit(&d, "threshold", "5,000"); err != nil || d.Threshold != 5000 {
		t.Fatalf("threshold: d=%+v err=%v", d, err)
	}
}

func TestRun_SaveRejectsBadInput(t *testing.T) {
	startBackend(t)
	if _, err := runCtl(t, "", "setup", "u1", "pw1", "123456"); err != nil {
		t.Fatal(err)
	}
	for _, args := range [][]string{
		{"save", "nonsense"},
		{"save", "purchase", "slot9.active=true"},
		{"save", "deposit", "threshold=lots"},
		{"save", "deposit", "amount=-1"},
		{"save", "schedule", "buy_day=someday"},
		{"save", "system", "webhook"},
	} {
		if _, err := runCtl(t, "", args...); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}

func TestRun_TestDepositAsksFirst(t *testing.T) {
	startBackend(t)
	if _, err := runCtl(t, "", "setup", "u1", "pw1", "123456"); err != nil {
		t.Fatal(err)
	}

	out, err := runCtl(t, "n\n", "test-deposit")
	if err != nil || !strings.Contains(out, "cancelled") {
		t.Fatalf("declined deposit out=%q err=%v", out, err)
	}

	out, err = runCtl(t, "", "-yes", "test-deposit")
	if err != nil || !strings.Contains(out, "success: probe ok") {
		t.Fatalf("confirmed deposit out=%q err=%v", out, err)
	}
}

func TestRun_TestLoginUsesArguments(t *testing.T) {
	startBackend(t)
	if _, err := runCtl(t, "", "setup", "u1", "pw1", "123456"); err != nil {
		t.Fatal(err)
	}
	// Password inputs start blank, so a bare test-login has nothing to send.
	if _, err := runCtl(t, "", "test-login"); err == nil {
		t.Fatalf("expected missing password error")
	}
	out, err := runCtl(t, "", "test-login", "u1", "pw1")
	if err != nil || !strings.Contains(out, "success") {
		t.Fatalf("test-login out=%q err=%v", out, err)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	startBackend(t)
	if _, err := runCtl(t, "", "setup", "u1", "pw1", "123456"); err != nil {
		t.Fatal(err)
	}
	if _, err := runCtl(t, "", "dance"); err == nil {
		t.Fatalf("expected unknown command error")
	}
	if _, err := runCtl(t, ""); err == nil {
		t.Fatalf("expected missing command error")
	}
}

func TestNewLines(t *testing.T) {
	cases := []struct {
		prev, cur, want []string
	}{
		{nil, []string{"a", "b"}, []string{"a", "b"}},
		{[]string{"a", "b"}, []string{"a", "b"}, []string{}},
		{[]string{"a", "b", "c"}, []string{"b", "c", "d"}, []string{"d"}},
		{[]string{"a", "b"}, []string{"x", "y"}, []string{"x", "y"}},
	}
	for _, tc := range cases {
		got := newLines(tc.prev, tc.cur)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("newLines(%v, %v) = %v; want %v", tc.prev, tc.cur, got, tc.want)
		}
	}
}

