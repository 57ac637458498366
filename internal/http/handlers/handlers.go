// Package handlers provides the HTTP endpoints of the bot backend.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Endpoints (relative to the API
// base path):
//   - GET  /config          configuration document (ETag support)
//   - POST /config          store the whole document
//   - GET  /status          run state, balance, latest result, next runs
//   - PUT  /status          worker status report
//   - GET  /logs            tail of the bot log
//   - POST /bot/start       start the worker (Idempotency-Key aware)
//   - POST /bot/stop        stop the worker (Idempotency-Key aware)
//   - POST /test/login      credential probe
//   - POST /test/deposit    real deposit probe (Idempotency-Key aware)
package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/lotto-console/internal/domain"
	"github.com/tbourn/lotto-console/internal/http/middleware"
	"github.com/tbourn/lotto-console/internal/repo"
)

//
// Service contracts (context-aware)
//

// ConfigService reads and stores the configuration document.
type ConfigService interface {
	// Get returns the stored document as JSON.
	Get(ctx context.Context) ([]byte, error)
	// Put stores raw. A *domain.ParseError means nothing was written.
	Put(ctx context.Context, raw []byte) (domain.Document, error)
}

// StatusService reports and records the bot's state.
type StatusService interface {
	Get(ctx context.Context) (domain.BotStatus, error)
	Report(ctx context.Context, p domain.StatusPatch) (*domain.StatusRecord, error)
}

// BotController starts and stops the worker process.
type BotController interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (alreadyGone bool, err error)
}

// Prober runs the login and deposit checks. Failures are reported in the
// result, never as an error.
type Prober interface {
	Login(ctx context.Context, userID, userPW string) domain.ActionResult
	Deposit(ctx context.Context) domain.ActionResult
}

// LogSource returns the current log tail.
type LogSource interface {
	Tail() ([]string, error)
}

// ReplayStore remembers replies to side-effecting requests by
// (route, Idempotency-Key).
type ReplayStore interface {
	// Lookup returns the stored reply, or repo.ErrNotFound.
	Lookup(ctx context.Context, route, key string) (*domain.Idempotency, error)
	// Remember stores a reply; repo.ErrDuplicate when the key is taken.
	Remember(ctx context.Context, route, key string, status int, body []byte) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	cfgSvc    ConfigService
	statusSvc StatusService
	bot       BotController
	probes    Prober
	logs      LogSource
	replays   ReplayStore
}

// New constructs and returns a Handlers instance bound to the given services.
func New(cfgSvc ConfigService, statusSvc StatusService, bot BotController, probes Prober, logs LogSource) *Handlers {
	return &Handlers{cfgSvc: cfgSvc, statusSvc: statusSvc, bot: bot, probes: probes, logs: logs}
}

// WithReplays enables Idempotency-Key replays on the bot control and deposit
// endpoints.
func (h *Handlers) WithReplays(s ReplayStore) *Handlers {
	h.replays = s
	return h
}

// idempotent runs op unless the request replays an earlier one, in which
// case the stored reply is sent. op returns an ErrorResponse body to fail;
// any other reply is remembered when the request carried a key.
func (h *Handlers) idempotent(c *gin.Context, op func() (int, any)) {
	ctx := c.Request.Context()
	key, hasKey := middleware.GetIdempotencyKey(c)
	route := middleware.RouteOf(c)

	if hasKey && h.replays != nil && middleware.IsReplay(c) {
		rec, err := h.replays.Lookup(ctx, route, key)
		if err == nil {
			middleware.CountReplay(c)
			c.Header("Idempotent-Replayed", "true")
			okRaw(c, rec.Status, rec.Body)
			return
		}
		if !errors.Is(err, repo.ErrNotFound) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		}
	}

	status, body := op()
	if e, isErr := body.(ErrorResponse); isErr {
		fail(c, status, e.Code, e.Message)
		return
	}
	if hasKey && h.replays != nil {
		if raw, err := json.Marshal(body); err == nil {
			err = h.replays.Remember(ctx, route, key, status, raw)
			switch {
			case errors.Is(err, repo.ErrDuplicate):
				middleware.LoggerFrom(c).Debug().Str("key", key).Msg("idempotency key raced")
			case err != nil:
				middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency store failed")
			}
		}
	}
	ok(c, status, body)
}

func success(msg string) domain.ActionResult {
	return domain.ActionResult{Status: "success", Message: msg}
}

func failure(msg string) domain.ActionResult {
	return domain.ActionResult{Status: "error", Message: msg}
}
