// Bot control and probe HTTP handlers.
//
// These endpoints answer 200 with an ActionResult whether or not the action
// worked; {"status":"error"} carries the reason. Only unexpected failures
// use the error envelope.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/lotto-console/internal/services"
)

// LoginRequest is the JSON payload of POST /test/login. The console sends
// the credentials currently in its form, which may not be saved yet.
type LoginRequest struct {
	UserID string `json:"user_id" example:"lotto_user"`
	UserPW string `json:"user_pw" example:"secret"`
}

// StartBot godoc
// @ID          startBot
// @Summary     Start the bot
// @Tags        Bot
// @Produce     json
// @Param       Idempotency-Key  header  string  false  "Replays the first reply for a repeated key"
// @Success     200  {object} domain.ActionResult
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /bot/start [post]
func (h *Handlers) StartBot(c *gin.Context) {
	h.idempotent(c, func() (int, any) {
		err := h.bot.Start(c.Request.Context())
		switch {
		case err == nil:
			return http.StatusOK, success("bot started")
		case errors.Is(err, services.ErrAlreadyRunning):
			return http.StatusOK, failure("bot is already running")
		case errors.Is(err, services.ErrNoCommand):
			return http.StatusOK, failure("no bot command configured")
		}
		return http.StatusInternalServerError, ErrorResponse{Code: ErrCodeBotFailed, Message: err.Error()}
	})
}

// StopBot godoc
// @ID          stopBot
// @Summary     Stop the bot
// @Tags        Bot
// @Produce     json
// @Param       Idempotency-Key  header  string  false  "Replays the first reply for a repeated key"
// @Success     200  {object} domain.ActionResult
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /bot/stop [post]
func (h *Handlers) StopBot(c *gin.Context) {
	h.idempotent(c, func() (int, any) {
		gone, err := h.bot.Stop(c.Request.Context())
		switch {
		case err == nil && gone:
			return http.StatusOK, success("bot had already exited")
		case err == nil:
			return http.StatusOK, success("bot stopped")
		case errors.Is(err, services.ErrNotRunning):
			return http.StatusOK, failure("bot is not running")
		}
		return http.StatusInternalServerError, ErrorResponse{Code: ErrCodeBotFailed, Message: err.Error()}
	})
}

// TestLogin godoc
// @ID          testLogin
// @Summary     Check lottery site credentials
// @Tags        Probes
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Credentials to try"
// @Success     200  {object} domain.ActionResult
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Router      /test/login [post]
func (h *Handlers) TestLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	ok(c, http.StatusOK, h.probes.Login(c.Request.Context(), req.UserID, req.UserPW))
}

// TestDeposit godoc
// @ID          testDeposit
// @Summary     Run a real deposit
// @Description Runs the deposit probe with the stored account. Send an Idempotency-Key so a retried request does not deposit twice.
// @Tags        Probes
// @Produce     json
// @Param       Idempotency-Key  header  string  false  "Replays the first reply for a repeated key"
// @Success     200  {object} domain.ActionResult
// @Router      /test/deposit [post]
func (h *Handlers) TestDeposit(c *gin.Context) {
	h.idempotent(c, func() (int, any) {
		return http.StatusOK, h.probes.Deposit(c.Request.Context())
	})
}
