// Status and log HTTP handlers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/lotto-console/internal/domain"
)

// GetStatus godoc
// @ID          getStatus
// @Summary     Bot status
// @Description Run state, last known balance, latest draw result, last run and the next scheduled runs.
// @Tags        Status
// @Produce     json
// @Success     200  {object} domain.BotStatus
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /status [get]
func (h *Handlers) GetStatus(c *gin.Context) {
	st, err := h.statusSvc.Get(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatusFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}

// ReportStatus godoc
// @ID          reportStatus
// @Summary     Worker status report
// @Description Merges the fields present into the stored status. Used by the bot worker after a run.
// @Tags        Status
// @Accept      json
// @Param       body  body  domain.StatusPatch  true  "Fields to update"
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     422  {object} handlers.ErrorResponse "Invalid values"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /status [put]
func (h *Handlers) ReportStatus(c *gin.Context) {
	var p domain.StatusPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if _, err := h.statusSvc.Report(c.Request.Context(), p); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			fail(c, http.StatusUnprocessableEntity, ErrCodeValidation, ve.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeStatusFailed, err.Error())
		return
	}
	noContent(c)
}

// GetLogs godoc
// @ID          getLogs
// @Summary     Bot log tail
// @Description The most recent lines of the bot log, oldest first. Each call returns the full tail.
// @Tags        Status
// @Produce     json
// @Success     200  {object} domain.LogTail
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /logs [get]
func (h *Handlers) GetLogs(c *gin.Context) {
	lines, err := h.logs.Tail()
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeLogsFailed, err.Error())
		return
	}
	if lines == nil {
		lines = []string{}
	}
	ok(c, http.StatusOK, domain.LogTail{Logs: lines})
}
