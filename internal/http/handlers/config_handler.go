// Configuration HTTP handlers.
//
// GET /config returns the stored document byte for byte (members this
// backend does not know are kept). POST /config replaces it; the console
// always sends the whole document.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/lotto-console/internal/domain"
	"github.com/tbourn/lotto-console/internal/http/middleware"
	"github.com/tbourn/lotto-console/internal/repo"
	"github.com/tbourn/lotto-console/internal/services"
)

// GetConfig godoc
// @ID          getConfig
// @Summary     Read the configuration document
// @Description Returns the whole configuration document. The first read of an empty store returns the defaults, which route the console to first-run setup. Supports weak ETag via If-None-Match.
// @Tags        Config
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"config:1760608800000000000\")
//
// @Success     200  {object} domain.Document
// @Header      200  {string} ETag  "Weak ETag of the stored document"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /config [get]
func (h *Handlers) GetConfig(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort). Skipped before the first save, since the
	// read below seeds the store.
	if svc, ok := h.cfgSvc.(*services.ConfigService); ok && svc.DB != nil {
		count, at, err := repo.ConfigStats(ctx, svc.DB)
		if err == nil && count > 0 {
			etag := fmt.Sprintf(`W/"config:%d"`, at.UnixNano())
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	raw, err := h.cfgSvc.Get(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeLoadFailed, err.Error())
		return
	}
	okRaw(c, http.StatusOK, raw)
}

// PostConfig godoc
// @ID          postConfig
// @Summary     Store the configuration document
// @Description Replaces the stored document with the request body. The body must have the document's shape; values are stored as sent.
// @Tags        Config
// @Accept      json
// @Produce     json
//
// @Param       body  body  domain.Document  true  "Whole configuration document"
//
// @Success     200  {object} domain.ActionResult
// @Failure     400  {object} handlers.ErrorResponse "Malformed document"
// @Failure     413  {object} handlers.ErrorResponse "Body too large"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /config [post]
func (h *Handlers) PostConfig(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "configuration too large")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot read body")
		return
	}

	doc, err := h.cfgSvc.Put(c.Request.Context(), raw)
	if err != nil {
		var pe *domain.ParseError
		if errors.As(err, &pe) {
			fail(c, http.StatusBadRequest, ErrCodeInvalidDocument, pe.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, err.Error())
		return
	}

	middleware.LoggerFrom(c).Info().
		Str("user_id", doc.Account.UserID).
		Int("slots", len(doc.Games)).
		Msg("configuration saved")
	ok(c, http.StatusOK, success("configuration saved"))
}
