// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// Idempotency-Key support for the side-effecting POST routes. Starting the
// bot twice spawns a second worker and a test deposit moves real money, so a
// console retry carrying the same key gets the first reply back instead.
// IdempotencyValidator only validates the key and flags replays; handlers
// serve the stored reply.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's key for one logical operation.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"

	defaultIdemKeyMaxLen = 200
)

var defaultIdemKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key IdempotencyValidator accepted for c.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// IsReplay reports whether a stored reply exists for c's route and key.
func IsReplay(c *gin.Context) bool {
	return c.GetBool(ctxKeyIdemReplay)
}

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	MaxLen  int            // 200 when <= 0
	Pattern *regexp.Regexp // ^[A-Za-z0-9._~\-:]+$ when nil
}

// IdempotencyLookup reports whether an unexpired reply is stored for
// (route, key) at now.
type IdempotencyLookup func(ctx context.Context, route, key string, now time.Time) (bool, error)

// IdempotencyValidator accepts an Idempotency-Key on POST requests. Other
// methods are repeatable already and their keys are ignored. A malformed key
// is rejected with 400 "bad_idempotency_key". When lookup finds a stored
// reply, the request is flagged as a replay and skips rate limiting. Lookup
// errors are logged and the request proceeds as a fresh one.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdemKeyMaxLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemKeyPattern
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			found, err := lookup(c.Request.Context(), RouteOf(c), key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case found:
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

// RouteOf returns the registered route of c, or the raw path when no route
// matched.
func RouteOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}
