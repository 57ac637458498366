// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// RedactingLogger writes one structured access log line per request and
// attaches the request-scoped logger read by LoggerFrom. Bodies are never
// logged. The console and the bot only send credentials in JSON bodies, so
// the query and header scrubbing below covers hand-written requests.
package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures RedactingLogger.
type RedactOptions struct {
	// MaskHeaders are replaced with "[REDACTED]" in addition to
	// Authorization, Cookie and Set-Cookie. Case-insensitive.
	MaskHeaders []string
	// QuietPaths are logged at debug level when they succeed, e.g. /health
	// polled by a supervisor or /metrics scraped by Prometheus.
	QuietPaths []string
}

type scrubber struct {
	re   *regexp.Regexp
	repl string
}

// Applied in order. UUIDs go before phone numbers, whose pattern would
// otherwise eat their digit groups.
var scrubbers = []scrubber{
	{regexp.MustCompile(`(?i)\b(user_pw|pay_pw|password|passwd)=[^&\s]*`), "$1=[REDACTED]"},
	{regexp.MustCompile(`(?i)https?://(?:ptb\.|canary\.)?discord(?:app)?\.com/api/webhooks/[^\s&"]+`), "[REDACTED:webhook]"},
	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`), "[REDACTED:id]"},
	{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[REDACTED:email]"},
	{regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`), "[REDACTED:phone]"},
}

// scrub masks credentials, webhook URLs and personal identifiers in s.
func scrub(s string) string {
	for _, sc := range scrubbers {
		if s == "" {
			break
		}
		s = sc.re.ReplaceAllString(s, sc.repl)
	}
	return s
}

// scrubHeaders flattens h for logging. Headers in masked are hidden
// entirely; the rest go through scrub.
func scrubHeaders(h http.Header, masked map[string]struct{}) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, hide := masked[strings.ToLower(k)]; hide {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = scrub(strings.Join(vv, ", "))
	}
	return out
}

func lowerSet(base []string, extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(base)+len(extra))
	for _, s := range append(append([]string(nil), base...), extra...) {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

// RedactingLogger returns the access log middleware. The level follows the
// status: info, warn for 4xx, error for 5xx. The request_id comes from the
// response header set by RequestID, falling back to the request header.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := lowerSet([]string{"Authorization", "Cookie", "Set-Cookie"}, opts.MaskHeaders)
	quiet := make(map[string]struct{}, len(opts.QuietPaths))
	for _, p := range opts.QuietPaths {
		quiet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}

		scoped := log.With().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &scoped)

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		default:
			if _, ok := quiet[path]; ok {
				ev = log.Debug()
			} else {
				ev = log.Info()
			}
		}
		if IsReplay(c) {
			ev = ev.Bool("replay", true)
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			ev = ev.Str("errors", scrub(errs.String()))
		}

		ev.
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", truncate(scrub(c.Request.URL.RawQuery), maxQueryLogLength)).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", scrubHeaders(c.Request.Header, masked)).
			Msg("http_request")
	}
}
