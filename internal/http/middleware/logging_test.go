package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestValidRequestID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"abc-123", true},
		{"7f0c2a4e-93b1-4c55-8d2e-0b6a1f3e9c01", true},
		{"has space", false},
		{"line\nbreak", false},
		{"ünïcode", false},
		{strings.Repeat("a", maxRequestIDLength), true},
		{strings.Repeat("a", maxRequestIDLength+1), false},
	}
	for _, tt := range tests {
		if got := validRequestID(tt.in); got != tt.want {
			t.Errorf("validRequestID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRequestID_PropagateOrReplace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/api/status", func(c *gin.Context) {
		seen = c.GetString(requestIDKey)
		c.Status(http.StatusOK)
	})

	for _, tc := range []struct {
		name, header string
		keep         bool
	}{
		{"missing", "", false},
		{"valid", "console-42", true},
		{"injected newline", "x\n{\"level\":\"error\"}", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
			if tc.header != "" {
				req.Header[requestIDHeader] = []string{tc.header}
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(requestIDHeader)
			if got == "" || got != seen {
				t.Fatalf("header %q, context %q", got, seen)
			}
			if tc.keep != (got == tc.header) {
				t.Fatalf("request id = %q (caller sent %q)", got, tc.header)
			}
		})
	}
}

func TestRequestID_TaggedOnSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx, span := tp.Tracer("test").Start(c.Request.Context(), "request")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	r.Use(RequestID())
	r.GET("/api/logs", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	req.Header.Set(requestIDHeader, "rid-span")
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d", len(spans))
	}
	want := attribute.String("request.id", "rid-span")
	for _, kv := range spans[0].Attributes() {
		if kv == want {
			return
		}
	}
	t.Fatalf("request.id missing from %v", spans[0].Attributes())
}

func TestRecovery_PanicBecomesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{}), Recovery())
	r.POST("/api/bot/start", func(c *gin.Context) { panic("pid file vanished") })

	req := httptest.NewRequest(http.MethodPost, "/api/bot/start", nil)
	req.Header.Set(requestIDHeader, "rid-panic")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["request_id"] != "rid-panic" || body["code"] != "internal_error" {
		t.Fatalf("unexpected body: %v", body)
	}

	var panicLine string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, `"message":"panic recovered"`) {
			panicLine = line
		}
	}
	for _, want := range []string{`"panic":"pid file vanished"`, `"request_id":"rid-panic"`, `"route":"/api/bot/start"`, `"stack":`} {
		if !strings.Contains(panicLine, want) {
			t.Fatalf("panic log missing %s: %s", want, panicLine)
		}
	}
}

func TestRecovery_PanicAfterWriteKeepsBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	withCapturedLogger(t)

	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/api/logs", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/logs", nil))

	if w.Body.String() != "partial" {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestLoggerFrom_Fallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(loggerKey, "not a logger")
	LoggerFrom(c).Info().Msg("fallback")

	out := buf.String()
	if !strings.Contains(out, `"message":"fallback"`) || strings.Contains(out, "request_id") {
		t.Fatalf("unexpected fallback output: %s", out)
	}
}

func TestTruncate(t *testing.T) {
	for _, tc := range []struct {
		in   string
		max  int
		want string
	}{
		{"slot=1", 10, "slot=1"},
		{"abcdefgh", 5, "abcde…"},
		{"abc", 0, "abc"},
	} {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
