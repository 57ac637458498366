package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RouteLabelsAndInflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/status", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.PUT("/api/status", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/status", "200"))
	baseNoContent := testutil.ToFloat64(httpReqs.WithLabelValues("PUT", "/api/status", "204"))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404"))

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/status", http.StatusOK},
		{http.MethodPut, "/api/status", http.StatusNoContent},
		{http.MethodGet, "/wp-login.php", http.StatusNotFound},
		{http.MethodGet, "/.env", http.StatusNotFound},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.want {
			t.Fatalf("%s %s -> %d, want %d", tc.method, tc.path, w.Code, tc.want)
		}
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/status", "200")); got != baseOK+1 {
		t.Fatalf("GET /api/status 200 = %v; want %v", got, baseOK+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("PUT", "/api/status", "204")); got != baseNoContent+1 {
		t.Fatalf("PUT /api/status 204 = %v; want %v", got, baseNoContent+1)
	}
	// Unknown paths share one series.
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404")); got != baseMiss+2 {
		t.Fatalf("unmatched 404 = %v; want %v", got, baseMiss+2)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}

func TestCountReplay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/test/deposit", func(c *gin.Context) {
		CountReplay(c)
		c.Status(http.StatusOK)
	})

	base := testutil.ToFloat64(replays.WithLabelValues("/api/test/deposit"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/test/deposit", nil))
	if got := testutil.ToFloat64(replays.WithLabelValues("/api/test/deposit")); got != base+1 {
		t.Fatalf("replays = %v; want %v", got, base+1)
	}
}
