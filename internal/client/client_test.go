package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tbourn/lotto-console/internal/domain"
	"github.com/tbourn/lotto-console/internal/services"
)

var _ services.Backend = (*Client)(nil)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", srv.Client())
}

func TestClient_GetConfig(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/config" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"account":{"user_id":"u1"}}`))
	})
	raw, err := c.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if string(raw) != `{"account":{"user_id":"u1"}}` {
		t.Fatalf("raw = %s", raw)
	}
}

func TestClient_PostConfig(t *testing.T) {
	var got []byte
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type %q", r.Header.Get("Content-Type"))
		}
		var m json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&m)
		got = m
		_, _ = w.Write([]byte(`{"status":"success","message":"saved"}`))
	})
	if err := c.PostConfig(context.Background(), []byte(`{"x":1}`)); err != nil {
		t.Fatalf("PostConfig: %v", err)
	}
	if string(got) != `{"x":1}` {
		t.Fatalf("server got %s", got)
	}
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		h    http.HandlerFunc
		is   error
	}{
		{"non-2xx envelope", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"request_id":"r1","code":"invalid_document","message":"games: expected 5 slots"}`))
		}, ErrConnectivity},
		{"non-2xx plain", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}, ErrConnectivity},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}, ErrConnectivity},
		{"wrong shape", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":5}`))
		}, domain.ErrParse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestServer(t, tc.h)
			_, err := c.Status(context.Background())
			if !errors.Is(err, tc.is) {
				t.Fatalf("want %v, got %v", tc.is, err)
			}
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).GetConfig(context.Background())
	if !errors.Is(err, ErrConnectivity) || errors.Is(err, ErrTimeout) {
		t.Fatalf("want ErrConnectivity only, got %v", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.GetConfig(ctx)
	if !errors.Is(err, ErrTimeout) || !services.IsTimeout(err) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
	if errors.Is(err, ErrConnectivity) {
		t.Fatal("timeout must not read as connectivity")
	}
}

func TestClient_Actions(t *testing.T) {
	var paths []string
	var login map[string]string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/api/test/login":
			_ = json.NewDecoder(r.Body).Decode(&login)
			_, _ = w.Write([]byte(`{"status":"error","message":"login failed"}`))
		case "/api/logs":
			_, _ = w.Write([]byte(`{"logs":["a","b"]}`))
		default:
			_, _ = w.Write([]byte(`{"status":"success","message":"ok"}`))
		}
	})
	ctx := context.Background()

	res, err := c.TestLogin(ctx, "u1", "pw")
	if err != nil || res.OK() || res.Message != "login failed" {
		t.Fatalf("login = %+v, %v", res, err)
	}
	if login["user_id"] != "u1" || login["user_pw"] != "pw" {
		t.Fatalf("login body = %v", login)
	}
	if res, err := c.StartBot(ctx); err != nil || !res.OK() {
		t.Fatalf("start = %+v, %v", res, err)
	}
	if _, err := c.StopBot(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.TestDeposit(ctx); err != nil {
		t.Fatal(err)
	}
	logs, err := c.Logs(ctx)
	if err != nil || len(logs) != 2 {
		t.Fatalf("logs = %v, %v", logs, err)
	}
	want := []string{"/api/test/login", "/api/bot/start", "/api/bot/stop", "/api/test/deposit", "/api/logs"}
	for i, p := range want {
		if paths[i] != p {
			t.Fatalf("call %d hit %s, want %s", i, paths[i], p)
		}
	}
}

func TestClient_IdempotencyKeyOnPostsOnly(t *testing.T) {
	got := map[string]string{}
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got[r.Method+" "+r.URL.Path] = r.Header.Get("Idempotency-Key")
		if r.URL.Path == "/api/status" {
			_, _ = w.Write([]byte(`{"status":"stopped"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","message":"ok"}`))
	})

	ctx := WithIdempotencyKey(context.Background(), "dep-42")
	if _, err := c.TestDeposit(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Status(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.StartBot(context.Background()); err != nil {
		t.Fatal(err)
	}

	if k := got["POST /api/test/deposit"]; k != "dep-42" {
		t.Fatalf("deposit key = %q", k)
	}
	if k := got["GET /api/status"]; k != "" {
		t.Fatalf("GET must not carry a key, got %q", k)
	}
	if k := got["POST /api/bot/start"]; k != "" {
		t.Fatalf("plain context sent key %q", k)
	}
}
