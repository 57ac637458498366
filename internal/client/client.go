// Package client talks to the configuration backend over HTTP and
// implements services.Backend for the console.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tbourn/lotto-console/internal/domain"
)

var (
	// ErrConnectivity covers network failures, non-2xx replies and bodies
	// that are not JSON.
	ErrConnectivity = errors.New("backend request failed")
	// ErrTimeout is returned when the request deadline expired. It is kept
	// apart from ErrConnectivity so a slow backend reads differently from a
	// dead one.
	ErrTimeout = errors.New("connection timed out")
)

// maxBody caps how much of a reply is read.
const maxBody = 4 << 20

type idemKey struct{}

// WithIdempotencyKey makes requests sent with ctx carry key as their
// Idempotency-Key, so a repeated start, stop or deposit is answered from
// the backend's record instead of running again.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idemKey{}, key)
}

// Client is an HTTP client for the /api endpoints.
type Client struct {
	base string
	hc   *http.Client
}

// New returns a Client for the backend at baseURL, e.g.
// "http://localhost:5000/api". A nil hc uses http.DefaultClient; deadlines
// come from the request context.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: hc}
}

// GetConfig returns the stored document as raw JSON.
func (c *Client) GetConfig(ctx context.Context) ([]byte, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/config", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// PostConfig replaces the stored document with body.
func (c *Client) PostConfig(ctx context.Context, body []byte) error {
	var res domain.ActionResult
	if err := c.do(ctx, http.MethodPost, "/config", body, &res); err != nil {
		return err
	}
	if res.Status == "error" {
		return fmt.Errorf("%w: %s", ErrConnectivity, res.Message)
	}
	return nil
}

// Status returns the bot's run state and last report.
func (c *Client) Status(ctx context.Context) (domain.BotStatus, error) {
	var st domain.BotStatus
	err := c.do(ctx, http.MethodGet, "/status", nil, &st)
	return st, err
}

// Logs returns the current log tail.
func (c *Client) Logs(ctx context.Context) ([]string, error) {
	var t domain.LogTail
	if err := c.do(ctx, http.MethodGet, "/logs", nil, &t); err != nil {
		return nil, err
	}
	return t.Logs, nil
}

// StartBot asks the backend to start the worker.
func (c *Client) StartBot(ctx context.Context) (domain.ActionResult, error) {
	return c.action(ctx, "/bot/start", nil)
}

// StopBot asks the backend to stop the worker.
func (c *Client) StopBot(ctx context.Context) (domain.ActionResult, error) {
	return c.action(ctx, "/bot/stop", nil)
}

// TestLogin asks the backend to try signing in with the given credentials.
func (c *Client) TestLogin(ctx context.Context, userID, userPW string) (domain.ActionResult, error) {
	return c.action(ctx, "/test/login", map[string]string{"user_id": userID, "user_pw": userPW})
}

// TestDeposit asks the backend to run a real deposit.
func (c *Client) TestDeposit(ctx context.Context) (domain.ActionResult, error) {
	return c.action(ctx, "/test/deposit", map[string]string{})
}

func (c *Client) action(ctx context.Context, path string, payload any) (domain.ActionResult, error) {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return domain.ActionResult{}, err
		}
		body = b
	}
	var res domain.ActionResult
	err := c.do(ctx, http.MethodPost, path, body, &res)
	return res, err
}

// errorEnvelope is the backend's error reply.
type errorEnvelope struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key, _ := ctx.Value(idemKey{}).(string); key != "" && method == http.MethodPost {
		req.Header.Set("Idempotency-Key", key)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: read %s: %v", ErrConnectivity, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env errorEnvelope
		if json.Unmarshal(data, &env) == nil && env.Message != "" {
			return fmt.Errorf("%w: %s %s: %d %s (%s)", ErrConnectivity, method, path, resp.StatusCode, env.Message, env.Code)
		}
		return fmt.Errorf("%w: %s %s: %s", ErrConnectivity, method, path, resp.Status)
	}
	if !json.Valid(data) {
		return fmt.Errorf("%w: %s %s: response is not JSON", ErrConnectivity, method, path)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.ParseError{Path: path, Reason: err.Error()}
	}
	return nil
}
