// Package rest talks to the expense API over HTTP/JSON.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pocketspend/internal/core"
	"pocketspend/internal/log"
	"pocketspend/internal/middleware/trace"
	"pocketspend/internal/remote"
)

// Config locates the two remote collections. A zero Timeout leaves
// requests unbounded.
type Config struct {
	UsersURL    string
	ExpensesURL string
	Timeout     time.Duration
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.Code)
}

// Is lets a 404 match remote.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == remote.ErrNotFound && e.Code == http.StatusNotFound
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *log.Logger
}

var _ remote.API = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithLogger(l *log.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if err := validateURL("users", cfg.UsersURL); err != nil {
		return nil, err
	}
	if err := validateURL("expenses", cfg.ExpensesURL); err != nil {
		return nil, err
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout %s", cfg.Timeout)
	}
	c := &Client{cfg: cfg}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	c.logger = log.OrNop(c.logger).WithComponent(log.ComponentRemote)
	return c, nil
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s URL %q", name, raw)
	}
	return nil
}

func (c *Client) ListUsers(ctx context.Context) ([]core.User, error) {
	var users []core.User
	if err := c.do(ctx, "list users", http.MethodGet, c.cfg.UsersURL, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	var expenses []core.Expense
	if err := c.do(ctx, "list expenses", http.MethodGet, c.cfg.ExpensesURL, nil, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (c *Client) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = ""
	var created core.Expense
	if err := c.do(ctx, "create expense", http.MethodPost, c.cfg.ExpensesURL, e, &created); err != nil {
		return core.Expense{}, err
	}
	return created, nil
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	target := strings.TrimRight(c.cfg.ExpensesURL, "/") + "/" + url.PathEscape(id)
	return c.do(ctx, "delete expense", http.MethodDelete, target, nil, nil)
}

// do performs one request. Every failure, including non-2xx responses, is
// returned as a *core.TransportError.
func (c *Client) do(ctx context.Context, op, method, target string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return &core.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := trace.GetRequestID(ctx); id != "" {
		req.Header.Set(trace.RequestIDHeader, id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Remote request failed",
			"op", op, "method", method, "url", target, "error", err)
		return &core.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "Remote request completed",
		"op", op, "method", method, "url", target,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &core.TransportError{Op: op, Err: &StatusError{Code: resp.StatusCode}}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return &core.TransportError{Op: op, Err: errors.New("empty response body")}
		}
		return &core.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
