// Package client calls the ledger API on behalf of a mini-app user. It is
// the delete collaborator of the swipe engine and the data source of the
// history lists.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/swipe"
)

// HeaderInitData carries the signed mini-app launch parameters.
const HeaderInitData = "X-Tg-Init-Data"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidRowID = errors.New("row id is not a transaction id")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Created is the answer to a successful Create.
type Created struct {
	Message  string               `json:"message"`
	ID       int64                `json:"id"`
	Category string               `json:"category"`
	Type     core.TransactionType `json:"type"`
	Amount   int64                `json:"amount"`
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

type Client struct {
	baseURL  *url.URL
	initData string
	http     *http.Client
}

var _ swipe.Deleter = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after 15s.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the API at baseURL that authenticates with
// initData.
func New(baseURL, initData string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	c := &Client{
		baseURL:  u,
		initData: initData,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Delete removes the transaction behind a history row.
func (c *Client) Delete(ctx context.Context, rowID string) error {
	id, err := strconv.ParseInt(rowID, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("delete %q: %w", rowID, ErrInvalidRowID)
	}
	body := map[string]int64{"id": id}
	if err := c.do(ctx, http.MethodPost, "/api/delete", nil, body, nil); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// Stats fetches the dashboard summary for period.
func (c *Client) Stats(ctx context.Context, period core.Period) (core.Stats, error) {
	var stats core.Stats
	q := url.Values{"period": {string(period)}}
	if err := c.do(ctx, http.MethodGet, "/api/stats", q, nil, &stats); err != nil {
		return core.Stats{}, fmt.Errorf("load stats: %w", err)
	}
	return stats, nil
}

// Transactions returns the history rows of period, newest first.
func (c *Client) Transactions(ctx context.Context, period core.Period) ([]core.Transaction, error) {
	stats, err := c.Stats(ctx, period)
	if err != nil {
		return nil, err
	}
	return stats.History, nil
}

// Create submits a free-text entry. kind may be empty to let the server
// categorise it.
func (c *Client) Create(ctx context.Context, text string, kind core.TransactionType) (Created, error) {
	body := map[string]string{"text": text}
	if kind != "" {
		body["type"] = string(kind)
	}
	var out Created
	if err := c.do(ctx, http.MethodPost, "/api/index", nil, body, &out); err != nil {
		return Created{}, fmt.Errorf("create transaction: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(HeaderInitData, c.initData)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "API call",
		applog.FieldComponent, applog.ComponentClient,
		applog.FieldMethod, method,
		applog.FieldPath, path,
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, time.Since(start).Milliseconds())

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return statusError(resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.OK {
		return statusError(resp.StatusCode, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

func statusError(status int, msg string) error {
	if status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	}
	return &APIError{Status: status, Message: msg}
}
