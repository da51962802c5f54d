// Package backend talks to the classification service that owns users,
// predictions, history and the audit trail.
package backend

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
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/espe-ciber/sentinel-console/internal/metrics"
	"github.com/espe-ciber/sentinel-console/internal/models"
)

const maxResponseBytes = 16 << 20

// Client is a thin JSON client for the backend REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	maxRetries uint64
	retryDelay time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default pooled client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets how often idempotent GETs are retried after a connection failure
func WithRetry(maxRetries uint64, initialDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = initialDelay
	}
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:     logger,
		maxRetries: 2,
		retryDelay: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates against /usuarios/login
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	var resp struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, "login", http.MethodPost, "/usuarios/login", nil, creds, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.Username == "" {
		return nil, &models.ServerError{Op: "login", StatusCode: http.StatusBadGateway, Message: "login response carried no user", Err: models.ErrMalformedResponse}
	}
	return resp.User, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, "list_users", http.MethodGet, "/usuarios", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) CreateUser(ctx context.Context, in models.UserInput) error {
	return c.do(ctx, "create_user", http.MethodPost, "/usuarios", nil, in, nil)
}

func (c *Client) UpdateUser(ctx context.Context, username string, in models.UserInput) error {
	return c.do(ctx, "update_user", http.MethodPut, "/usuarios/"+url.PathEscape(username), nil, in, nil)
}

func (c *Client) DeleteUser(ctx context.Context, username string) error {
	return c.do(ctx, "delete_user", http.MethodDelete, "/usuarios/"+url.PathEscape(username), nil, nil, nil)
}

// Predict classifies a message. The acting username travels in the usuario header.
func (c *Client) Predict(ctx context.Context, actor, message string) (models.OrderedRecord, error) {
	var out models.OrderedRecord
	header := http.Header{}
	header.Set("usuario", actor)
	body := map[string]string{"mensaje": message}
	if err := c.do(ctx, "predict", http.MethodPost, "/predecir", header, body, &out); err != nil {
		return models.OrderedRecord{}, err
	}
	return out, nil
}

func (c *Client) ListHistory(ctx context.Context) ([]models.OrderedRecord, error) {
	var rows []models.OrderedRecord
	if err := c.do(ctx, "list_history", http.MethodGet, "/historial", nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) UpdateHistory(ctx context.Context, id string, upd models.HistoryUpdate) error {
	return c.do(ctx, "update_history", http.MethodPut, "/historial/"+url.PathEscape(id), nil, upd, nil)
}

func (c *Client) DeleteHistory(ctx context.Context, id string) error {
	return c.do(ctx, "delete_history", http.MethodDelete, "/historial/"+url.PathEscape(id), nil, nil, nil)
}

// ListAudit fetches the audit trail. Entries that cannot be decoded are
// skipped and logged rather than failing the whole listing.
func (c *Client) ListAudit(ctx context.Context) ([]models.AuditRecord, error) {
	var raw []json.RawMessage
	if err := c.do(ctx, "list_audit", http.MethodGet, "/auditoria", nil, nil, &raw); err != nil {
		return nil, err
	}

	records := make([]models.AuditRecord, 0, len(raw))
	for i, item := range raw {
		var rec models.AuditRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			c.logger.Warn("skipping undecodable audit record", "index", i, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Ping checks the backend answers HTTP at all. Any status counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.NetworkError{Op: "ping", Err: err}
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, header http.Header, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("backend %s: encode request: %w", op, err)
		}
	}

	attempt := func() error {
		err := c.roundTrip(ctx, op, method, path, header, payload, out)
		var netErr *models.NetworkError
		if err != nil && !errors.As(err, &netErr) {
			return backoff.Permanent(err)
		}
		return err
	}

	if method != http.MethodGet || c.maxRetries == 0 {
		return c.roundTrip(ctx, op, method, path, header, payload, out)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryDelay
	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx))
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, header http.Header, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		return &models.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	metrics.BackendRequestDuration.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &models.NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("backend returned error status", "operation", op, "status", resp.StatusCode)
		return &models.ServerError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &models.ServerError{Op: op, StatusCode: http.StatusBadGateway, Message: "malformed backend response", Err: models.ErrMalformedResponse}
	}
	return nil
}
