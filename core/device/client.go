package device

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the default timeout for device requests
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum accepted response body (10MB)
	MaxResponseSize = 10 * 1024 * 1024

	// UserAgent is the user agent string for device requests
	UserAgent = "declaration-manager/1.0"

	coordinationHeader = "X-F5-REST-Coordination-Id"
	transactionPath    = "/tm/transaction"
	defaultPartition   = "Common"
)

// HTTPClient talks to an iControl-REST style management API.
type HTTPClient struct {
	client   *http.Client
	baseURL  string
	username string
	password string
	logger   *zap.Logger
}

// NewHTTPClient creates a client for the device described by cfg.
func NewHTTPClient(cfg Config, logger *zap.Logger) (*HTTPClient, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("device host is not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := cfg.Host
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		if cfg.Port > 0 {
			base = fmt.Sprintf("%s://%s:%d", scheme, base, cfg.Port)
		} else {
			base = fmt.Sprintf("%s://%s", scheme, base)
		}
	}
	base = strings.TrimSuffix(base, "/") + "/mgmt"

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // lab devices ship self-signed certs
	}

	return &HTTPClient{
		client:   &http.Client{Timeout: timeout, Transport: transport},
		baseURL:  base,
		username: cfg.Username,
		password: cfg.Password,
		logger:   logger,
	}, nil
}

// Create POSTs body to the collection at path.
func (c *HTTPClient) Create(ctx context.Context, path string, body Body) error {
	_, err := c.do(ctx, http.MethodPost, path, body, nil, nil)
	return err
}

// Modify PATCHes body onto the object at path.
func (c *HTTPClient) Modify(ctx context.Context, path string, body Body) error {
	_, err := c.do(ctx, http.MethodPatch, path, body, nil, nil)
	return err
}

// CreateOrModify POSTs body to path and falls back to a PATCH of the named item
// when the device reports that it already exists.
func (c *HTTPClient) CreateOrModify(ctx context.Context, path string, body Body, opts *QueryOptions, retry *RetryPolicy) error {
	var params map[string]string
	if opts != nil {
		params = opts.Params
	}

	operation := func() (struct{}, error) {
		err := c.createOrModifyOnce(ctx, path, body, params)
		if err != nil && !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation, retryOptions(retry, c.logger, path)...)
	return err
}

func (c *HTTPClient) createOrModifyOnce(ctx context.Context, path string, body Body, params map[string]string) error {
	_, err := c.do(ctx, http.MethodPost, path, body, nil, params)
	if err == nil || !IsConflict(err) {
		return err
	}

	name, _ := body["name"].(string)
	if name == "" {
		return err
	}
	partition, _ := body["partition"].(string)
	if partition == "" {
		partition = defaultPartition
	}
	itemPath := fmt.Sprintf("%s/~%s~%s", strings.TrimSuffix(path, "/"), partition, name)
	_, err = c.do(ctx, http.MethodPatch, itemPath, body, nil, params)
	return err
}

// Transaction submits commands under one coordination id and commits them.
// An empty command list is a no-op.
func (c *HTTPClient) Transaction(ctx context.Context, commands []Command) error {
	if len(commands) == 0 {
		return nil
	}

	resp, err := c.do(ctx, http.MethodPost, transactionPath, Body{}, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to open transaction: %w", err)
	}
	transID := gjson.GetBytes(resp, "transId").String()
	if transID == "" {
		return fmt.Errorf("failed to open transaction: response carries no transId")
	}
	log := c.logger.With(zap.String("transaction", transID))
	log.Debug("Transaction opened", zap.Int("commands", len(commands)))

	headers := map[string]string{coordinationHeader: transID}
	for i, cmd := range commands {
		method, err := httpMethod(cmd.Method)
		if err != nil {
			c.discard(ctx, transID)
			return err
		}
		if _, err := c.do(ctx, method, cmd.Path, cmd.Body, headers, nil); err != nil {
			c.discard(ctx, transID)
			return fmt.Errorf("transaction %s: command %d (%s %s) rejected: %w", transID, i, cmd.Method, cmd.Path, err)
		}
	}

	resp, err = c.do(ctx, http.MethodPatch, transactionPath+"/"+transID, Body{"state": "VALIDATING"}, nil, nil)
	if err != nil {
		return fmt.Errorf("transaction %s: commit failed: %w", transID, err)
	}
	state := gjson.GetBytes(resp, "state").String()
	if state == "" {
		return fmt.Errorf("transaction %s: commit response carries no state", transID)
	}
	if state != "COMPLETED" {
		reason := gjson.GetBytes(resp, "failureReason").String()
		if reason == "" {
			reason = "no failure reason reported"
		}
		return fmt.Errorf("transaction %s ended in state %s: %s", transID, state, reason)
	}

	log.Debug("Transaction committed")
	return nil
}

// discard drops an uncommitted transaction. Failures are only logged; the device
// expires abandoned transactions on its own.
func (c *HTTPClient) discard(ctx context.Context, transID string) {
	if _, err := c.do(ctx, http.MethodDelete, transactionPath+"/"+transID, nil, nil, nil); err != nil {
		c.logger.Warn("Failed to discard transaction", zap.String("transaction", transID), zap.Error(err))
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body Body, headers, params map[string]string) ([]byte, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		target += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("Device request", zap.String("method", method), zap.String("path", path))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := gjson.GetBytes(data, "message").String()
		if message == "" {
			message = resp.Status
		}
		return nil, NewHTTPError(resp.StatusCode, method, path, message)
	}
	return data, nil
}

func httpMethod(m Method) (string, error) {
	switch m {
	case MethodCreate:
		return http.MethodPost, nil
	case MethodModify:
		return http.MethodPatch, nil
	default:
		return "", fmt.Errorf("unsupported command method %q", m)
	}
}

func retryOptions(policy *RetryPolicy, logger *zap.Logger, path string) []backoff.RetryOption {
	if policy == nil {
		return []backoff.RetryOption{backoff.WithMaxTries(1)}
	}

	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}

	tries := policy.MaxTries
	if tries == 0 {
		tries = 1
	}
	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("Retrying device request",
				zap.String("path", path),
				zap.Duration("next", next),
				zap.Error(err),
			)
		}),
	}
	if policy.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(policy.MaxElapsed))
	}
	return opts
}

