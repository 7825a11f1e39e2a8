package uvst

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/telemetry/tracing"
)

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 32 << 20

// Credentials are the values the authenticate call needs.
type Credentials struct {
	Username string
	Password string
	APIKey   string
}

// Response is a successful upstream answer.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client talks to the UVST register API. It never retries: every failure is
// returned to the caller as a typed error.
type Client struct {
	environments map[string]string
	apiKeyHeader string
	timeout      time.Duration
	info         ClientInfo
	httpClient   *http.Client
	logger       *slog.Logger
}

// New creates a client for the environments in cfg.
func New(cfg config.UVSTConfig) *Client {
	envs := make(map[string]string, len(cfg.Environments))
	for name, env := range cfg.Environments {
		envs[name] = strings.TrimRight(env.BaseURL, "/")
	}
	return &Client{
		environments: envs,
		apiKeyHeader: cfg.APIKeyHeader,
		timeout:      cfg.Timeout,
		info: ClientInfo{
			OperatingSystem: cfg.Client.OperatingSystem,
			SoftwareName:    cfg.Client.SoftwareName,
			SoftwareVersion: cfg.Client.SoftwareVersion,
		},
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		logger: slog.Default().With("component", "uvst"),
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// ClientInfo returns the identification attached to queries.
func (c *Client) ClientInfo() ClientInfo {
	return c.info
}

// HasEnvironment reports whether env has a configured base URL.
func (c *Client) HasEnvironment(env string) bool {
	_, ok := c.environments[env]
	return ok
}

// Authenticate exchanges credentials for an access token. The password is
// sent as its MD5 hex digest.
func (c *Client) Authenticate(ctx context.Context, env string, creds Credentials) (*AuthResponse, error) {
	if creds.Username == "" || creds.Password == "" || creds.APIKey == "" {
		return nil, &ConfigError{Field: "uvst-" + env + "-credentials", Message: "credentials are incomplete"}
	}

	body := AuthRequest{Username: creds.Username, Password: HashPassword(creds.Password)}
	resp, err := c.post(ctx, env, PathAuthenticate, body, map[string]string{
		c.apiKeyHeader: creds.APIKey,
	})
	if err != nil {
		return nil, err
	}

	var out AuthResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, &ParseError{Environment: env, RawResponse: string(resp.Body), Cause: err}
	}
	if out.AccessToken == "" {
		return nil, &ParseError{Environment: env, RawResponse: string(resp.Body), Cause: errors.New("accessToken missing")}
	}
	return &out, nil
}

// QueryDocument posts a prepared document request.
func (c *Client) QueryDocument(ctx context.Context, env, apiKey, token string, req DocumentRequest) (*Response, error) {
	return c.post(ctx, env, PathDocument, req, c.bearerHeaders(apiKey, token))
}

// QueryDeed posts a prepared deed request.
func (c *Client) QueryDeed(ctx context.Context, env, apiKey, token string, req DeedRequest) (*Response, error) {
	return c.post(ctx, env, PathDeed, req, c.bearerHeaders(apiKey, token))
}

func (c *Client) bearerHeaders(apiKey, token string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + token,
		c.apiKeyHeader:  apiKey,
	}
}

// post sends body as JSON and maps the outcome onto the error taxonomy.
func (c *Client) post(ctx context.Context, env, path string, body any, headers map[string]string) (*Response, error) {
	base, ok := c.environments[env]
	if !ok {
		return nil, &ConfigError{Field: "uvst.environments." + env, Message: "environment is not configured"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, span := tracing.Start(ctx, "uvst"+path, tracing.AttrEnvironment.String(env))
	var spanErr error
	defer func() { tracing.End(span, spanErr) }()

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, base+path, bytes.NewReader(payload))
	if err != nil {
		spanErr = err
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	tracing.Inject(callCtx, req.Header)

	c.logger.DebugContext(ctx, "sending request to uvst", "environment", env, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		spanErr = err
		return nil, c.transportError(ctx, callCtx, env, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		spanErr = err
		return nil, c.transportError(ctx, callCtx, env, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return &Response{
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        data,
		}, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		spanErr = &AuthError{Environment: env, StatusCode: resp.StatusCode, Body: data}
		return nil, spanErr
	default:
		c.logger.WarnContext(ctx, "uvst returned error status",
			"environment", env,
			"path", path,
			"status", resp.StatusCode,
		)
		spanErr = &UpstreamError{Environment: env, StatusCode: resp.StatusCode, Body: data}
		return nil, spanErr
	}
}

// transportError separates the caller cancelling from the upstream timing out.
func (c *Client) transportError(parent, call context.Context, env string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Environment: env, Timeout: c.timeout}
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Environment: env, Timeout: c.timeout}
	}
	return &UpstreamError{Environment: env, Cause: err}
}
