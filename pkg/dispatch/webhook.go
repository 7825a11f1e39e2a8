package dispatch

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/security/secrets"
	"grundbuch-online/portal/pkg/telemetry/tracing"
)

// Header names sent with every delivery.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderSignature      = "X-Portal-Signature"
	HeaderTaskKind       = "X-Portal-Task-Kind"
)

// KeySource resolves the signing key. *secrets.Manager implements it.
type KeySource interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// Sender delivers one task downstream.
type Sender interface {
	Send(ctx context.Context, t *Task) error
}

// DeliveryError is a non-2xx answer from a webhook.
type DeliveryError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("webhook %s answered %d: %s", e.URL, e.StatusCode, e.Body)
}

// WebhookSender posts task payloads to the webhooks registered per kind.
type WebhookSender struct {
	client *http.Client
	hooks  map[Kind][]string
	keys   KeySource
}

// NewWebhookSender creates a sender for the configured webhooks.
func NewWebhookSender(cfg config.DispatchConfig, keys KeySource) *WebhookSender {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	hooks := make(map[Kind][]string)
	for _, w := range cfg.Webhooks {
		hooks[Kind(w.Kind)] = append(hooks[Kind(w.Kind)], w.URL)
	}
	return &WebhookSender{
		client: &http.Client{Timeout: timeout},
		hooks:  hooks,
		keys:   keys,
	}
}

// WithHTTPClient replaces the HTTP client.
func (s *WebhookSender) WithHTTPClient(hc *http.Client) *WebhookSender {
	s.client = hc
	return s
}

// Send posts t to every webhook of its kind. All of them must answer 2xx
// for the task to count as delivered. A kind without webhooks is delivered
// trivially.
func (s *WebhookSender) Send(ctx context.Context, t *Task) (err error) {
	ctx, span := tracing.Start(ctx, "dispatch.send",
		tracing.AttrTaskKind.String(string(t.Kind)),
		tracing.AttrOrderNumber.String(t.OrderNumber),
	)
	defer func() { tracing.End(span, err) }()

	key, err := s.signingKey(ctx)
	if err != nil {
		return err
	}
	for _, url := range s.hooks[t.Kind] {
		if err := s.post(ctx, url, key, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *WebhookSender) signingKey(ctx context.Context) (string, error) {
	if s.keys == nil {
		return "", nil
	}
	key, err := s.keys.Lookup(ctx, secrets.WebhookSigningKey)
	if errors.Is(err, secrets.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve signing key: %w", err)
	}
	return key, nil
}

func (s *WebhookSender) post(ctx context.Context, url, key string, t *Task) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(t.Payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderIdempotencyKey, t.IdempotencyKey())
	req.Header.Set(HeaderTaskKind, string(t.Kind))
	if key != "" {
		req.Header.Set(HeaderSignature, "sha256="+Sign(key, t.Payload))
	}
	tracing.Inject(ctx, req.Header)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s unreachable: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &DeliveryError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under key.
func Sign(key string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a X-Portal-Signature header value against body.
func Verify(key string, body []byte, header string) bool {
	const prefix = "sha256="
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}
	want, err := hex.DecodeString(header[len(prefix):])
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}
