package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Portal endpoints used by the session.
const (
	ProxyPath     = "/api/uvst-proxy"
	NormalizePath = "/api/address/normalize"
)

// wireEnvelope is the decoded gateway answer.
type wireEnvelope struct {
	Success  bool            `json:"success"`
	Status   int             `json:"status"`
	Data     json.RawMessage `json:"data"`
	Duration int64           `json:"duration"`
}

// exchange is one finished HTTP round trip.
type exchange struct {
	method     string
	endpoint   string
	headers    map[string]string
	reqBody    []byte
	status     int
	respBody   []byte
	started    time.Time
	finishedAt time.Time
}

// transport posts JSON to a portal server.
type transport struct {
	baseURL    string
	httpClient *http.Client
}

func newTransport(baseURL string, hc *http.Client) *transport {
	if hc == nil {
		hc = &http.Client{}
	}
	return &transport{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

// post sends body to path. The returned exchange is filled in as far as the
// call got, and is nil when the request could not even be built.
func (t *transport) post(ctx context.Context, path string, body []byte, now func() time.Time) (*exchange, error) {
	ex := &exchange{
		method:   http.MethodPost,
		endpoint: path,
		headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"X-Request-ID": uuid.New().String(),
		},
		reqBody: body,
		started: now(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range ex.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		ex.finishedAt = now()
		return ex, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	ex.finishedAt = now()
	ex.status = resp.StatusCode
	ex.respBody = data
	if err != nil {
		return ex, err
	}
	return ex, nil
}
