package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"grundbuch-online/portal/pkg/address"
	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/telemetry/logging"
	"grundbuch-online/portal/pkg/uvst"
)

// Session holds the token and request log of one user against one
// environment.
type Session struct {
	environment string
	timeout     time.Duration
	info        uvst.ClientInfo
	transport   *transport
	token       Token
	log         *LogBuffer
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Session) { s.transport.httpClient = hc }
}

// WithClock replaces time.Now for token validity and durations.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithClientInfo sets the identification shown in debug XML.
func WithClientInfo(info uvst.ClientInfo) Option {
	return func(s *Session) { s.info = info }
}

// NewSession creates a session for cfg.
func NewSession(cfg config.ClientConfig, opts ...Option) *Session {
	s := &Session{
		environment: cfg.Environment,
		timeout:     cfg.Timeout,
		info: uvst.ClientInfo{
			OperatingSystem: config.DefaultClientOS,
			SoftwareName:    config.DefaultClientSoftware,
			SoftwareVersion: config.DefaultClientVersion,
		},
		transport: newTransport(cfg.GatewayURL, nil),
		log:       NewLogBuffer(cfg.LogCapacity),
		now:       time.Now,
		logger:    slog.Default().With("component", "client"),
	}
	if s.environment == "" {
		s.environment = config.EnvironmentTest
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Environment returns the UVST environment of the session.
func (s *Session) Environment() string { return s.environment }

// Token returns the current token.
func (s *Session) Token() Token { return s.token }

// Log returns the request/response log.
func (s *Session) Log() *LogBuffer { return s.log }

// Reset drops the token.
func (s *Session) Reset() { s.token = Token{} }

// Authenticate obtains a fresh token and replaces the current one. On
// failure the current token is left as it was.
func (s *Session) Authenticate(ctx context.Context) (Token, error) {
	env, err := s.call(ctx, map[string]any{
		"action":      "authenticate",
		"environment": s.environment,
	})
	if err != nil {
		return Token{}, err
	}

	var grant struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int    `json:"expiresIn"`
		TokenType   string `json:"tokenType"`
	}
	if err := json.Unmarshal(env.Data, &grant); err != nil || grant.AccessToken == "" {
		return Token{}, fmt.Errorf("malformed token grant: %s", env.Data)
	}

	s.token = NewToken(grant.AccessToken, grant.ExpiresIn, grant.TokenType, s.now())
	s.logger.InfoContext(ctx, "authenticated",
		"environment", s.environment,
		"expires_at", s.token.ExpiresAt,
	)
	return s.token, nil
}

// Document is a fetched extract or deed.
type Document struct {
	Status      int
	ContentType string
	Content     []byte
}

// QueryDocument fetches a current or historical extract.
func (s *Session) QueryDocument(ctx context.Context, q uvst.DocumentQuery) (*Document, error) {
	if err := s.checkToken(); err != nil {
		return nil, err
	}

	data := map[string]any{
		"token":      s.token.Value,
		"kg":         q.KG,
		"ez":         q.EZ,
		"format":     q.Format,
		"historical": q.Historical,
		"signed":     q.Signed,
		"linked":     q.Linked,
	}
	if q.AsOf != "" {
		data["asOfDate"] = q.AsOf
	}
	if req, err := uvst.BuildDocumentRequest(q, s.info); err == nil {
		data["debugXml"] = req.DebugXML()
	}

	env, err := s.call(ctx, map[string]any{
		"action":      "query-current-or-historical",
		"environment": s.environment,
		"data":        data,
	})
	if err != nil {
		return nil, err
	}
	return decodeDocument(env)
}

// QueryDeed fetches a deed.
func (s *Session) QueryDeed(ctx context.Context, q uvst.DeedQuery) (*Document, error) {
	if err := s.checkToken(); err != nil {
		return nil, err
	}

	data := map[string]any{
		"token":          s.token.Value,
		"kg":             q.KG,
		"documentNumber": q.DocumentNumber,
		"year":           q.Year,
		"format":         q.Format,
	}
	if q.EZ != "" {
		data["ez"] = q.EZ
	}
	if req, err := uvst.BuildDeedRequest(q, s.info); err == nil {
		data["debugXml"] = req.DebugXML()
	}

	env, err := s.call(ctx, map[string]any{
		"action":      "query-deed",
		"environment": s.environment,
		"data":        data,
	})
	if err != nil {
		return nil, err
	}
	return decodeDocument(env)
}

// NormalizeAddress asks the portal to resolve an address. The portal always
// answers, falling back to title-casing when its geocoder fails.
func (s *Session) NormalizeAddress(ctx context.Context, in address.Input) (address.Resolution, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return address.Resolution{}, err
	}
	ex, err := s.roundTrip(ctx, NormalizePath, body)
	if err != nil {
		return address.Resolution{}, err
	}
	if ex.status != http.StatusOK {
		return address.Resolution{}, &GatewayError{Status: ex.status, Body: ex.respBody}
	}

	var res address.Resolution
	if err := json.Unmarshal(ex.respBody, &res); err != nil {
		return address.Resolution{}, fmt.Errorf("failed to decode resolution: %w", err)
	}
	return res, nil
}

func (s *Session) checkToken() error {
	switch s.token.State(s.now()) {
	case TokenAbsent:
		return ErrTokenRequired
	case TokenExpired:
		return ErrTokenExpired
	}
	return nil
}

// call posts a gateway request and maps failed envelopes onto errors.
func (s *Session) call(ctx context.Context, payload map[string]any) (*wireEnvelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	ex, err := s.roundTrip(ctx, ProxyPath, body)
	if err != nil {
		return nil, err
	}

	var env wireEnvelope
	if err := json.Unmarshal(ex.respBody, &env); err != nil {
		return nil, &GatewayError{Status: ex.status, Message: "response is not an envelope", Body: ex.respBody}
	}
	if env.Success {
		return &env, nil
	}
	return nil, envelopeError(&env, s.timeout)
}

// roundTrip performs the HTTP call under the session timeout and logs it.
// A cancelled caller context leaves no log entry.
func (s *Session) roundTrip(ctx context.Context, path string, body []byte) (*exchange, error) {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ex, err := s.transport.post(callCtx, path, body, s.now)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if ex == nil {
		return nil, err
	}

	s.append(ex)

	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Timeout: s.timeout}
		}
		return nil, fmt.Errorf("portal unreachable: %w", err)
	}
	return ex, nil
}

func (s *Session) append(ex *exchange) {
	entry := LogEntry{
		ID:             uuid.New().String(),
		Timestamp:      ex.started,
		Method:         ex.method,
		Endpoint:       ex.endpoint,
		RequestHeaders: ex.headers,
		RequestBody:    maskToken(ex.reqBody),
		ResponseStatus: ex.status,
		Duration:       ex.finishedAt.Sub(ex.started),
	}
	if json.Valid(ex.respBody) {
		entry.ResponseBody = json.RawMessage(ex.respBody)
	} else if len(ex.respBody) > 0 {
		entry.ResponseBody, _ = json.Marshal(string(ex.respBody))
	}
	s.log.Append(entry)
}

// maskToken hides data.token in a logged request body.
func maskToken(body []byte) json.RawMessage {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return json.RawMessage(body)
	}
	data, ok := payload["data"].(map[string]any)
	if !ok {
		return json.RawMessage(body)
	}
	if tok, ok := data["token"].(string); ok {
		data["token"] = logging.Mask(tok)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return json.RawMessage(body)
	}
	return out
}

func envelopeError(env *wireEnvelope, timeout time.Duration) error {
	var fail struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(env.Data, &fail)

	switch {
	case env.Status == http.StatusUnauthorized || env.Status == http.StatusForbidden:
		if fail.Error == "token_required" {
			return ErrTokenRequired
		}
		return &AuthError{Status: env.Status, Body: env.Data}
	case fail.Error == "timeout" || env.Status == http.StatusGatewayTimeout:
		return &TimeoutError{Timeout: timeout}
	default:
		return &GatewayError{Status: env.Status, Kind: fail.Error, Message: fail.Message, Body: env.Data}
	}
}

func decodeDocument(env *wireEnvelope) (*Document, error) {
	var wrapped struct {
		ContentType string `json:"contentType"`
		Encoding    string `json:"encoding"`
		Content     string `json:"content"`
	}
	if err := json.Unmarshal(env.Data, &wrapped); err == nil && wrapped.Encoding != "" {
		doc := &Document{Status: env.Status, ContentType: wrapped.ContentType}
		if wrapped.Encoding == "base64" {
			content, err := base64.StdEncoding.DecodeString(wrapped.Content)
			if err != nil {
				return nil, fmt.Errorf("failed to decode document: %w", err)
			}
			doc.Content = content
		} else {
			doc.Content = []byte(wrapped.Content)
		}
		return doc, nil
	}
	return &Document{Status: env.Status, ContentType: "application/json", Content: env.Data}, nil
}
