package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"grundbuch-online/portal/pkg/audit"
	"grundbuch-online/portal/pkg/audit/recorder"
	"grundbuch-online/portal/pkg/security/secrets"
	"grundbuch-online/portal/pkg/telemetry/logging"
	"grundbuch-online/portal/pkg/telemetry/metrics"
	"grundbuch-online/portal/pkg/telemetry/tracing"
	"grundbuch-online/portal/pkg/uvst"
)

// Upstream is the register API. *uvst.Client implements it.
type Upstream interface {
	HasEnvironment(env string) bool
	ClientInfo() uvst.ClientInfo
	Authenticate(ctx context.Context, env string, creds uvst.Credentials) (*uvst.AuthResponse, error)
	QueryDocument(ctx context.Context, env, apiKey, token string, req uvst.DocumentRequest) (*uvst.Response, error)
	QueryDeed(ctx context.Context, env, apiKey, token string, req uvst.DeedRequest) (*uvst.Response, error)
}

// CredentialSource resolves upstream credentials. *secrets.Manager
// implements it.
type CredentialSource interface {
	UVSTCredentials(ctx context.Context, env string) (secrets.Credentials, error)
}

// Recorder receives one audit record per call. *recorder.Recorder
// implements it.
type Recorder interface {
	Record(ctx context.Context, record *audit.Record) error
}

// Gateway relays calls to the register. It is stateless apart from reading
// the credential source and is safe for concurrent use.
type Gateway struct {
	upstream Upstream
	creds    CredentialSource
	metrics  *metrics.Collector
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithMetrics records call counts and latency.
func WithMetrics(c *metrics.Collector) Option {
	return func(g *Gateway) { g.metrics = c }
}

// WithRecorder writes an audit record per call.
func WithRecorder(r Recorder) Option {
	return func(g *Gateway) { g.recorder = r }
}

// WithClock replaces time.Now for duration measurement.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// New creates a gateway.
func New(upstream Upstream, creds CredentialSource, opts ...Option) *Gateway {
	g := &Gateway{
		upstream: upstream,
		creds:    creds,
		logger:   slog.Default().With("component", "gateway"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate exchanges the stored credentials of env for a token.
func (g *Gateway) Authenticate(ctx context.Context, env string) AuthenticateResult {
	start := g.now()

	creds, f := g.credentials(ctx, env)
	if f != nil {
		return AuthenticateResult{Failure: f, Duration: g.now().Sub(start)}
	}

	resp, err := g.upstream.Authenticate(ctx, env, uvst.Credentials{
		Username: creds.Username,
		Password: creds.Password,
		APIKey:   creds.APIKey,
	})
	d := g.now().Sub(start)
	if err != nil {
		return AuthenticateResult{Failure: failureFromError(err), Duration: d}
	}
	return AuthenticateResult{
		Token: &Token{
			AccessToken: resp.AccessToken,
			ExpiresIn:   resp.ExpiresIn,
			TokenType:   resp.TokenType,
		},
		Duration: d,
	}
}

// QueryDocument fetches a current or historical extract with token.
func (g *Gateway) QueryDocument(ctx context.Context, env, token string, q uvst.DocumentQuery) DocumentResult {
	start := g.now()

	if token == "" {
		return DocumentResult{Failure: tokenRequired(), Duration: g.now().Sub(start)}
	}
	req, err := uvst.BuildDocumentRequest(q, g.upstream.ClientInfo())
	if err != nil {
		return DocumentResult{Failure: failureFromError(err), Duration: g.now().Sub(start)}
	}
	creds, f := g.credentials(ctx, env)
	if f != nil {
		return DocumentResult{Failure: f, Duration: g.now().Sub(start)}
	}

	resp, err := g.upstream.QueryDocument(ctx, env, creds.APIKey, token, req)
	d := g.now().Sub(start)
	if err != nil {
		return DocumentResult{Failure: failureFromError(err), Duration: d}
	}
	return DocumentResult{Document: documentFrom(resp), Duration: d}
}

// QueryDeed fetches a deed with token.
func (g *Gateway) QueryDeed(ctx context.Context, env, token string, q uvst.DeedQuery) DeedResult {
	start := g.now()

	if token == "" {
		return DeedResult{Failure: tokenRequired(), Duration: g.now().Sub(start)}
	}
	req, err := uvst.BuildDeedRequest(q, g.upstream.ClientInfo())
	if err != nil {
		return DeedResult{Failure: failureFromError(err), Duration: g.now().Sub(start)}
	}
	creds, f := g.credentials(ctx, env)
	if f != nil {
		return DeedResult{Failure: f, Duration: g.now().Sub(start)}
	}

	resp, err := g.upstream.QueryDeed(ctx, env, creds.APIKey, token, req)
	d := g.now().Sub(start)
	if err != nil {
		return DeedResult{Failure: failureFromError(err), Duration: d}
	}
	return DeedResult{Document: documentFrom(resp), Duration: d}
}

// credentials fails fast when the secret store lacks anything for env.
func (g *Gateway) credentials(ctx context.Context, env string) (secrets.Credentials, *Failure) {
	creds, err := g.creds.UVSTCredentials(ctx, env)
	if err != nil {
		g.logger.ErrorContext(ctx, "uvst credentials unavailable", "environment", env, "error", err)
		return secrets.Credentials{}, &Failure{
			Kind:    KindConfig,
			Status:  http.StatusInternalServerError,
			Message: "credentials for environment " + env + " are not configured",
		}
	}
	return creds, nil
}

func tokenRequired() *Failure {
	return &Failure{
		Kind:    KindTokenRequired,
		Status:  http.StatusUnauthorized,
		Message: "token required, authenticate first",
	}
}

func documentFrom(resp *uvst.Response) *Document {
	return &Document{Status: resp.StatusCode, ContentType: resp.ContentType, Body: resp.Body}
}

// failureFromError maps the uvst error taxonomy onto a Failure.
func failureFromError(err error) *Failure {
	var (
		cfgErr      *uvst.ConfigError
		validErr    *uvst.ValidationError
		authErr     *uvst.AuthError
		timeoutErr  *uvst.TimeoutError
		upstreamErr *uvst.UpstreamError
		parseErr    *uvst.ParseError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return &Failure{Kind: KindCancelled, Status: StatusClientClosed, Message: "request cancelled"}
	case errors.As(err, &cfgErr):
		return &Failure{Kind: KindConfig, Status: http.StatusInternalServerError, Message: cfgErr.Error()}
	case errors.As(err, &validErr):
		return &Failure{Kind: KindValidation, Status: http.StatusBadRequest, Message: validErr.Error()}
	case errors.As(err, &authErr):
		return &Failure{Kind: KindAuth, Status: authErr.StatusCode, Body: authErr.Body, Message: "authentication failed, re-authenticate"}
	case errors.As(err, &timeoutErr):
		return &Failure{Kind: KindTimeout, Status: http.StatusGatewayTimeout, Message: TimeoutMessage}
	case errors.As(err, &upstreamErr):
		if upstreamErr.StatusCode == 0 {
			return &Failure{Kind: KindUnreachable, Status: http.StatusBadGateway, Message: "upstream unreachable"}
		}
		return &Failure{Kind: KindUpstream, Status: upstreamErr.StatusCode, Body: upstreamErr.Body, Message: upstreamErr.Error()}
	case errors.As(err, &parseErr):
		return &Failure{Kind: KindParse, Status: http.StatusBadGateway, Message: "malformed upstream response"}
	default:
		return &Failure{Kind: KindUpstream, Status: http.StatusBadGateway, Message: err.Error()}
	}
}

// observe logs, counts and audits one finished call.
func (g *Gateway) observe(ctx context.Context, req Request, meta CallMeta, env Envelope, start time.Time) {
	outcome := "ok"
	if !env.Success {
		outcome = string(env.Kind)
	}
	d := time.Duration(env.Duration) * time.Millisecond

	g.metrics.RecordGatewayCall(req.Action, req.Environment, outcome, d)

	level := slog.LevelInfo
	if !env.Success && env.Kind != KindTokenRequired && env.Kind != KindValidation {
		level = slog.LevelWarn
	}
	g.logger.Log(ctx, level, "gateway call completed",
		"action", req.Action,
		"environment", req.Environment,
		"status", env.Status,
		"outcome", outcome,
		"duration_ms", env.Duration,
	)

	// A call the client abandoned leaves no audit trail.
	if g.recorder == nil || env.Kind == KindCancelled {
		return
	}
	record := &audit.Record{
		RequestID:   meta.RequestID,
		Action:      req.Action,
		Environment: req.Environment,
		RequestTime: start,
		Duration:    d,
		Status:      env.Status,
		Success:     env.Success,
		Outcome:     outcome,
		RequestHash: recorder.HashContent(req.Data),
		RemoteAddr:  meta.RemoteAddr,
	}
	if !env.Success {
		if m, ok := env.Data.(map[string]string); ok {
			record.Error = m["message"]
		}
	}
	if err := g.recorder.Record(ctx, record); err != nil {
		g.logger.DebugContext(ctx, "audit record not written", "error", err)
	}
}

// CallMeta describes the inbound HTTP call for auditing.
type CallMeta struct {
	RequestID  string
	RemoteAddr string
}

func (g *Gateway) startSpan(ctx context.Context, req Request) (context.Context, func(Envelope)) {
	ctx = logging.WithEnvironment(ctx, req.Environment)
	ctx, span := tracing.Start(ctx, "gateway."+req.Action,
		tracing.AttrAction.String(req.Action),
		tracing.AttrEnvironment.String(req.Environment),
	)
	return ctx, func(env Envelope) {
		var err error
		if !env.Success {
			span.SetAttributes(tracing.AttrFailureKind.String(string(env.Kind)))
			err = errors.New(string(env.Kind))
		}
		tracing.End(span, err)
	}
}
