package gateway

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"time"

	"grundbuch-online/portal/pkg/uvst"
)

// Actions accepted by Handle.
const (
	ActionAuthenticate  = "authenticate"
	ActionQueryDocument = "query-current-or-historical"
	ActionQueryDeed     = "query-deed"
)

// FailureKind classifies a failed call.
type FailureKind string

const (
	KindBadRequest    FailureKind = "bad_request"
	KindConfig        FailureKind = "configuration"
	KindValidation    FailureKind = "validation"
	KindTokenRequired FailureKind = "token_required"
	KindAuth          FailureKind = "authentication"
	KindTimeout       FailureKind = "timeout"
	KindUpstream      FailureKind = "upstream"
	KindUnreachable   FailureKind = "unreachable"
	KindParse         FailureKind = "parse"
	KindCancelled     FailureKind = "cancelled"
)

// StatusClientClosed is reported when the caller went away mid-call.
const StatusClientClosed = 499

// TimeoutMessage is shown to the user when the upstream did not answer.
const TimeoutMessage = "upstream not responding, please retry"

// Failure is the failure variant of every result. For upstream non-2xx
// answers Body holds the upstream payload unchanged.
type Failure struct {
	Kind    FailureKind
	Status  int
	Body    []byte
	Message string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s (status %d): %s", f.Kind, f.Status, f.Message)
}

// passthrough reports whether the upstream body is returned as-is.
func (f *Failure) passthrough() bool {
	return (f.Kind == KindUpstream || f.Kind == KindAuth) && len(f.Body) > 0
}

// Token is a granted access token.
type Token struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
	TokenType   string `json:"tokenType"`
}

// Document is a successful query answer.
type Document struct {
	Status      int
	ContentType string
	Body        []byte
}

// Payload returns the value placed in Envelope.Data. JSON answers are
// embedded as-is; anything else is wrapped with its content type, with
// binary formats base64 encoded.
func (d *Document) Payload() any {
	mediaType, _, _ := mime.ParseMediaType(d.ContentType)
	if mediaType == "application/json" && json.Valid(d.Body) {
		return json.RawMessage(d.Body)
	}

	out := map[string]string{"contentType": d.ContentType}
	switch mediaType {
	case "application/xml", "text/xml", "text/html", "text/plain":
		out["encoding"] = "utf-8"
		out["content"] = string(d.Body)
	default:
		out["encoding"] = "base64"
		out["content"] = base64.StdEncoding.EncodeToString(d.Body)
	}
	return out
}

// AuthenticateResult is the outcome of the authenticate action.
type AuthenticateResult struct {
	Token    *Token
	Failure  *Failure
	Duration time.Duration
}

// DocumentResult is the outcome of query-current-or-historical.
type DocumentResult struct {
	Document *Document
	Failure  *Failure
	Duration time.Duration
}

// DeedResult is the outcome of query-deed.
type DeedResult struct {
	Document *Document
	Failure  *Failure
	Duration time.Duration
}

// Request is the wire body of POST /api/uvst-proxy.
type Request struct {
	Action      string          `json:"action"`
	Environment string          `json:"environment"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// DocumentParams is the data of a query-current-or-historical request.
type DocumentParams struct {
	Token string `json:"token"`
	uvst.DocumentQuery
}

// DeedParams is the data of a query-deed request.
type DeedParams struct {
	Token string `json:"token"`
	uvst.DeedQuery
}

// Envelope is the wire answer of POST /api/uvst-proxy.
type Envelope struct {
	Success  bool  `json:"success"`
	Status   int   `json:"status"`
	Data     any   `json:"data"`
	Duration int64 `json:"duration"`

	// Kind is the failure kind, empty on success. It is not serialized.
	Kind FailureKind `json:"-"`
}

// HTTPStatus is the status code the envelope is served with. Only requests
// the gateway could not interpret are answered with 400; every other
// outcome, failures included, travels inside a 200.
func (e Envelope) HTTPStatus() int {
	if e.Kind == KindBadRequest {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

func successEnvelope(status int, data any, d time.Duration) Envelope {
	return Envelope{Success: true, Status: status, Data: data, Duration: d.Milliseconds()}
}

func failureEnvelope(f *Failure, d time.Duration) Envelope {
	var data any
	if f.passthrough() {
		if json.Valid(f.Body) {
			data = json.RawMessage(f.Body)
		} else {
			data = string(f.Body)
		}
	} else {
		data = map[string]string{"error": string(f.Kind), "message": f.Message}
	}
	return Envelope{Success: false, Status: f.Status, Data: data, Duration: d.Milliseconds(), Kind: f.Kind}
}
