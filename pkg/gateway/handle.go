package gateway

import (
	"context"
	"encoding/json"
	"net/http"
)

// Handle runs one wire request and returns its envelope. Unknown actions,
// unknown environments and undecodable data yield a bad_request envelope.
func (g *Gateway) Handle(ctx context.Context, req Request, meta CallMeta) Envelope {
	start := g.now()

	ctx, finish := g.startSpan(ctx, req)
	env := g.dispatch(ctx, req)
	finish(env)

	g.observe(ctx, req, meta, env, start)
	return env
}

func (g *Gateway) dispatch(ctx context.Context, req Request) Envelope {
	switch req.Action {
	case ActionAuthenticate, ActionQueryDocument, ActionQueryDeed:
	default:
		return badRequest("unknown action " + quote(req.Action))
	}
	if !g.upstream.HasEnvironment(req.Environment) {
		return badRequest("unknown environment " + quote(req.Environment))
	}

	switch req.Action {
	case ActionAuthenticate:
		res := g.Authenticate(ctx, req.Environment)
		if res.Failure != nil {
			return failureEnvelope(res.Failure, res.Duration)
		}
		return successEnvelope(http.StatusOK, res.Token, res.Duration)

	case ActionQueryDocument:
		var params DocumentParams
		if err := decodeData(req.Data, &params); err != nil {
			return badRequest("invalid data: " + err.Error())
		}
		res := g.QueryDocument(ctx, req.Environment, params.Token, params.DocumentQuery)
		if res.Failure != nil {
			return failureEnvelope(res.Failure, res.Duration)
		}
		return successEnvelope(res.Document.Status, res.Document.Payload(), res.Duration)

	default:
		var params DeedParams
		if err := decodeData(req.Data, &params); err != nil {
			return badRequest("invalid data: " + err.Error())
		}
		res := g.QueryDeed(ctx, req.Environment, params.Token, params.DeedQuery)
		if res.Failure != nil {
			return failureEnvelope(res.Failure, res.Duration)
		}
		return successEnvelope(res.Document.Status, res.Document.Payload(), res.Duration)
	}
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

// BadRequest builds the envelope for a body that could not be parsed.
func BadRequest(message string) Envelope {
	return badRequest(message)
}

func badRequest(message string) Envelope {
	return failureEnvelope(&Failure{
		Kind:    KindBadRequest,
		Status:  http.StatusBadRequest,
		Message: message,
	}, 0)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
