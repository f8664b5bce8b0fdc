// Package rpc implements the point-to-point request/response channel the
// services use to call each other. Calls are addressed by a service queue
// name and a message pattern, carry a JSON payload, and come back as either
// a success payload or a structured rejection. Rejections produced inside
// the callee cross the wire as data and are re-raised on the caller side as
// the same *types.APIError, so handlers see one error model regardless of
// where the failure originated. Transport faults (broker down, call
// deadline exceeded) surface as 503 instead.
package rpc

import (
	"context"
	"encoding/json"

	"github.com/taskhive/taskhive/types"
)

// Service queue names.
const (
	ServiceUsers  = "users"
	ServiceTokens = "tokens"
	ServiceTasks  = "tasks"
)

// Caller issues a single request to a remote service and decodes exactly one
// response into result. A nil result discards the success payload.
type Caller interface {
	Call(ctx context.Context, service, pattern string, payload, result any) error
}

// HandlerFunc processes one inbound message. Returning a *types.APIError
// rejects the request with that status and message; any other error is
// reported to the caller as a generic internal rejection.
type HandlerFunc func(ctx context.Context, data []byte) (any, error)

// envelope is the wire shape of every response. Exactly one of Data and
// Error is set.
type envelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error *types.APIError `json:"error,omitempty"`
}

func encodeResult(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Data: data})
}

func encodeRejection(apiErr *types.APIError) []byte {
	body, err := json.Marshal(envelope{Error: apiErr})
	if err != nil {
		// APIError marshalling cannot fail; keep the wire contract anyway.
		return []byte(`{"error":{"statusCode":500,"message":"internal server error"}}`)
	}
	return body
}

// decodeResponse unpacks a response envelope into result. A rejection is
// returned as the *types.APIError it carries.
func decodeResponse(body []byte, result any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return types.Unavailable("invalid response from service")
	}
	if env.Error != nil {
		return env.Error
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return types.Unavailable("invalid response from service")
	}
	return nil
}
