package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive/types"
)

func TestEncodeDecodeResult(t *testing.T) {
	t.Parallel()

	body, err := encodeResult(map[string]string{"userId": "u1"})
	require.NoError(t, err)

	var result struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, decodeResponse(body, &result))
	assert.Equal(t, "u1", result.UserID)
}

func TestDecodeResponseRejection(t *testing.T) {
	t.Parallel()

	body := encodeRejection(types.Unauthorized("Authorization failed, please retry"))

	err := decodeResponse(body, nil)
	apiErr, ok := types.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Authorization failed, please retry", apiErr.Message)
}

func TestDecodeResponseNilResultDiscardsData(t *testing.T) {
	t.Parallel()

	body, err := encodeResult(map[string]string{"ok": "true"})
	require.NoError(t, err)
	assert.NoError(t, decodeResponse(body, nil))
}

func TestDecodeResponseMalformed(t *testing.T) {
	t.Parallel()

	err := decodeResponse([]byte("not json"), nil)
	apiErr, ok := types.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func newTestServer() *Server {
	return &Server{
		handlers: map[string]HandlerFunc{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestDispatchSuccess(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	srv.Handle("echo", func(ctx context.Context, data []byte) (any, error) {
		var req map[string]string
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, types.BadRequest("invalid payload")
		}
		return req, nil
	})

	body := srv.dispatch(context.Background(), "echo", []byte(`{"k":"v"}`))

	var result map[string]string
	require.NoError(t, decodeResponse(body, &result))
	assert.Equal(t, "v", result["k"])
}

func TestDispatchUnknownPattern(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	body := srv.dispatch(context.Background(), "no-such-pattern", nil)

	err := decodeResponse(body, nil)
	apiErr, ok := types.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestDispatchAPIErrorPreserved(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	srv.Handle("reject", func(ctx context.Context, data []byte) (any, error) {
		return nil, types.Conflict("Duplicated email address")
	})

	body := srv.dispatch(context.Background(), "reject", nil)

	err := decodeResponse(body, nil)
	apiErr, ok := types.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "Duplicated email address", apiErr.Message)
}

func TestDispatchInternalErrorHidden(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	srv.Handle("boom", func(ctx context.Context, data []byte) (any, error) {
		return nil, errors.New("pq: relation does not exist")
	})

	body := srv.dispatch(context.Background(), "boom", nil)

	err := decodeResponse(body, nil)
	apiErr, ok := types.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "internal server error", apiErr.Message)
	assert.NotContains(t, apiErr.Message, "pq:")
}

func TestDispatchWrappedAPIError(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	srv.Handle("wrapped", func(ctx context.Context, data []byte) (any, error) {
		return nil, types.NotFound("Token was not found")
	})

	body := srv.dispatch(context.Background(), "wrapped", nil)

	err := decodeResponse(body, nil)
	apiErr, ok := types.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Token was not found", apiErr.Message)
}
