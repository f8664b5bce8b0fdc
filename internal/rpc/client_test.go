package rpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive/types"
)

// fakeTransport answers every round trip with a canned response or error.
// A nil respond func blocks until the call deadline expires.
type fakeTransport struct {
	respond func(service, pattern string, body []byte) ([]byte, error)
}

func (t *fakeTransport) roundTrip(ctx context.Context, service, pattern string, body []byte) ([]byte, error) {
	if t.respond == nil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return t.respond(service, pattern, body)
}

func (t *fakeTransport) close() error { return nil }

func TestCallTimesOutAsUnavailable(t *testing.T) {
	t.Parallel()

	client := &Client{transport: &fakeTransport{}, timeout: 50 * time.Millisecond}

	start := time.Now()
	var result struct{}
	err := client.Call(context.Background(), ServiceUsers, "find-one", map[string]string{"userId": "u1"}, &result)
	elapsed := time.Since(start)

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 503, apiErr.StatusCode)
	assert.Equal(t, "service unavailable", apiErr.Message)
	assert.Less(t, elapsed, 5*time.Second, "call must not outlive its deadline")
}

func TestCallCancelledContextIsUnavailable(t *testing.T) {
	t.Parallel()

	client := &Client{transport: &fakeTransport{}, timeout: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Call(ctx, ServiceTokens, "verify-token", map[string]string{"token": "x"}, nil)

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 503, apiErr.StatusCode)
}

func TestCallBrokerErrorIsUnavailable(t *testing.T) {
	t.Parallel()

	client := &Client{
		transport: &fakeTransport{respond: func(string, string, []byte) ([]byte, error) {
			return nil, errors.New("channel gone")
		}},
		timeout: time.Second,
	}

	err := client.Call(context.Background(), ServiceTasks, "user-tasks", map[string]string{"userId": "u1"}, nil)

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 503, apiErr.StatusCode)
	assert.Equal(t, "service unavailable", apiErr.Message)
}

func TestCallRemoteRejectionKeepsItsStatus(t *testing.T) {
	t.Parallel()

	client := &Client{
		transport: &fakeTransport{respond: func(string, string, []byte) ([]byte, error) {
			return encodeRejection(types.Conflict("Duplicated email address")), nil
		}},
		timeout: time.Second,
	}

	err := client.Call(context.Background(), ServiceUsers, "register", map[string]string{"email": "a@b.c"}, nil)

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.StatusCode)
	assert.Equal(t, "Duplicated email address", apiErr.Message)
}

func TestCallDecodesRemoteResult(t *testing.T) {
	t.Parallel()

	client := &Client{
		transport: &fakeTransport{respond: func(service, pattern string, body []byte) ([]byte, error) {
			assert.Equal(t, ServiceUsers, service)
			assert.Equal(t, "find-one", pattern)
			assert.JSONEq(t, `{"userId":"u1"}`, string(body))
			return encodeResult(map[string]string{"name": "Ada"})
		}},
		timeout: time.Second,
	}

	var result struct {
		Name string `json:"name"`
	}
	err := client.Call(context.Background(), ServiceUsers, "find-one", map[string]string{"userId": "u1"}, &result)

	require.NoError(t, err)
	assert.Equal(t, "Ada", result.Name)
}
