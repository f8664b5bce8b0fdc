package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive/internal/rpc"
	"github.com/taskhive/taskhive/types"
)

// sampleJWT is structurally a JWT; its signature is never checked by the
// gateway, only by the token service.
const sampleJWT = "eyJhbGciOiJIUzI1NiJ9.eyJ1c2VySWQiOiJ1LTEifQ.c2ln"

type stubCall struct {
	service string
	pattern string
	payload any
}

// stubCaller answers Call with canned responses keyed by "service/pattern".
type stubCaller struct {
	responses map[string]any
	errs      map[string]error
	calls     []stubCall
}

func newStubCaller() *stubCaller {
	return &stubCaller{responses: map[string]any{}, errs: map[string]error{}}
}

func (c *stubCaller) Call(ctx context.Context, service, pattern string, payload, result any) error {
	c.calls = append(c.calls, stubCall{service: service, pattern: pattern, payload: payload})

	key := service + "/" + pattern
	if err, ok := c.errs[key]; ok {
		return err
	}
	response, ok := c.responses[key]
	if !ok {
		return types.Unavailable("service unavailable")
	}
	if result == nil {
		return nil
	}
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}

func authedRouter(caller rpc.Caller) *chi.Mux {
	router := chi.NewRouter()
	router.With(RequireAuth(caller)).Get("/me", func(w http.ResponseWriter, r *http.Request) {
		user, err := UserFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "no user in context")
			return
		}
		writeJSON(w, http.StatusOK, user)
	})
	return router
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var apiErr types.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestRequireAuthHeaderValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "blank header", header: "   "},
		{name: "wrong scheme", header: "Token " + sampleJWT},
		{name: "bearer without token", header: "Bearer"},
		{name: "bearer with empty token", header: "Bearer  "},
		{name: "not a jwt", header: "Bearer opaque-string"},
		{name: "two segments", header: "Bearer aaa.bbb"},
		{name: "empty segment", header: "Bearer aaa..ccc"},
		{name: "bad characters", header: "Bearer aa!a.bbb.ccc"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			caller := newStubCaller()
			router := authedRouter(caller)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			apiErr := decodeAPIError(t, rec)
			assert.Equal(t, authFailedMessage, apiErr.Message)
			// Structurally invalid credentials never reach the services.
			assert.Empty(t, caller.calls)
		})
	}
}

func TestRequireAuthSuccess(t *testing.T) {
	t.Parallel()

	caller := newStubCaller()
	caller.responses["tokens/verify-token"] = map[string]string{"userId": "u-1"}
	caller.responses["users/find-one"] = map[string]any{
		"user": types.User{ID: "u-1", Email: "ana@x.com", Name: "Ana"},
	}
	router := authedRouter(caller)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sampleJWT)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ana@x.com")

	require.Len(t, caller.calls, 2)
	assert.Equal(t, "verify-token", caller.calls[0].pattern)
	assert.Equal(t, "find-one", caller.calls[1].pattern)
}

func TestRequireAuthPropagatesVerifyRejection(t *testing.T) {
	t.Parallel()

	caller := newStubCaller()
	caller.errs["tokens/verify-token"] = types.Unauthorized(authFailedMessage)
	router := authedRouter(caller)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sampleJWT)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// verify failed; the user lookup must not happen.
	assert.Len(t, caller.calls, 1)
}

func TestRequireAuthUnavailableDownstream(t *testing.T) {
	t.Parallel()

	caller := newStubCaller()
	caller.errs["tokens/verify-token"] = types.Unavailable("service unavailable")
	router := authedRouter(caller)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sampleJWT)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireAuthRemapsDanglingUser(t *testing.T) {
	t.Parallel()

	caller := newStubCaller()
	caller.responses["tokens/verify-token"] = map[string]string{"userId": "u-gone"}
	caller.errs["users/find-one"] = types.NotFound("User not found")
	router := authedRouter(caller)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sampleJWT)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// A token for a deleted user must not leak a distinct error.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	apiErr := decodeAPIError(t, rec)
	assert.Equal(t, authFailedMessage, apiErr.Message)
}

func userRouterForTest(caller rpc.Caller) *chi.Mux {
	router := chi.NewRouter()
	router.Route("/user", func(r chi.Router) {
		UserRouter(r, caller, RequireAuth(caller))
	})
	return router
}

func TestRegisterIssuesToken(t *testing.T) {
	t.Parallel()

	caller := newStubCaller()
	caller.responses["users/register"] = map[string]string{"userId": "u-1"}
	caller.responses["tokens/create-token"] = map[string]string{"token": sampleJWT}
	router := userRouterForTest(caller)

	body := strings.NewReader(`{"name":"Ana","email":"Ana@X.com","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/user/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "u-1", response["userId"])
	assert.Equal(t, sampleJWT, response["token"])
}

func TestRegisterConflictPassthrough(t *testing.T) {
	t.Parallel()

	caller := newStubCaller()
	caller.errs["users/register"] = types.Conflict("Duplicated email address")
	router := userRouterForTest(caller)

	body := strings.NewReader(`{"name":"Ana","email":"ana@x.com","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/user/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	apiErr := decodeAPIError(t, rec)
	assert.Equal(t, "Duplicated email address", apiErr.Message)
}

func TestLoginIssuesToken(t *testing.T) {
	t.Parallel()

	caller := newStubCaller()
	caller.responses["users/login-lookup"] = map[string]any{"user": types.User{ID: "u-1"}}
	caller.responses["tokens/create-token"] = map[string]string{"token": sampleJWT}
	router := userRouterForTest(caller)

	body := strings.NewReader(`{"email":"ana@x.com","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/user/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), sampleJWT)

	require.Len(t, caller.calls, 2)
	assert.Equal(t, "login-lookup", caller.calls[0].pattern)
	assert.Equal(t, "create-token", caller.calls[1].pattern)
}

func TestLoginBadCredentials(t *testing.T) {
	t.Parallel()

	caller := newStubCaller()
	caller.errs["users/login-lookup"] = types.Unauthorized("Invalid credentials")
	router := userRouterForTest(caller)

	body := strings.NewReader(`{"email":"ana@x.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/user/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// No token may be issued for failed credentials.
	assert.Len(t, caller.calls, 1)
}

func TestLogoutDestroysToken(t *testing.T) {
	t.Parallel()

	caller := newStubCaller()
	caller.responses["tokens/verify-token"] = map[string]string{"userId": "u-1"}
	caller.responses["users/find-one"] = map[string]any{"user": types.User{ID: "u-1"}}
	caller.responses["tokens/destroy-token"] = map[string]string{"message": "Token destroyed successfully"}
	router := userRouterForTest(caller)

	req := httptest.NewRequest(http.MethodGet, "/user/logout", nil)
	req.Header.Set("Authorization", "Bearer "+sampleJWT)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	last := caller.calls[len(caller.calls)-1]
	assert.Equal(t, rpc.ServiceTokens, last.service)
	assert.Equal(t, "destroy-token", last.pattern)
	assert.Equal(t, map[string]string{"userId": "u-1"}, last.payload)
}

func TestFindAllRelaysPaginatedBody(t *testing.T) {
	t.Parallel()

	caller := newStubCaller()
	caller.responses["tokens/verify-token"] = map[string]string{"userId": "u-1"}
	caller.responses["users/find-one"] = map[string]any{"user": types.User{ID: "u-1"}}
	caller.responses["users/find-all"] = types.NewPage(
		[]types.User{{ID: "u-1", Email: "ana@x.com", Name: "Ana"}}, 1, 1, 20, "http://gw/user")
	router := userRouterForTest(caller)

	req := httptest.NewRequest(http.MethodGet, "/user/?page=1&limit=20", nil)
	req.Header.Set("Authorization", "Bearer "+sampleJWT)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalItems":1`)
	assert.Contains(t, rec.Body.String(), "ana@x.com")
	assert.NotContains(t, rec.Body.String(), "password")
}
