package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/taskhive/taskhive/internal/rpc"
	"github.com/taskhive/taskhive/types"
)

const (
	authFailedMessage = "Authorization failed, please retry"
	defaultPage       = 1
	defaultLimit      = 20
)

// UserHandler provides the gateway's user-facing endpoints. It owns no
// state; every operation is a round-trip through the user store and token
// issuer services.
type UserHandler struct {
	caller rpc.Caller
}

func NewUserHandler(caller rpc.Caller) *UserHandler {
	return &UserHandler{caller: caller}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, caller rpc.Caller, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUserHandler(caller)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(authMiddleware).Get("/", handler.FindAll)
	r.With(authMiddleware).Get("/logout", handler.Logout)
}

// RequireAuth authenticates every request it wraps: it extracts the bearer
// token, verifies it against the token issuer, resolves the identity against
// the user store, and attaches the user to the request context. Nothing is
// cached between requests, so a revoked token is refused on the very next
// call.
func RequireAuth(caller rpc.Caller) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, authFailedMessage)
				return
			}

			var verified struct {
				UserID string `json:"userId"`
			}
			err = caller.Call(r.Context(), rpc.ServiceTokens, "verify-token",
				map[string]string{"token": token}, &verified)
			if err != nil {
				writeCallError(w, err)
				return
			}

			var found struct {
				User types.User `json:"user"`
			}
			err = caller.Call(r.Context(), rpc.ServiceUsers, "find-one",
				map[string]string{"userId": verified.UserID}, &found)
			if err != nil {
				// A token pointing at a deleted user must not read as a
				// distinct failure.
				if apiErr, ok := types.AsAPIError(err); ok && apiErr.StatusCode == http.StatusNotFound {
					writeError(w, http.StatusUnauthorized, authFailedMessage)
					return
				}
				writeCallError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), contextUserKey, found.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account and logs it in.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var registered struct {
		UserID string `json:"userId"`
	}
	err := h.caller.Call(r.Context(), rpc.ServiceUsers, "register", req, &registered)
	if err != nil {
		writeCallError(w, err)
		return
	}

	var created struct {
		Token string `json:"token"`
	}
	err = h.caller.Call(r.Context(), rpc.ServiceTokens, "create-token",
		map[string]string{"userId": registered.UserID}, &created)
	if err != nil {
		writeCallError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User account created successfully",
		"userId":  registered.UserID,
		"token":   created.Token,
	})
}

// Login verifies credentials and issues a fresh token, replacing any
// previous one for the user.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var found struct {
		User types.User `json:"user"`
	}
	err := h.caller.Call(r.Context(), rpc.ServiceUsers, "login-lookup", req, &found)
	if err != nil {
		writeCallError(w, err)
		return
	}

	var created struct {
		Token string `json:"token"`
	}
	err = h.caller.Call(r.Context(), rpc.ServiceTokens, "create-token",
		map[string]string{"userId": found.User.ID}, &created)
	if err != nil {
		writeCallError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User logged in successfully",
		"token":   created.Token,
	})
}

// FindAll relays the paginated user collection.
func (h *UserHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", defaultPage)
	limit := queryInt(r, "limit", defaultLimit)

	var result json.RawMessage
	err := h.caller.Call(r.Context(), rpc.ServiceUsers, "find-all",
		map[string]int{"page": page, "limit": limit}, &result)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Logout revokes the authenticated user's token.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, authFailedMessage)
		return
	}

	err = h.caller.Call(r.Context(), rpc.ServiceTokens, "destroy-token",
		map[string]string{"userId": user.ID}, nil)
	if err != nil {
		writeCallError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User logged out successfully",
	})
}

var jwtSegment = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// bearerToken extracts a structurally valid JWT from the Authorization
// header.
func bearerToken(r *http.Request) (string, error) {
	authorization := strings.TrimSpace(r.Header.Get("Authorization"))
	if authorization == "" {
		return "", errors.New("missing authorization header")
	}

	bearer, token, found := strings.Cut(authorization, " ")
	if !found || !strings.EqualFold(bearer, "Bearer") {
		return "", errors.New("invalid authorization header")
	}

	token = strings.TrimSpace(token)
	if !looksLikeJWT(token) {
		return "", errors.New("malformed token")
	}
	return token, nil
}

func looksLikeJWT(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if part == "" || !jwtSegment.MatchString(part) {
			return false
		}
	}
	return true
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return defaultValue
	}
	return parsed
}
