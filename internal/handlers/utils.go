package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskhive/taskhive/types"
)

type contextKey string

const contextUserKey contextKey = "user"

// UserFromContext returns the authenticated identity attached by the auth
// middleware for the current request.
func UserFromContext(ctx context.Context) (types.User, error) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	if !ok || user.ID == "" {
		return types.User{}, errors.New("no authenticated user in context")
	}
	return user, nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.NewAPIError(status, message))
}

// writeCallError renders an error coming back from an RPC call. APIErrors
// keep their own status and message; anything else is a generic 500 with no
// internal detail.
func writeCallError(w http.ResponseWriter, err error) {
	if apiErr, ok := types.AsAPIError(err); ok {
		writeJSON(w, apiErr.StatusCode, apiErr)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal server error")
}
