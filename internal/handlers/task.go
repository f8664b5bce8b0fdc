package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taskhive/taskhive/internal/rpc"
	"github.com/taskhive/taskhive/types"
)

// TaskHandler provides the gateway's task endpoints.
type TaskHandler struct {
	caller rpc.Caller
}

func NewTaskHandler(caller rpc.Caller) *TaskHandler {
	return &TaskHandler{caller: caller}
}

// TaskRouter registers task routes on the given router. All task routes
// require authentication.
func TaskRouter(r chi.Router, caller rpc.Caller, authMiddleware func(http.Handler) http.Handler) {
	handler := NewTaskHandler(caller)

	r.Use(authMiddleware)
	r.Post("/", handler.Create)
	r.Get("/", handler.List)
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Create stores a new task for the authenticated user.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, authFailedMessage)
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var created struct {
		Task types.Task `json:"task"`
	}
	err = h.caller.Call(r.Context(), rpc.ServiceTasks, "create-task", map[string]string{
		"userId":      user.ID,
		"title":       req.Title,
		"description": req.Description,
	}, &created)
	if err != nil {
		writeCallError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Task created successfully",
		"task":    created.Task,
	})
}

// List returns the authenticated user's tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, authFailedMessage)
		return
	}

	var result json.RawMessage
	err = h.caller.Call(r.Context(), rpc.ServiceTasks, "user-tasks",
		map[string]string{"userId": user.ID}, &result)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
