package rpchandlers

import (
	"context"
	"encoding/json"

	"github.com/taskhive/taskhive/internal/rpc"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/types"
)

// TaskRouter registers the task service's message patterns on the given
// RPC server.
func TaskRouter(srv *rpc.Server, taskService *services.TaskService) {
	srv.Handle("create-task", func(ctx context.Context, data []byte) (any, error) {
		var req struct {
			UserID      string `json:"userId"`
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, types.BadRequest("invalid payload")
		}

		task, err := taskService.Create(ctx, req.UserID, req.Title, req.Description)
		if err != nil {
			return nil, err
		}
		return map[string]types.Task{"task": task}, nil
	})

	srv.Handle("user-tasks", func(ctx context.Context, data []byte) (any, error) {
		var req struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, types.BadRequest("invalid payload")
		}

		tasks, err := taskService.ListByUser(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		return map[string][]types.Task{"tasks": tasks}, nil
	})
}
