package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/types"
)

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task types.Task) (types.Task, error)
	ListByUser(ctx context.Context, userID string) ([]types.Task, error)
}

// TaskService encapsulates task use-cases.
type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

// Create stores a new pending task for the user.
func (s *TaskService) Create(ctx context.Context, userID, title, description string) (types.Task, error) {
	if userID == "" {
		return types.Task{}, types.BadRequest("userId is required")
	}
	if title == "" {
		return types.Task{}, types.BadRequest("title is required")
	}

	task, err := s.repo.Create(ctx, types.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      types.TaskStatusPending,
	})
	if err != nil {
		return types.Task{}, fmt.Errorf("creating task: %w", err)
	}
	return task, nil
}

// ListByUser returns all tasks owned by the user.
func (s *TaskService) ListByUser(ctx context.Context, userID string) ([]types.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}
