package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmynk/taskboard/internal/models"
	"github.com/mmynk/taskboard/internal/storage"
)

// TaskService implements per-user task operations.
//
// Mutations take an actor: the email of the caller when it is known. A
// non-empty actor that does not own the task gets ErrNotFound, the same as
// a missing task. An empty actor skips the ownership check.
type TaskService struct {
	store storage.TaskStore
}

// NewTaskService creates a new TaskService with the given storage backend.
func NewTaskService(store storage.TaskStore) *TaskService {
	return &TaskService{store: store}
}

// List returns the owner's tasks in creation order.
func (s *TaskService) List(ctx context.Context, owner string) ([]*models.Task, error) {
	if owner == "" {
		return nil, invalid("Email required")
	}

	tasks, err := s.store.ListTasksByOwner(ctx, owner)
	if err != nil {
		slog.Error("ListTasks failed", "email", owner, "error", err)
		return nil, err
	}

	slog.Debug("ListTasks successful", "email", owner, "count", len(tasks))
	return tasks, nil
}

// Create adds a new, incomplete task for owner.
func (s *TaskService) Create(ctx context.Context, owner, title string) (*models.Task, error) {
	if owner == "" || title == "" {
		return nil, invalid("Email and title required")
	}

	task := &models.Task{
		UserEmail: owner,
		Title:     title,
		Completed: false,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		slog.Error("CreateTask failed", "email", owner, "error", err)
		return nil, err
	}

	slog.Info("Task created", "task_id", task.ID, "email", owner)
	return task, nil
}

// SetCompleted overwrites the completion flag of a task.
func (s *TaskService) SetCompleted(ctx context.Context, actor, id string, completed bool) (*models.Task, error) {
	task, err := s.lookup(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	task.Completed = completed
	if err := s.update(ctx, task); err != nil {
		return nil, err
	}

	slog.Info("Task completion set", "task_id", id, "completed", completed)
	return task, nil
}

// Rename replaces the title of a task with the trimmed title.
func (s *TaskService) Rename(ctx context.Context, actor, id, title string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("Title cannot be empty")
	}

	task, err := s.lookup(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	task.Title = title
	if err := s.update(ctx, task); err != nil {
		return nil, err
	}

	slog.Info("Task renamed", "task_id", id)
	return task, nil
}

// Delete removes a task and returns it.
func (s *TaskService) Delete(ctx context.Context, actor, id string) (*models.Task, error) {
	if _, err := s.lookup(ctx, actor, id); err != nil {
		return nil, err
	}

	task, err := s.store.DeleteTask(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFound("Task not found")
		}
		slog.Error("DeleteTask failed", "task_id", id, "error", err)
		return nil, err
	}

	slog.Info("Task deleted", "task_id", id)
	return task, nil
}

// lookup fetches a task and applies the ownership check.
func (s *TaskService) lookup(ctx context.Context, actor, id string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Debug("Task not found", "task_id", id)
		return nil, notFound("Task not found")
	}
	if err != nil {
		slog.Error("GetTask failed", "task_id", id, "error", err)
		return nil, err
	}

	if actor != "" && task.UserEmail != actor {
		slog.Warn("Task owned by another user", "task_id", id, "actor", actor)
		return nil, notFound("Task not found")
	}
	return task, nil
}

func (s *TaskService) update(ctx context.Context, task *models.Task) error {
	err := s.store.UpdateTask(ctx, task)
	if errors.Is(err, storage.ErrNotFound) {
		return notFound("Task not found")
	}
	if err != nil {
		slog.Error("UpdateTask failed", "task_id", task.ID, "error", err)
		return err
	}
	return nil
}
