// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/taskboard/internal/models"
)

var (
	// ErrNotFound is returned when a user or task does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when creating a user whose email is taken.
	ErrConflict = errors.New("already exists")

	// ErrPersist is returned when a mutation could not be made durable.
	// The in-memory state is left as it was before the call.
	ErrPersist = errors.New("failed to persist changes")
)

// UserStore defines user persistence operations.
type UserStore interface {
	// CreateUser persists a new user.
	// Returns ErrConflict if a user with the same email already exists.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by exact email match.
	// Returns ErrNotFound if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// TaskStore defines task persistence operations.
type TaskStore interface {
	// ListTasksByOwner returns every task owned by email in insertion order.
	ListTasksByOwner(ctx context.Context, email string) ([]*models.Task, error)

	// GetTask retrieves a task by its ID.
	// Returns ErrNotFound if the task does not exist.
	GetTask(ctx context.Context, id string) (*models.Task, error)

	// CreateTask persists a new task.
	// The task.ID field will be populated by the store when empty.
	CreateTask(ctx context.Context, task *models.Task) error

	// UpdateTask overwrites the title and completion flag of an existing task.
	// Returns ErrNotFound if the task does not exist.
	UpdateTask(ctx context.Context, task *models.Task) error

	// DeleteTask removes a task and returns it.
	// Returns ErrNotFound if the task does not exist.
	DeleteTask(ctx context.Context, id string) (*models.Task, error)
}

// Store combines user and task storage.
// This abstraction allows swapping storage backends (JSON file, SQLite)
// without changing the service layer.
type Store interface {
	UserStore
	TaskStore

	// Close releases any resources held by the store.
	Close() error
}
