package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/taskboard/internal/models"
	"github.com/mmynk/taskboard/internal/storage"
)

// CreateTask persists a new task to the database.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *models.Task) error {
	// Generate ID if not set
	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_email, title, completed) VALUES (?, ?, ?, ?)`,
		task.ID, task.UserEmail, task.Title, task.Completed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

// GetTask retrieves a task by ID.
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return getTask(ctx, s.db, id)
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTask(ctx context.Context, q queryRower, id string) (*models.Task, error) {
	task := &models.Task{}
	err := q.QueryRowContext(ctx,
		`SELECT id, user_email, title, completed FROM tasks WHERE id = ?`,
		id,
	).Scan(&task.ID, &task.UserEmail, &task.Title, &task.Completed)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// ListTasksByOwner retrieves all tasks for a user in insertion order.
func (s *SQLiteStore) ListTasksByOwner(ctx context.Context, email string) ([]*models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_email, title, completed
		 FROM tasks WHERE user_email = ? ORDER BY seq`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by owner: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task := &models.Task{}
		if err := rows.Scan(&task.ID, &task.UserEmail, &task.Title, &task.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// UpdateTask overwrites the title and completion flag of a task.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task *models.Task) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, completed = ? WHERE id = ?`,
		task.Title, task.Completed, task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", task.ID, storage.ErrNotFound)
	}

	updated, err := s.GetTask(ctx, task.ID)
	if err != nil {
		return err
	}
	*task = *updated
	return nil
}

// DeleteTask removes a task by ID and returns it.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) (*models.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	task, err := getTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return task, nil
}
