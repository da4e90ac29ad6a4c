// Package jsonfile provides a storage.Store that keeps users and tasks in
// memory and mirrors them to a single JSON document on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/mmynk/taskboard/internal/auth/passhash"
	"github.com/mmynk/taskboard/internal/models"
	"github.com/mmynk/taskboard/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// document is the on-disk shape of the data file.
type document struct {
	Users []*models.User `json:"users"`
	Tasks []*models.Task `json:"tasks"`
}

// Store implements storage.Store on top of a JSON file.
//
// All mutations hold mu for both the in-memory change and the file write,
// so the file always reflects a serial order of operations.
type Store struct {
	path string

	mu    sync.RWMutex
	users []*models.User
	tasks []*models.Task

	// writeFile is swapped out in tests to simulate disk failures.
	writeFile func(path string, data []byte) error
}

// New creates a Store backed by the file at path, loading any existing data.
// A missing file starts an empty store. A file that cannot be parsed is
// logged and ignored; it will be overwritten by the next mutation.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		path:      path,
		users:     []*models.User{},
		tasks:     []*models.Task{},
		writeFile: writeFileAtomic,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("No data file found, starting empty", "path", s.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Data file is not valid JSON, starting empty", "path", s.path, "error", err)
		return nil
	}
	s.users = compact(doc.Users)
	s.tasks = compact(doc.Tasks)
	if dropped := len(doc.Users) + len(doc.Tasks) - len(s.users) - len(s.tasks); dropped > 0 {
		slog.Warn("Skipped null entries in data file", "path", s.path, "count", dropped)
	}

	migrated, err := s.hashLegacyPasswords()
	if err != nil {
		return err
	}
	if migrated > 0 {
		if err := s.persist(); err != nil {
			slog.Warn("Failed to rewrite data file after hashing legacy passwords", "path", s.path, "error", err)
		} else {
			slog.Info("Hashed legacy passwords", "path", s.path, "users", migrated)
		}
	}

	slog.Info("Loaded data file", "path", s.path, "users", len(s.users), "tasks", len(s.tasks))
	return nil
}

// compact returns items without nil entries, never nil itself.
func compact[T any](items []*T) []*T {
	out := make([]*T, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, item)
		}
	}
	return out
}

// hashLegacyPasswords replaces cleartext passwords with hashes and returns
// how many users were converted. Callers must hold mu or own s exclusively.
func (s *Store) hashLegacyPasswords() (int, error) {
	migrated := 0
	for _, u := range s.users {
		if u.LegacyPassword == "" {
			continue
		}
		if u.PasswordHash == "" {
			hash, err := passhash.Hash(u.LegacyPassword, passhash.DefaultCost)
			if err != nil {
				return 0, fmt.Errorf("failed to hash legacy password for %s: %w", u.Email, err)
			}
			u.PasswordHash = hash
		}
		u.LegacyPassword = ""
		migrated++
	}
	return migrated, nil
}

// persist writes the current state to disk. Callers must hold mu.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(document{Users: s.users, Tasks: s.tasks}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrPersist, err)
	}
	if err := s.writeFile(s.path, data); err != nil {
		slog.Error("Failed to save data file", "path", s.path, "error", err)
		return fmt.Errorf("%w: %v", storage.ErrPersist, err)
	}
	return nil
}

// writeFileAtomic replaces path with data via a temp file and rename, so a
// crash mid-write never leaves a truncated document behind.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Close is a no-op; every mutation is already on disk.
func (s *Store) Close() error {
	return nil
}

// CreateUser appends a new user and saves the file.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, storage.ErrConflict)
		}
	}

	stored := *user
	s.users = append(s.users, &stored)
	if err := s.persist(); err != nil {
		s.users = s.users[:len(s.users)-1]
		return err
	}
	return nil
}

// GetUserByEmail retrieves a user by exact email match.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
}

// ListTasksByOwner returns copies of the owner's tasks in insertion order.
func (s *Store) ListTasksByOwner(ctx context.Context, email string) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := []*models.Task{}
	for _, t := range s.tasks {
		if t.UserEmail == email {
			found := *t
			tasks = append(tasks, &found)
		}
	}
	return tasks, nil
}

// GetTask retrieves a copy of a task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	found := *s.tasks[i]
	return &found, nil
}

// CreateTask appends a new task and saves the file.
func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *task
	s.tasks = append(s.tasks, &stored)
	if err := s.persist(); err != nil {
		s.tasks = s.tasks[:len(s.tasks)-1]
		return err
	}
	return nil
}

// UpdateTask overwrites a task's title and completion flag and saves the file.
func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(task.ID)
	if i < 0 {
		return fmt.Errorf("task %s: %w", task.ID, storage.ErrNotFound)
	}

	previous := *s.tasks[i]
	s.tasks[i].Title = task.Title
	s.tasks[i].Completed = task.Completed
	if err := s.persist(); err != nil {
		*s.tasks[i] = previous
		return err
	}

	*task = *s.tasks[i]
	return nil
}

// DeleteTask removes a task, saves the file and returns the removed task.
func (s *Store) DeleteTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}

	previous := s.tasks
	removed := s.tasks[i]
	remaining := make([]*models.Task, 0, len(s.tasks)-1)
	remaining = append(remaining, s.tasks[:i]...)
	remaining = append(remaining, s.tasks[i+1:]...)
	s.tasks = remaining

	if err := s.persist(); err != nil {
		s.tasks = previous
		return nil, err
	}

	found := *removed
	return &found, nil
}

// indexOf returns the position of the task with the given id, or -1.
// Callers must hold mu.
func (s *Store) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
