package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mmynk/taskboard/internal/storage/jsonfile"
)

// setupTaskService creates a TaskService over a fresh JSON store.
func setupTaskService(t *testing.T) *TaskService {
	t.Helper()

	store, err := jsonfile.New(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return NewTaskService(store)
}

func TestCreateAndList(t *testing.T) {
	svc := setupTaskService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "a@x.com", "Buy milk")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tasks, err := svc.List(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].ID != created.ID || tasks[0].Title != "Buy milk" || tasks[0].Completed {
		t.Errorf("unexpected task: %+v", tasks[0])
	}
}

func TestCreateValidation(t *testing.T) {
	svc := setupTaskService(t)

	tests := []struct {
		name, owner, title string
	}{
		{"missing owner", "", "Buy milk"},
		{"missing title", "a@x.com", ""},
		{"both missing", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.owner, tt.title)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestListRequiresOwner(t *testing.T) {
	svc := setupTaskService(t)

	tasks, err := svc.List(context.Background(), "")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if tasks != nil {
		t.Errorf("expected no tasks, got %v", tasks)
	}
}

func TestToggleTwiceRestores(t *testing.T) {
	svc := setupTaskService(t)
	ctx := context.Background()

	task, _ := svc.Create(ctx, "a@x.com", "Laundry")

	first, err := svc.SetCompleted(ctx, "", task.ID, !task.Completed)
	if err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}
	second, err := svc.SetCompleted(ctx, "", task.ID, !first.Completed)
	if err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}
	if second.Completed != task.Completed {
		t.Errorf("expected completed=%v after two toggles, got %v", task.Completed, second.Completed)
	}
}

func TestRename(t *testing.T) {
	svc := setupTaskService(t)
	ctx := context.Background()

	task, _ := svc.Create(ctx, "a@x.com", "old")

	renamed, err := svc.Rename(ctx, "", task.ID, "  new title  ")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if renamed.Title != "new title" {
		t.Errorf("expected trimmed title, got %q", renamed.Title)
	}

	if _, err := svc.Rename(ctx, "", task.ID, "   \t"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	tasks, _ := svc.List(ctx, "a@x.com")
	if tasks[0].Title != "new title" {
		t.Errorf("title changed by rejected rename: %q", tasks[0].Title)
	}

	if _, err := svc.Rename(ctx, "", "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteThenOperationsNotFound(t *testing.T) {
	svc := setupTaskService(t)
	ctx := context.Background()

	task, _ := svc.Create(ctx, "a@x.com", "gone soon")
	keep, _ := svc.Create(ctx, "a@x.com", "stays")

	removed, err := svc.Delete(ctx, "", task.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if removed.ID != task.ID {
		t.Errorf("removed wrong task: %+v", removed)
	}

	tasks, _ := svc.List(ctx, "a@x.com")
	if len(tasks) != 1 || tasks[0].ID != keep.ID {
		t.Errorf("unexpected tasks after delete: %+v", tasks)
	}

	if _, err := svc.SetCompleted(ctx, "", task.ID, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetCompleted: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Rename(ctx, "", task.ID, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Rename: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Delete(ctx, "", task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestOwnershipCheck(t *testing.T) {
	svc := setupTaskService(t)
	ctx := context.Background()

	task, _ := svc.Create(ctx, "owner@x.com", "private")

	if _, err := svc.SetCompleted(ctx, "intruder@x.com", task.ID, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetCompleted: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Rename(ctx, "intruder@x.com", task.ID, "mine"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Rename: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Delete(ctx, "intruder@x.com", task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}

	if _, err := svc.SetCompleted(ctx, "owner@x.com", task.ID, true); err != nil {
		t.Errorf("owner SetCompleted failed: %v", err)
	}
}
