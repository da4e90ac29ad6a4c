package models

// Task is a single to-do item belonging to one user.
type Task struct {
	// ID is the unique identifier for the task (UUID format).
	ID string `json:"id"`

	// UserEmail is the email of the owning user.
	// There is no referential check against the users table.
	UserEmail string `json:"userEmail"`

	// Title is the task text shown on the dashboard.
	Title string `json:"title"`

	// Completed reports whether the task has been checked off.
	Completed bool `json:"completed"`
}
