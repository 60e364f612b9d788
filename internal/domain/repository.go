package domain

import (
	"context"
	"time"

	"github.com/dmehra2102/todo-api/internal/pagination"
)

// Repository defines the contract for todo persistence
type Repository interface {
	// List returns one page ordered newest first, plus the unpaginated total
	List(ctx context.Context, params pagination.Params) ([]*Todo, int64, error)

	// GetByID retrieves a todo by ID, or ErrTodoNotFound
	GetByID(ctx context.Context, id string) (*Todo, error)

	// Create persists a new todo and returns the stored row
	Create(ctx context.Context, todo *Todo) (*Todo, error)

	// Update overwrites the patched fields and updated_at, returning the stored row
	Update(ctx context.Context, id string, patch Patch, updatedAt time.Time) (*Todo, error)

	// Delete hard-deletes a todo, or returns ErrTodoNotFound
	Delete(ctx context.Context, id string) error

	// Ping reports whether the backing store is reachable
	Ping(ctx context.Context) error
}

// PageResult contains paginated results
type PageResult struct {
	Items []*Todo
	pagination.Meta
}
