// Package memory is an in-process todo store with the same contract as the
// Postgres repository. It backs STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmehra2102/todo-api/internal/domain"
	"github.com/dmehra2102/todo-api/internal/pagination"
)

// MemoryRepository implements domain.Repository using in-memory storage
type MemoryRepository struct {
	todos map[string]domain.Todo
	mutex sync.RWMutex
}

var _ domain.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		todos: make(map[string]domain.Todo),
	}
}

func (r *MemoryRepository) List(ctx context.Context, params pagination.Params) ([]*domain.Todo, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	all := make([]domain.Todo, 0, len(r.todos))
	for _, todo := range r.todos {
		all = append(all, todo)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := int64(len(all))
	page := make([]*domain.Todo, 0, params.Limit)

	offset := params.Offset()
	if offset >= len(all) {
		return page, total, nil
	}
	end := min(offset+params.Limit, len(all))
	for _, todo := range all[offset:end] {
		page = append(page, &todo)
	}

	return page, total, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	todo, exists := r.todos[id]
	if !exists {
		return nil, domain.ErrTodoNotFound
	}

	return &todo, nil
}

func (r *MemoryRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.todos[todo.ID]; exists {
		return nil, domain.ErrDuplicateID
	}

	stored := *todo
	r.todos[todo.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, patch domain.Patch, updatedAt time.Time) (*domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	todo, exists := r.todos[id]
	if !exists {
		return nil, domain.ErrTodoNotFound
	}

	if updatedAt.Before(todo.CreatedAt) {
		updatedAt = todo.CreatedAt
	}
	patch.Apply(&todo, updatedAt)
	r.todos[id] = todo

	return &todo, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.todos[id]; !exists {
		return domain.ErrTodoNotFound
	}

	delete(r.todos, id)
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
