package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/todo-api/internal/domain"
	"github.com/dmehra2102/todo-api/internal/pagination"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultQueryTimeout = 5 * time.Second

const todoColumns = `id, title, description, completed, created_at, updated_at`

// Pool hands out dedicated connections. *sql.DB satisfies it.
type Pool interface {
	Conn(ctx context.Context) (*sql.Conn, error)
	PingContext(ctx context.Context) error
}

type PostgresRepository struct {
	pool         Pool
	queryTimeout time.Duration
	tracer       trace.Tracer
}

var _ domain.Repository = (*PostgresRepository)(nil)

// NewPostgresRepository wraps pool. A non-positive timeout falls back to 5s.
func NewPostgresRepository(pool Pool, queryTimeout time.Duration) *PostgresRepository {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &PostgresRepository{
		pool:         pool,
		queryTimeout: queryTimeout,
		tracer:       otel.Tracer("postgres-repository"),
	}
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(s scanner) (*domain.Todo, error) {
	todo := &domain.Todo{}
	err := s.Scan(
		&todo.ID,
		&todo.Title,
		&todo.Description,
		&todo.Completed,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()
	return todo, nil
}

// withConn runs fn on a connection taken from the pool and always returns
// it, whichever way fn exits.
func (r *PostgresRepository) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := r.pool.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}

// withTx runs fn in a transaction on conn. The transaction is rolled back
// unless fn succeeds and the commit goes through.
func withTx(ctx context.Context, conn *sql.Conn, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("failed to roll back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, params pagination.Params) ([]*domain.Todo, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.List")
	defer span.End()

	offset := params.Offset()
	span.SetAttributes(
		attribute.Int("page", params.Page),
		attribute.Int("limit", params.Limit),
		attribute.Int("offset", offset),
	)

	var (
		totalCount int64
		todos      = make([]*domain.Todo, 0, params.Limit)
	)

	// Count and page share one snapshot so the total matches the rows returned.
	snapshot := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

	err := r.withConn(ctx, func(conn *sql.Conn) error {
		return withTx(ctx, conn, snapshot, func(tx *sql.Tx) error {
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos`).Scan(&totalCount); err != nil {
				return fmt.Errorf("failed to count todos: %w", err)
			}

			rows, err := tx.QueryContext(ctx, `
				SELECT `+todoColumns+`
				FROM todos
				ORDER BY created_at DESC, id DESC
				LIMIT $1 OFFSET $2
			`, params.Limit, offset)
			if err != nil {
				return fmt.Errorf("failed to list todos: %w", err)
			}
			defer rows.Close()

			for rows.Next() {
				todo, err := scanTodo(rows)
				if err != nil {
					return fmt.Errorf("failed to scan todo: %w", err)
				}
				todos = append(todos, todo)
			}

			if err := rows.Err(); err != nil {
				return fmt.Errorf("error iterating todos: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}

	span.SetAttributes(
		attribute.Int64("total_count", totalCount),
		attribute.Int("returned_count", len(todos)),
	)

	return todos, totalCount, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("todo.id", id))

	var todo *domain.Todo
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		todo, err = scanTodo(conn.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			span.SetAttributes(attribute.Bool("not_found", true))
			return nil, domain.ErrTodoNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	return todo, nil
}

func (r *PostgresRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Create")
	defer span.End()

	span.SetAttributes(attribute.String("todo.id", todo.ID))

	var created *domain.Todo
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		return withTx(ctx, conn, nil, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO todos (`+todoColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6)
			`,
				todo.ID,
				todo.Title,
				todo.Description,
				todo.Completed,
				todo.CreatedAt,
				todo.UpdatedAt,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("failed to insert todo %s: %w", todo.ID, domain.ErrDuplicateID)
				}
				return fmt.Errorf("failed to insert todo %s: %w", todo.ID, err)
			}

			created, err = scanTodo(tx.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, todo.ID))
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("todo %s: %w", todo.ID, domain.ErrTodoNotPersisted)
			}
			if err != nil {
				return fmt.Errorf("failed to reload todo %s: %w", todo.ID, err)
			}
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch domain.Patch, updatedAt time.Time) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Update")
	defer span.End()

	span.SetAttributes(attribute.String("todo.id", id))

	setClause, args := buildSetClause(patch, updatedAt)
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE todos SET %s WHERE id = $%d`, setClause, len(args))

	var updated *domain.Todo
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		return withTx(ctx, conn, nil, func(tx *sql.Tx) error {
			result, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to update todo: %w", err)
			}

			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rowsAffected == 0 {
				return domain.ErrTodoNotFound
			}

			updated, err = scanTodo(tx.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id))
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrTodoNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to reload todo: %w", err)
			}
			return nil
		})
	})

	if err != nil {
		if errors.Is(err, domain.ErrTodoNotFound) {
			span.SetAttributes(attribute.Bool("not_found", true))
			return nil, err
		}
		span.RecordError(err)
		return nil, err
	}

	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("todo.id", id))

	var rowsAffected int64
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete todo: %w", err)
		}

		rowsAffected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	if rowsAffected == 0 {
		span.SetAttributes(attribute.Bool("not_found", true))
		return domain.ErrTodoNotFound
	}

	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	return r.pool.PingContext(ctx)
}

// buildSetClause turns the present patch fields into "col = $n" pairs.
// Column names come from this function only; values are always bound.
func buildSetClause(patch domain.Patch, updatedAt time.Time) (string, []any) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	set := func(column, format string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = "+fmt.Sprintf(format, len(args)))
	}

	if patch.Title != nil {
		set("title", "$%d", *patch.Title)
	}
	if patch.Description != nil {
		set("description", "$%d", *patch.Description)
	}
	if patch.Completed != nil {
		set("completed", "$%d", *patch.Completed)
	}
	// updated_at never moves behind created_at, even with a skewed clock.
	set("updated_at", "GREATEST($%d, created_at)", updatedAt)

	return strings.Join(sets, ", "), args
}
