package app

import (
	"context"
	"errors"

	"github.com/dmehra2102/todo-api/internal/domain"
	"github.com/dmehra2102/todo-api/internal/pagination"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CreateInput carries the caller-supplied fields of a new todo.
type CreateInput struct {
	Title       string
	Description string
}

// TodoService is the error boundary between storage and callers. Not-found
// and validation outcomes pass through; every other failure is logged here
// and replaced by a *domain.DataAccessError.
type TodoService struct {
	repo   domain.Repository
	logger *zap.Logger
	tracer trace.Tracer
}

func NewTodoService(repo domain.Repository, logger *zap.Logger) *TodoService {
	return &TodoService{
		repo:   repo,
		logger: logger,
		tracer: otel.Tracer("todo-service"),
	}
}

func (s *TodoService) ListTodos(ctx context.Context, params pagination.Params) (*domain.PageResult, error) {
	ctx, span := s.tracer.Start(ctx, "ListTodos")
	defer span.End()

	params = params.Normalize()
	span.SetAttributes(
		attribute.Int("page", params.Page),
		attribute.Int("limit", params.Limit),
	)

	todos, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, s.dataAccessFailure(span, "list", err,
			zap.Int("page", params.Page),
			zap.Int("limit", params.Limit),
			zap.Int("offset", params.Offset()),
		)
	}

	return &domain.PageResult{
		Items: todos,
		Meta:  pagination.NewMeta(total, params),
	}, nil
}

func (s *TodoService) GetTodo(ctx context.Context, id string) (*domain.Todo, error) {
	ctx, span := s.tracer.Start(ctx, "GetTodo")
	defer span.End()

	span.SetAttributes(attribute.String("todo.id", id))

	todo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTodoNotFound) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, s.dataAccessFailure(span, "retrieve", err, zap.String("todo_id", id))
	}

	return todo, nil
}

func (s *TodoService) CreateTodo(ctx context.Context, in CreateInput) (*domain.Todo, error) {
	ctx, span := s.tracer.Start(ctx, "CreateTodo")
	defer span.End()

	todo, err := domain.NewTodo(in.Title, in.Description)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("todo.id", todo.ID))

	created, err := s.repo.Create(ctx, todo)
	if err != nil {
		return nil, s.dataAccessFailure(span, "create", err, zap.String("todo_id", todo.ID))
	}

	s.logger.Info("todo created", zap.String("todo_id", created.ID))

	return created, nil
}

func (s *TodoService) UpdateTodo(ctx context.Context, id string, patch domain.Patch) (*domain.Todo, error) {
	ctx, span := s.tracer.Start(ctx, "UpdateTodo")
	defer span.End()

	span.SetAttributes(attribute.String("todo.id", id))

	patch, err := patch.Normalize()
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, patch, domain.Now())
	if err != nil {
		if errors.Is(err, domain.ErrTodoNotFound) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, s.dataAccessFailure(span, "update", err, zap.String("todo_id", id))
	}

	s.logger.Info("todo updated", zap.String("todo_id", id))

	return updated, nil
}

func (s *TodoService) DeleteTodo(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "DeleteTodo")
	defer span.End()

	span.SetAttributes(attribute.String("todo.id", id))

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrTodoNotFound) {
			return domain.ErrTodoNotFound
		}
		return s.dataAccessFailure(span, "delete", err, zap.String("todo_id", id))
	}

	s.logger.Info("todo deleted", zap.String("todo_id", id))

	return nil
}

// Ping reports storage reachability for health checks.
func (s *TodoService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *TodoService) dataAccessFailure(span trace.Span, op string, err error, fields ...zap.Field) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "failed to "+op+" todo")

	fields = append(fields, zap.String("op", op), zap.Error(err))
	if code := domain.SQLState(err); code != "" {
		fields = append(fields, zap.String("sqlstate", code))
	}
	s.logger.Error("failed to "+op+" todo", fields...)

	return &domain.DataAccessError{Op: op, Err: err}
}
