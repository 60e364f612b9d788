package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmehra2102/todo-api/internal/app"
	"github.com/dmehra2102/todo-api/internal/domain"
	"github.com/dmehra2102/todo-api/internal/pagination"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// TodoService is the subset of *app.TodoService the handlers call.
type TodoService interface {
	ListTodos(ctx context.Context, params pagination.Params) (*domain.PageResult, error)
	GetTodo(ctx context.Context, id string) (*domain.Todo, error)
	CreateTodo(ctx context.Context, in app.CreateInput) (*domain.Todo, error)
	UpdateTodo(ctx context.Context, id string, patch domain.Patch) (*domain.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type CreateTodoRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description" binding:"required,max=500"`
}

type UpdateTodoRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,min=1,max=500"`
	Completed   *bool   `json:"completed"`
}

type TodoHandler struct {
	svc TodoService
}

func NewTodoHandler(svc TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// List handles GET /todos?page=&limit=.
func (h *TodoHandler) List(c *gin.Context) {
	params := pagination.Resolve(c.Query("page"), c.Query("limit"))

	page, err := h.svc.ListTodos(c.Request.Context(), params)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, pageToResponse(page), "")
}

// Get handles GET /todos/:id.
func (h *TodoHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	todo, err := h.svc.GetTodo(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, todoToResponse(todo), "")
}

// Create handles POST /todos.
func (h *TodoHandler) Create(c *gin.Context) {
	var req CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailure(c, err)
		return
	}

	todo, err := h.svc.CreateTodo(c.Request.Context(), app.CreateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, todoToResponse(todo), "Todo created successfully")
}

// Update handles PUT and PATCH /todos/:id. Absent fields are left unchanged.
func (h *TodoHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailure(c, err)
		return
	}

	todo, err := h.svc.UpdateTodo(c.Request.Context(), id, domain.Patch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, todoToResponse(todo), "Todo updated successfully")
}

// Delete handles DELETE /todos/:id.
func (h *TodoHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteTodo(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Todo deleted successfully")
}

// Health pings storage through the service.
func (h *TodoHandler) Health(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		AbortWithError(c, http.StatusServiceUnavailable, CodeUnavailable, "storage unavailable")
		return
	}
	respond(c, http.StatusOK, gin.H{"status": "ok"}, "")
}

// fail maps a service error onto a status code. Data access failures carry
// only their generic message; the cause was already logged by the service.
func (h *TodoHandler) fail(c *gin.Context, err error) {
	var verr *domain.ValidationError
	var daErr *domain.DataAccessError
	switch {
	case errors.Is(err, domain.ErrTodoNotFound):
		notFound(c)
	case errors.As(err, &verr):
		AbortWithError(c, http.StatusBadRequest, CodeValidation, "Validation failed", domainDetails(verr)...)
	case errors.As(err, &daErr):
		AbortWithError(c, http.StatusInternalServerError, CodeInternal, daErr.Error())
	default:
		_ = c.Error(err)
		AbortWithError(c, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

func parseID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		AbortWithError(c, http.StatusBadRequest, CodeInvalidID, "Invalid todo ID format")
		return "", false
	}
	return id.String(), true
}

func bindFailure(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]FieldDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, FieldDetail{
				Field:   fe.Field(),
				Message: fieldMessage(fe),
				Code:    fe.Tag(),
			})
		}
		AbortWithError(c, http.StatusBadRequest, CodeValidation, "Validation failed", details...)
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		AbortWithError(c, http.StatusBadRequest, CodeValidation, "Validation failed", FieldDetail{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.Kind()),
			Code:    "invalid_type",
		})
		return
	}

	AbortWithError(c, http.StatusBadRequest, CodeValidation, "Request body must be valid JSON")
}

func domainDetails(verr *domain.ValidationError) []FieldDetail {
	details := make([]FieldDetail, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		details = append(details, FieldDetail{Field: f.Field, Message: f.Message, Code: f.Code})
	}
	return details
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " cannot be empty"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
