package api

import (
	"net/http"
	"time"

	"github.com/dmehra2102/todo-api/internal/domain"
	"github.com/dmehra2102/todo-api/internal/pagination"
	"github.com/gin-gonic/gin"
)

// Error codes carried in the error envelope.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeInvalidID     = "INVALID_ID"
	CodeNotFound      = "NOT_FOUND"
	CodeRouteNotFound = "ROUTE_NOT_FOUND"
	CodeInternal      = "INTERNAL_ERROR"
	CodeUnavailable   = "SERVICE_UNAVAILABLE"
)

type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Message string        `json:"message"`
	Code    string        `json:"code"`
	Details []FieldDetail `json:"details,omitempty"`
}

// FieldDetail is one rejected input field.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type TodoResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PaginationResponse struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Limit       int   `json:"limit"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

type ListTodosResponse struct {
	Items      []TodoResponse     `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

func todoToResponse(t *domain.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func pageToResponse(page *domain.PageResult) ListTodosResponse {
	items := make([]TodoResponse, len(page.Items))
	for i, t := range page.Items {
		items[i] = todoToResponse(t)
	}
	return ListTodosResponse{
		Items:      items,
		Pagination: metaToResponse(page.Meta),
	}
}

func metaToResponse(m pagination.Meta) PaginationResponse {
	return PaginationResponse{
		Total:       m.Total,
		CurrentPage: m.CurrentPage,
		TotalPages:  m.TotalPages,
		Limit:       m.Limit,
		HasNextPage: m.HasNextPage,
		HasPrevPage: m.HasPrevPage,
	}
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

// AbortWithError writes the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, status int, code, message string, details ...FieldDetail) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error: &ErrorBody{
			Message: message,
			Code:    code,
			Details: details,
		},
	})
}

func notFound(c *gin.Context) {
	AbortWithError(c, http.StatusNotFound, CodeNotFound, "Todo not found")
}
