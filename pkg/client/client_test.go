package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmehra2102/todo-api/internal/api"
	"github.com/dmehra2102/todo-api/internal/app"
	"github.com/dmehra2102/todo-api/internal/infrastructure/memory"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := app.NewTodoService(memory.NewMemoryRepository(), zap.NewNop())
	router := api.NewRouter(api.NewTodoHandler(svc), zap.NewNop(), api.RouterConfig{Version: "test"})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return New(srv.URL, srv.Client())
}

func TestNew_NormalizesBaseURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"localhost:3000", "http://localhost:3000/api/v1"},
		{"https://todo.example/", "https://todo.example/api/v1"},
		{"http://host/api/v1", "http://host/api/v1"},
	}
	for _, tt := range tests {
		if got := New(tt.addr, nil).baseURL; got != tt.want {
			t.Errorf("New(%q).baseURL = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestClient_Lifecycle(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	created, err := c.Create(ctx, CreateRequest{Title: "Buy milk", Description: "2%"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" || created.Completed {
		t.Fatalf("unexpected todo %+v", created)
	}

	done := true
	updated, err := c.Update(ctx, created.ID, UpdateRequest{Completed: &done})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !updated.Completed || updated.Title != "Buy milk" {
		t.Errorf("unexpected update %+v", updated)
	}

	page, err := c.List(ctx, 1, 5)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Pagination.Total != 1 || len(page.Items) != 1 || page.Items[0].ID != created.ID {
		t.Errorf("unexpected page %+v", page)
	}

	if err := c.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, created.ID); !IsNotFound(err) {
		t.Errorf("Get after delete: expected not found, got %v", err)
	}
}

func TestClient_ValidationError(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Create(context.Background(), CreateRequest{Title: "", Description: "d"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if len(apiErr.Details) == 0 || apiErr.Details[0].Field != "title" {
		t.Errorf("details = %+v", apiErr.Details)
	}
}

func TestClient_NonEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL, srv.Client()).Get(context.Background(), "x")

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 APIError, got %v", err)
	}
}
