package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestNewTodo(t *testing.T) {
	todo, err := NewTodo("Buy milk", "2%")
	if err != nil {
		t.Fatalf("NewTodo failed: %v", err)
	}
	if todo.ID == "" {
		t.Error("expected a generated id")
	}
	if todo.Completed {
		t.Error("new todo should not be completed")
	}
	if !todo.CreatedAt.Equal(todo.UpdatedAt) {
		t.Errorf("created_at %v != updated_at %v", todo.CreatedAt, todo.UpdatedAt)
	}
	if todo.CreatedAt.Location() != time.UTC {
		t.Errorf("timestamps should be UTC, got %v", todo.CreatedAt.Location())
	}
}

func TestNewTodo_TrimsInput(t *testing.T) {
	todo, err := NewTodo("  Buy milk ", "\t2%\n")
	if err != nil {
		t.Fatalf("NewTodo failed: %v", err)
	}
	if todo.Title != "Buy milk" || todo.Description != "2%" {
		t.Errorf("got title %q description %q", todo.Title, todo.Description)
	}
}

func TestNewTodo_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		todo, err := NewTodo("t", "d")
		if err != nil {
			t.Fatalf("NewTodo failed: %v", err)
		}
		if seen[todo.ID] {
			t.Fatalf("duplicate id %s", todo.ID)
		}
		seen[todo.ID] = true
	}
}

func TestNewTodo_Validation(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        []error
		fields      []string
	}{
		{"empty title", "", "d", []error{ErrEmptyTitle}, []string{"title"}},
		{"blank title", "   ", "d", []error{ErrEmptyTitle}, []string{"title"}},
		{"long title", strings.Repeat("a", MaxTitleLength+1), "d", []error{ErrTitleTooLong}, []string{"title"}},
		{"empty description", "t", "", []error{ErrEmptyDescription}, []string{"description"}},
		{"long description", "t", strings.Repeat("b", MaxDescriptionLength+1), []error{ErrDescriptionTooLong}, []string{"description"}},
		{"both", "", "", []error{ErrEmptyTitle, ErrEmptyDescription}, []string{"title", "description"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTodo(tt.title, tt.description)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Errorf("expected errors.Is(err, %v)", want)
				}
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Fatalf("got %d field errors, want %d", len(verr.Fields), len(tt.fields))
			}
			for i, field := range tt.fields {
				if verr.Fields[i].Field != field {
					t.Errorf("field %d = %q, want %q", i, verr.Fields[i].Field, field)
				}
			}
		})
	}
}

func TestNewTodo_MaxLengthCountsRunes(t *testing.T) {
	if _, err := NewTodo(strings.Repeat("é", MaxTitleLength), "d"); err != nil {
		t.Fatalf("multibyte title at the limit should pass: %v", err)
	}
}

func TestPatch_Normalize(t *testing.T) {
	title := "  new title "
	p, err := Patch{Title: &title}.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if *p.Title != "new title" {
		t.Errorf("title = %q", *p.Title)
	}
	if title != "  new title " {
		t.Error("Normalize must not modify the caller's string")
	}

	blank := " "
	if _, err := (Patch{Description: &blank}).Normalize(); !errors.Is(err, ErrEmptyDescription) {
		t.Errorf("expected ErrEmptyDescription, got %v", err)
	}

	if _, err := (Patch{}).Normalize(); err != nil {
		t.Errorf("empty patch should be valid: %v", err)
	}
}

func TestPatch_ApplyOnlyTouchesPresentFields(t *testing.T) {
	created := Now().Add(-time.Hour)
	todo := &Todo{ID: "1", Title: "t", Description: "d", CreatedAt: created, UpdatedAt: created}

	done := true
	now := Now()
	Patch{Completed: &done}.Apply(todo, now)

	if !todo.Completed {
		t.Error("completed not applied")
	}
	if todo.Title != "t" || todo.Description != "d" || !todo.CreatedAt.Equal(created) {
		t.Errorf("unrelated fields changed: %+v", todo)
	}
	if !todo.UpdatedAt.Equal(now) {
		t.Errorf("updated_at = %v, want %v", todo.UpdatedAt, now)
	}
}

func TestDataAccessError_HidesCause(t *testing.T) {
	cause := errors.New(`pq: relation "todos" does not exist`)
	err := &DataAccessError{Op: "create", Err: cause}
	if err.Error() != "failed to create todo" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("cause should stay reachable through Unwrap")
	}
}

type codedError string

func (e codedError) Error() string    { return "driver error " + string(e) }
func (e codedError) SQLState() string { return string(e) }

func TestSQLState(t *testing.T) {
	if got := SQLState(fmt.Errorf("insert: %w", codedError("23505"))); got != "23505" {
		t.Errorf("SQLState = %q, want 23505", got)
	}
	if got := SQLState(&DataAccessError{Op: "list", Err: codedError("57P01")}); got != "57P01" {
		t.Errorf("SQLState through DataAccessError = %q", got)
	}
	if got := SQLState(errors.New("plain")); got != "" {
		t.Errorf("SQLState = %q, want empty", got)
	}
	if got := SQLState(nil); got != "" {
		t.Errorf("SQLState(nil) = %q, want empty", got)
	}
}
