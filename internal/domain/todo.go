package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

type Todo struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Now returns the current time at the precision Postgres stores, so a
// freshly built value compares equal to its persisted copy.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NewTodo creates a new todo with validation
func NewTodo(title, description string) (*Todo, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	verr := &ValidationError{}
	validateTitle(verr, title)
	validateDescription(verr, description)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	now := Now()

	return &Todo{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Patch lists the fields an update overwrites. Nil fields are left alone.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Normalize trims text fields and validates the ones present.
func (p Patch) Normalize() (Patch, error) {
	verr := &ValidationError{}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		validateTitle(verr, title)
		p.Title = &title
	}
	if p.Description != nil {
		description := strings.TrimSpace(*p.Description)
		validateDescription(verr, description)
		p.Description = &description
	}
	if err := verr.orNil(); err != nil {
		return Patch{}, err
	}
	return p, nil
}

// Apply overwrites t's mutable fields from p and stamps updatedAt.
func (p Patch) Apply(t *Todo, updatedAt time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	t.UpdatedAt = updatedAt
}

func validateTitle(verr *ValidationError, title string) {
	if title == "" {
		verr.add("title", "required", ErrEmptyTitle)
		return
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		verr.add("title", "max", ErrTitleTooLong)
	}
}

func validateDescription(verr *ValidationError, description string) {
	if description == "" {
		verr.add("description", "required", ErrEmptyDescription)
		return
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		verr.add("description", "max", ErrDescriptionTooLong)
	}
}
