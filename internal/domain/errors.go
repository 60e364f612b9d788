package domain

import (
	"errors"
	"strings"
)

var (
	// Validation Errors
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrTitleTooLong       = errors.New("title exceeds 100 characters")
	ErrEmptyDescription   = errors.New("description cannot be empty")
	ErrDescriptionTooLong = errors.New("description exceeds 500 characters")

	// Data errors
	ErrTodoNotFound     = errors.New("todo not found")
	ErrTodoNotPersisted = errors.New("todo not visible after insert")
	ErrDuplicateID      = errors.New("todo id already exists")
)

// FieldError is one rejected input field.
type FieldError struct {
	Field   string
	Message string
	Code    string
	Err     error
}

// ValidationError collects every field problem found in one input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

func (e *ValidationError) add(field, code string, err error) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: err.Error(), Code: code, Err: err})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// DataAccessError hides a storage failure behind a generic message. The
// cause stays reachable through Unwrap for logging.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return "failed to " + e.Op + " todo"
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// SQLState returns the SQLSTATE code carried anywhere in err's chain, or ""
// when no error in the chain reports one. Drivers such as lib/pq expose it
// through a SQLState method.
func SQLState(err error) string {
	var coded interface{ SQLState() string }
	if errors.As(err, &coded) {
		return coded.SQLState()
	}
	return ""
}
