package resource

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNotFound reports a requested resource type with no value in the
	// registry.
	ErrNotFound = errors.New("resource not found")
	// ErrAliasingConflict reports a batch request naming the same resource
	// type twice where at least one of the requests is mutable.
	ErrAliasingConflict = errors.New("aliasing conflict")
)

// NotFoundError carries the missing resource type.
type NotFoundError struct {
	Type reflect.Type
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource %s not found", e.Type)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AliasingConflictError carries the doubly requested resource type.
type AliasingConflictError struct {
	Type reflect.Type
}

func (e *AliasingConflictError) Error() string {
	return fmt.Sprintf("resource %s requested twice with mutable access", e.Type)
}

func (e *AliasingConflictError) Unwrap() error { return ErrAliasingConflict }
