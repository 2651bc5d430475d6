package jsonapi

import (
	"fmt"
	"net/http"
	"strconv"
)

// ErrorBuilder provides a fluent API for building Error objects.
type ErrorBuilder struct {
	err Error
}

// NewError creates a new ErrorBuilder with the given status, code, and title.
func NewError(status int, code, title string) *ErrorBuilder {
	return &ErrorBuilder{
		err: Error{
			Status: strconv.Itoa(status),
			Code:   code,
			Title:  title,
		},
	}
}

// Detail sets the error detail message.
func (b *ErrorBuilder) Detail(detail string) *ErrorBuilder {
	b.err.Detail = detail
	return b
}

// Detailf sets the error detail message with formatting.
func (b *ErrorBuilder) Detailf(format string, args ...any) *ErrorBuilder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// Pointer sets the JSON pointer to the source of the error.
func (b *ErrorBuilder) Pointer(pointer string) *ErrorBuilder {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	b.err.Source.Pointer = pointer
	return b
}

// Parameter sets the query parameter that caused the error.
func (b *ErrorBuilder) Parameter(param string) *ErrorBuilder {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	b.err.Source.Parameter = param
	return b
}

// Meta adds metadata to the error.
func (b *ErrorBuilder) Meta(key string, value any) *ErrorBuilder {
	if b.err.Meta == nil {
		b.err.Meta = make(Meta)
	}
	b.err.Meta[key] = value
	return b
}

// Build returns the constructed Error.
func (b *ErrorBuilder) Build() Error {
	return b.err
}

// StatusCode returns the HTTP status code as an int.
func (e Error) StatusCode() int {
	code, _ := strconv.Atoi(e.Status)
	return code
}

// Common error constructors

// ErrBadRequest creates a 400 Bad Request error.
func ErrBadRequest(detail string) Error {
	return NewError(http.StatusBadRequest, "bad_request", "Bad Request").Detail(detail).Build()
}

// ErrNotFoundWithID creates a 404 Not Found error with resource ID.
func ErrNotFoundWithID(resourceType, id string) Error {
	return NewError(http.StatusNotFound, "not_found", "Not Found").
		Detailf("The %s with ID '%s' was not found", resourceType, id).
		Build()
}

// ErrPayloadTooLarge creates a 413 error for oversized declarations.
func ErrPayloadTooLarge(limit int64) Error {
	return NewError(http.StatusRequestEntityTooLarge, "payload_too_large", "Payload Too Large").
		Detailf("Request body exceeds %d bytes", limit).
		Build()
}

// ErrInternal creates a 500 Internal Server Error.
func ErrInternal(detail string) Error {
	if detail == "" {
		detail = "An internal error occurred"
	}
	return NewError(http.StatusInternalServerError, "internal_error", "Internal Server Error").Detail(detail).Build()
}

// -----------------------------------------------------------------------------
// Assembly Errors
// -----------------------------------------------------------------------------

// ErrGrammar creates a 422 error for a malformed declaration.
func ErrGrammar(line, column int, msg string) Error {
	return NewError(http.StatusUnprocessableEntity, "grammar_error", "Invalid Declaration").
		Detail(msg).
		Meta("line", line).
		Meta("column", column).
		Build()
}

// ErrMissingSystem creates a 422 error for a runtime without a System module.
func ErrMissingSystem(name string) Error {
	return NewError(http.StatusUnprocessableEntity, "missing_system", "Missing System Module").
		Detailf("A module named '%s' must be declared", name).
		Build()
}

// ErrDuplicateSystem creates a 422 error for a runtime with several System modules.
func ErrDuplicateSystem(name string, modules []string) Error {
	return NewError(http.StatusUnprocessableEntity, "duplicate_system", "Duplicate System Module").
		Detailf("Only one module named '%s' may be declared", name).
		Meta("modules", modules).
		Build()
}

// ErrModuleConflict creates a 422 error for a conflicting module binding.
func ErrModuleConflict(module, detail string) Error {
	return NewError(http.StatusUnprocessableEntity, "module_conflict", "Module Conflict").
		Detail(detail).
		Meta("module", module).
		Build()
}

// ErrGeneration creates a 422 error for a failed artifact pass.
func ErrGeneration(pass, detail string) Error {
	return NewError(http.StatusUnprocessableEntity, "generation_error", "Generation Failed").
		Detail(detail).
		Meta("pass", pass).
		Build()
}
