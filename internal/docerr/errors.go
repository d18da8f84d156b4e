// Package docerr defines the error kinds shared by the scanning stages.
package docerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorises a scanning failure.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindNoDocument   Kind = "no_document"
	KindDegenerate   Kind = "degenerate_transform"
	KindInternal     Kind = "internal"
)

// Sentinel errors, one per kind. Match them with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoDocument   = errors.New("no document detected")
	ErrDegenerate   = errors.New("degenerate perspective transform")
	ErrInternal     = errors.New("internal failure")
)

// Error carries the failing operation together with its kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap exposes both the wrapped cause and the kind sentinel.
func (e *Error) Unwrap() []error {
	errs := []error{sentinel(e.Kind)}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func sentinel(k Kind) error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindNoDocument:
		return ErrNoDocument
	case KindDegenerate:
		return ErrDegenerate
	default:
		return ErrInternal
	}
}

// InvalidInput reports a precondition violation.
func InvalidInput(op, format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Op: op, Err: fmt.Errorf(format, args...)}
}

// Degenerate reports numerically unusable geometry.
func Degenerate(op, format string, args ...any) error {
	return &Error{Kind: KindDegenerate, Op: op, Err: fmt.Errorf(format, args...)}
}

// NoDocument reports that detection ran to completion without a candidate.
func NoDocument(op string) error {
	return &Error{Kind: KindNoDocument, Op: op}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNoDocument):
		return KindNoDocument
	case errors.Is(err, ErrDegenerate):
		return KindDegenerate
	}
	return KindInternal
}

// StatusCode maps an error to the HTTP status the API responds with.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNoDocument, KindDegenerate:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
