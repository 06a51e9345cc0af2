// Package errs is the error taxonomy shared by the repositories, the domain
// services and the HTTP boundary. Services return *Error values; handlers map
// them to status codes with HTTPStatus.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindImageProcessing
	KindAuth
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindImageProcessing:
		return "image_processing"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrImageProcessing = &Error{Kind: KindImageProcessing}
	ErrAuth            = &Error{Kind: KindAuth}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrInternal        = &Error{Kind: KindInternal}
)

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %v not found", entity, id)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// HasDependents reports a delete blocked by rows that still reference the entity.
func HasDependents(entity string, id any, dependents string) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf("%s %v has dependent %s", entity, id, dependents)}
}

func ImageProcessing(name string, err error) error {
	return &Error{Kind: KindImageProcessing, Msg: fmt.Sprintf("image %q", name), Err: err}
}

func Auth() error {
	return &Error{Kind: KindAuth, Msg: "invalid credentials"}
}

func Unauthenticated() error {
	return &Error{Kind: KindAuth, Msg: "unauthorized"}
}

func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

func Internal(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindImageProcessing:
		return http.StatusUnprocessableEntity
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage hides internal error details from API responses.
func PublicMessage(err error) string {
	if KindOf(err) == KindInternal {
		return "internal error"
	}
	return err.Error()
}
