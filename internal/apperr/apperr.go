// Package apperr classifies failures so callers can decide what to do
// without parsing message text: fix the input, retry the write, reload, or
// sign the user out.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Category identifies the kind of failure.
type Category string

const (
	// CategoryValidation is a local, pre-network input problem. The store is
	// never contacted when this is returned.
	CategoryValidation Category = "validation"

	// CategoryRemoteWrite means the store rejected or failed an insert,
	// update or delete. Local state is unchanged; the same action may be retried.
	CategoryRemoteWrite Category = "remote_write"

	// CategoryRemoteRead means a fetch failed.
	CategoryRemoteRead Category = "remote_read"

	// CategoryAuthExpired means the credential is no longer accepted.
	CategoryAuthExpired Category = "auth_expired"

	CategoryNotFound  Category = "not_found"
	CategoryForbidden Category = "forbidden"
	CategoryConflict  Category = "conflict"
)

// Error is a categorized error. Field is set for validation errors.
type Error struct {
	Category Category
	Field    string
	Err      error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Validation reports that field failed a local check.
func Validation(field, format string, args ...any) *Error {
	return &Error{Category: CategoryValidation, Field: field, Err: fmt.Errorf(format, args...)}
}

// RemoteWrite wraps a store failure during op.
func RemoteWrite(op string, err error) *Error {
	return &Error{Category: CategoryRemoteWrite, Err: fmt.Errorf("%s: %w", op, err)}
}

// RemoteRead wraps a fetch failure during op.
func RemoteRead(op string, err error) *Error {
	return &Error{Category: CategoryRemoteRead, Err: fmt.Errorf("%s: %w", op, err)}
}

func AuthExpired(format string, args ...any) *Error {
	return &Error{Category: CategoryAuthExpired, Err: fmt.Errorf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Category: CategoryForbidden, Err: fmt.Errorf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Category: CategoryConflict, Err: fmt.Errorf(format, args...)}
}

// CategoryOf returns the category of the first *Error in err's chain, or ""
// when err is not categorized.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}

// FieldOf returns the offending field of a validation error.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

func IsValidation(err error) bool  { return CategoryOf(err) == CategoryValidation }
func IsRemoteWrite(err error) bool { return CategoryOf(err) == CategoryRemoteWrite }
func IsRemoteRead(err error) bool  { return CategoryOf(err) == CategoryRemoteRead }
func IsNotFound(err error) bool    { return CategoryOf(err) == CategoryNotFound }
func IsForbidden(err error) bool   { return CategoryOf(err) == CategoryForbidden }

// IsAuthExpired reports whether err is, or carries, an authentication
// expiry signal.
func IsAuthExpired(err error) bool {
	if CategoryOf(err) == CategoryAuthExpired {
		return true
	}
	return IsAuthSignal(err)
}

// StatusCoder is implemented by errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// IsAuthSignal recognizes the ways a store or gateway reports a dead
// session: a 401/403 status, or a message mentioning the JWT or an expired
// token.
func IsAuthSignal(err error) bool {
	if err == nil {
		return false
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code == http.StatusUnauthorized || code == http.StatusForbidden {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "jwt") || strings.Contains(msg, "token is expired") || strings.Contains(msg, "token has expired")
}

// HTTPStatus maps err to the response code handlers should send.
func HTTPStatus(err error) int {
	switch CategoryOf(err) {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryForbidden:
		return http.StatusForbidden
	case CategoryConflict:
		return http.StatusConflict
	case CategoryAuthExpired:
		return http.StatusUnauthorized
	case CategoryRemoteRead, CategoryRemoteWrite:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
