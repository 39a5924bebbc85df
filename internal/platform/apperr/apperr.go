// Package apperr defines the failure taxonomy shared by the clinic workflows.
// Every domain failure carries a machine-readable kind; handlers translate the
// kind into an HTTP status and a JSON body.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies a domain failure.
type Kind string

const (
	KindPermissionDenied  Kind = "permission_denied"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindAlreadyExamined   Kind = "already_examined"
	KindValidation        Kind = "validation_error"
	KindCapacityExceeded  Kind = "capacity_exceeded"
	KindInternal          Kind = "internal"
)

// Error is a domain failure with a kind and a human-readable message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// E builds an Error of the given kind.
func E(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func httpStatus(kind Kind) int {
	switch kind {
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientStock, KindAlreadyExamined, KindValidation:
		return http.StatusBadRequest
	case KindCapacityExceeded:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as a JSON error response. Unclassified errors become an
// opaque 500 so persistence faults never leak details to the caller.
func Respond(c echo.Context, err error) error {
	kind := KindOf(err)
	msg := err.Error()
	if kind == KindInternal {
		msg = "internal server error"
	}
	return c.JSON(httpStatus(kind), map[string]string{
		"error":   string(kind),
		"message": msg,
	})
}
