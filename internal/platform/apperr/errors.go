// Package apperr defines the error kinds shared by the nutrition pipeline and
// their mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// Kind classifies an error for the operation boundary.
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindValidation       Kind = "validation_failed"
	KindConflict         Kind = "conflict"
	KindStoreUnavailable Kind = "store_unavailable"
	KindUpstream         Kind = "upstream"
)

// Sentinel errors. Use errors.Is against these.
var (
	ErrUnauthenticated  = &Error{Kind: KindUnauthenticated, Msg: "unauthorized"}
	ErrForbidden        = &Error{Kind: KindForbidden, Msg: "forbidden"}
	ErrNotFound         = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrValidation       = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrConflict         = &Error{Kind: KindConflict, Msg: "conflict"}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable, Msg: "store unavailable"}
	ErrUpstream         = &Error{Kind: KindUpstream, Msg: "upstream service error"}
)

// Error is a classified application error.
type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so wrapped errors compare equal to
// the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Unauthenticated() error { return &Error{Kind: KindUnauthenticated, Msg: "unauthorized"} }

func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(resource, id string) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %s not found", resource, id)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Store wraps a backing-store failure.
func Store(op string, err error) error {
	return &Error{Kind: KindStoreUnavailable, Msg: op, Err: err}
}

// Upstream wraps a failure of an external collaborator other than the store.
func Upstream(op string, err error) error {
	return &Error{Kind: KindUpstream, Msg: op, Err: err}
}

// ValidationErrors accumulates per-field validation messages.
type ValidationErrors map[string]string

func (v ValidationErrors) Add(field, msg string) {
	if _, exists := v[field]; !exists {
		v[field] = msg
	}
}

// Err returns nil when no field failed.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return &Error{Kind: KindValidation, Msg: strings.Join(parts, "; "), Fields: map[string]string(v)}
}

// Validation builds a single-field validation error.
func Validation(field, msg string) error {
	v := ValidationErrors{}
	v.Add(field, msg)
	return v.Err()
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Status maps an error onto an HTTP status code. Unclassified errors are 500.
func Status(err error) int {
	switch KindOf(err) {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HTTP converts err into an *echo.HTTPError. Store and unclassified failures
// carry a generic message so driver details do not reach the client; the
// original error is kept as Internal for logging.
func HTTP(err error) *echo.HTTPError {
	status := Status(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		msg = "internal server error"
	}
	var e *Error
	if errors.As(err, &e) && e.Kind == KindValidation && len(e.Fields) > 0 {
		he := echo.NewHTTPError(status, map[string]any{"error": "validation failed", "fields": e.Fields})
		return he.SetInternal(err)
	}
	return echo.NewHTTPError(status, msg).SetInternal(err)
}
