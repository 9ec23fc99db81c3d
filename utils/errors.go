package utils

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindPermissionDenied
	KindRateLimited
	KindInvalidArgument
	KindUnauthenticated
	KindConflict
	KindLocked
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindRateLimited:
		return "rate_limited"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindConflict:
		return "conflict"
	case KindLocked:
		return "locked"
	default:
		return "internal"
	}
}

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindLocked:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

// AppError is an error a client can act on. Message is safe to show;
// Err holds the underlying cause and is only logged.
type AppError struct {
	Kind       ErrorKind
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (e *AppError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

func newAppError(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *AppError {
	return newAppError(KindNotFound, format, args...)
}

func PermissionDenied(format string, args ...interface{}) *AppError {
	return newAppError(KindPermissionDenied, format, args...)
}

func InvalidArgument(format string, args ...interface{}) *AppError {
	return newAppError(KindInvalidArgument, format, args...)
}

func Unauthenticated(format string, args ...interface{}) *AppError {
	return newAppError(KindUnauthenticated, format, args...)
}

func Conflict(format string, args ...interface{}) *AppError {
	return newAppError(KindConflict, format, args...)
}

func RateLimited(retryAfter time.Duration, format string, args ...interface{}) *AppError {
	e := newAppError(KindRateLimited, format, args...)
	e.RetryAfter = retryAfter
	return e
}

func Locked(retryAfter time.Duration, format string, args ...interface{}) *AppError {
	e := newAppError(KindLocked, format, args...)
	e.RetryAfter = retryAfter
	return e
}

func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf returns the kind of the first *AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
