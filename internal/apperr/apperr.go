// Package apperr carries the error taxonomy shared by the services and the
// HTTP layer.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUpstream Kind = iota
	KindInvalid
	KindNotFound
	KindDeviceNotRegistered
	KindConflict
	KindTimeout
)

type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Invalid(code string) error {
	return &Error{Kind: KindInvalid, Code: code}
}

func NotFound(code string) error {
	return &Error{Kind: KindNotFound, Code: code}
}

func DeviceNotRegistered(code string) error {
	return &Error{Kind: KindDeviceNotRegistered, Code: code}
}

func Conflict(code string) error {
	return &Error{Kind: KindConflict, Code: code}
}

// Upstream wraps a failure of the store, identity provider or push gateway.
// Deadline errors are reported as timeouts.
func Upstream(code string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Code: "upstream_timeout", Err: err}
	}
	return &Error{Kind: KindUpstream, Code: code, Err: err}
}

// Classify returns the HTTP status and public code for err.
func Classify(err error) (int, string) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, "upstream_timeout"
		}
		return http.StatusInternalServerError, "server_error"
	}
	switch appErr.Kind {
	case KindInvalid, KindDeviceNotRegistered:
		return http.StatusBadRequest, appErr.Code
	case KindNotFound:
		return http.StatusNotFound, appErr.Code
	case KindConflict:
		return http.StatusConflict, appErr.Code
	case KindTimeout:
		return http.StatusGatewayTimeout, appErr.Code
	default:
		return http.StatusInternalServerError, appErr.Code
	}
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
