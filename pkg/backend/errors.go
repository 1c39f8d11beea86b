package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

// Error is a failure reported by the backend. Message carries the raw service text.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if text := http.StatusText(e.Status); text != "" {
		return strings.ToLower(text)
	}
	return "backend request failed"
}

// RemoteStatus exposes the HTTP status for error dumps.
func (e *Error) RemoteStatus() int {
	if e == nil {
		return 0
	}
	return e.Status
}

// NewError builds an Error with a status and message.
func NewError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// IsNotFound reports whether err is a backend "no rows" failure.
func IsNotFound(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Status == http.StatusNotFound
}

// IsClientError reports whether the backend rejected the request itself (4xx).
func IsClientError(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Status >= 400 && be.Status < 500
}

// Message returns the raw service text of err, or fallback when there is none.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}

type remoteDetails struct {
	Status int    `json:"status,omitempty"`
	Code   string `json:"code,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// AsRemote classifies err as a remote call failure. Errors that already carry
// a typed code pass through untouched.
func AsRemote(err error, fallback string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteCall, err, fallback)
	}
	var be *Error
	if errors.As(err, &be) {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteCall, err, Message(err, fallback)).
			WithDetails(remoteDetails{Status: be.Status, Code: be.Code, Hint: be.Hint})
	}
	return pkgerrors.Wrap(pkgerrors.CodeRemoteCall, err, Message(err, fallback))
}
