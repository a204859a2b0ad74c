package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/WoushouW/woushBOT/internal/botapi"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal")
	ErrUnavailable  = errors.New("unavailable")
)

// ServiceError wraps a sentinel error with a specific code and message for the handler to use.
type ServiceError struct {
	Err     error
	Code    string
	Message string
}

func (e *ServiceError) Error() string { return e.Message }
func (e *ServiceError) Unwrap() error { return e.Err }

// NewError creates a ServiceError wrapping the given sentinel.
func NewError(sentinel error, code, message string) *ServiceError {
	return &ServiceError{Err: sentinel, Code: code, Message: message}
}

// Convenience constructors for common error types.

func NotFound(code, message string) *ServiceError {
	return NewError(ErrNotFound, code, message)
}

func Forbidden(code, message string) *ServiceError {
	return NewError(ErrForbidden, code, message)
}

func BadRequest(code, message string) *ServiceError {
	return NewError(ErrBadRequest, code, message)
}

func Conflict(code, message string) *ServiceError {
	return NewError(ErrConflict, code, message)
}

func Unauthorized(code, message string) *ServiceError {
	return NewError(ErrUnauthorized, code, message)
}

func Internal(code, message string) *ServiceError {
	return NewError(ErrInternal, code, message)
}

func Unavailable(code, message string) *ServiceError {
	return NewError(ErrUnavailable, code, message)
}

// fromBot translates a bot API failure into a ServiceError. A 401 maps to
// ErrUnauthorized so handlers can end the session.
func fromBot(err error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}

	switch {
	case errors.Is(err, botapi.ErrUnauthorized):
		return Unauthorized("SESSION_EXPIRED", "your session has expired, please log in again")
	case errors.Is(err, botapi.ErrInvalidPIN):
		return Unauthorized("INVALID_PIN", "invalid PIN")
	case errors.Is(err, botapi.ErrBotNotReady):
		return Unavailable("BOT_NOT_READY", "the bot is still starting, try again in a moment")
	case errors.Is(err, context.DeadlineExceeded):
		return Unavailable("BOT_TIMEOUT", "the bot did not answer in time")
	case errors.Is(err, context.Canceled):
		return Internal("CANCELED", "request canceled")
	}

	var apiErr *botapi.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return BadRequest("BOT_REJECTED", apiErr.Message)
		case http.StatusForbidden:
			return Forbidden("BOT_FORBIDDEN", apiErr.Message)
		case http.StatusNotFound:
			return NotFound("NOT_FOUND", apiErr.Message)
		case http.StatusConflict:
			return Conflict("CONFLICT", apiErr.Message)
		case http.StatusServiceUnavailable:
			return Unavailable("BOT_NOT_READY", apiErr.Message)
		}
		return Internal("BOT_ERROR", apiErr.Message)
	}
	return Internal("BOT_UNREACHABLE", "could not reach the bot")
}

// IsValidation reports whether err is the caller's fault (shown as a warning).
func IsValidation(err error) bool {
	return errors.Is(err, ErrBadRequest)
}
