package aishe

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds. ServiceError and UnreachableError are part of the client error
// family, so errors.Is(err, ErrClient) holds for all three.
var (
	ErrClient      = errors.New("aishe: client error")
	ErrService     = errors.New("aishe: service error")
	ErrUnreachable = errors.New("aishe: server not reachable")
)

// Conditions carried inside a ClientError.
var (
	ErrEmptyQuestion     = errors.New("question cannot be empty")
	ErrMalformedResponse = errors.New("malformed response from server")
	ErrCorruptCacheEntry = errors.New("corrupt cache entry")
)

// ClientError reports local misuse or a malformed payload.
type ClientError struct {
	Msg string
	Err error
}

// NewClientError wraps err as a ClientError with the given message.
func NewClientError(msg string, err error) *ClientError {
	return &ClientError{Msg: msg, Err: err}
}

func (e *ClientError) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return ErrClient.Error()
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

func (e *ClientError) Is(target error) bool { return target == ErrClient }

// ServiceError reports a call that completed but was rejected by the server.
type ServiceError struct {
	Method     string
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s request failed! Status: %d: %s", e.Method, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s request failed! Status: %d", e.Method, e.StatusCode)
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrService || target == ErrClient
}

// UnreachableError reports a call that did not complete before its deadline.
type UnreachableError struct {
	Method  string
	Timeout time.Duration
	Err     error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%s request timed out after %dms", e.Method, e.Timeout.Milliseconds())
}

func (e *UnreachableError) Unwrap() error { return e.Err }

func (e *UnreachableError) Is(target error) bool {
	return target == ErrUnreachable || target == ErrClient
}

// Kind returns a short label for the error's place in the taxonomy:
// "unreachable", "service", "client", or "" for errors outside of it.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnreachable):
		return "unreachable"
	case errors.Is(err, ErrService):
		return "service"
	case errors.Is(err, ErrClient):
		return "client"
	default:
		return ""
	}
}
