package serviceerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the category a failed API call is classified into.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeServerError  Code = "server_error"
	CodeNetwork      Code = "network"
	CodeUnknown      Code = "unknown"
)

// Default user-facing messages per category. The server message, when
// present, takes precedence.
const (
	MessageBadRequest   = "please check your input"
	MessageUnauthorized = "login required"
	MessageForbidden    = "access denied"
	MessageNotFound     = "the requested information could not be found"
	MessageServerError  = "a server error occurred, please try again later"
	MessageNetwork      = "please check your network connection"
	MessageUnknown      = "an error occurred"
)

var (
	// ErrNoResponse marks failures where the request left the client but no
	// response came back (connection refused, reset, timeout).
	ErrNoResponse = errors.New("no response received")
	// ErrNotFound is returned by repositories for absent keys.
	ErrNotFound = errors.New("not found")
	// ErrInvalidConfig is returned for unusable configuration values.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Error is a classified API failure.
type Error struct {
	Err           Code
	Description   string // user-facing message: server message or category default
	ServerMessage string // message carried in the response body, if any
	StatusCode    int    // 0 when no response was received
	Cause         error
}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Err, e.Description)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by category, so errors.Is(err, ErrUnauthorized)
// holds for every unauthorized outcome. A 404 also matches ErrNotFound.
func (e *Error) Is(target error) bool {
	if target == ErrNotFound {
		return e.Err == CodeNotFound
	}

	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Err == e.Err
}

// HTTPStatus returns the status code the category stands for.
func (e *Error) HTTPStatus() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Err {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller should offer a retry affordance.
func (e *Error) Retryable() bool {
	return e.Err == CodeServerError || e.Err == CodeNetwork
}

// Predefined category errors for errors.Is comparisons.
var (
	ErrBadRequest   = &Error{Err: CodeBadRequest}
	ErrUnauthorized = &Error{Err: CodeUnauthorized}
	ErrForbidden    = &Error{Err: CodeForbidden}
	ErrServerError  = &Error{Err: CodeServerError}
	ErrNetwork      = &Error{Err: CodeNetwork}
	ErrUnknown      = &Error{Err: CodeUnknown}
)

// CodeFromStatus maps a response status to its category.
func CodeFromStatus(status int) Code {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusInternalServerError:
		return CodeServerError
	default:
		return CodeUnknown
	}
}

// DefaultMessage returns the user-facing message for a category.
func DefaultMessage(code Code) string {
	switch code {
	case CodeBadRequest:
		return MessageBadRequest
	case CodeUnauthorized:
		return MessageUnauthorized
	case CodeForbidden:
		return MessageForbidden
	case CodeNotFound:
		return MessageNotFound
	case CodeServerError:
		return MessageServerError
	case CodeNetwork:
		return MessageNetwork
	default:
		return MessageUnknown
	}
}

// FromStatus builds a classified error for a received response.
func FromStatus(status int, serverMessage string) *Error {
	code := CodeFromStatus(status)
	description := serverMessage
	if description == "" {
		description = DefaultMessage(code)
	}

	return &Error{
		Err:           code,
		Description:   description,
		ServerMessage: serverMessage,
		StatusCode:    status,
	}
}

// Classify maps any failure to the taxonomy. It is the single decision point
// used by the transport chain and by per-call operation state.
//
//   - an already classified *Error is returned unchanged, or as a copy
//     carrying the category default when it has no description
//   - errors marked with ErrNoResponse are network failures
//   - everything else never reached the wire and keeps its raw message
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		if classified.Description != "" {
			return classified
		}

		described := *classified
		described.Description = DefaultMessage(described.Err)
		return &described
	}

	if errors.Is(err, ErrNoResponse) {
		return &Error{
			Err:         CodeNetwork,
			Description: MessageNetwork,
			Cause:       err,
		}
	}

	description := err.Error()
	if description == "" {
		description = MessageUnknown
	}

	return &Error{
		Err:         CodeUnknown,
		Description: description,
		Cause:       err,
	}
}

// MessageOr returns the server-provided message carried by err, or fallback.
func MessageOr(err error, fallback string) string {
	var classified *Error
	if errors.As(err, &classified) && classified.ServerMessage != "" {
		return classified.ServerMessage
	}

	return fallback
}
