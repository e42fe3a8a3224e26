// Package httperrors provides error objects that carry an HTTP status code
// and a public payload. Every failure a request can hit is eventually
// converted to an *Error before the response is written.
package httperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// InternalMessage is the public message of every 5xx error. The cause stays
// in Err and is only logged.
const InternalMessage = "An internal server error occurred"

// Error represents an HTTP error object.
type Error struct {
	Code    int
	Message string
	Err     error
}

// Payload is the public representation of an Error.
type Payload struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// IsServer reports whether the error is a 5xx error.
func (e *Error) IsServer() bool {
	return e.Code >= http.StatusInternalServerError
}

// Payload returns the statusCode/error/message triple exposed to clients.
func (e *Error) Payload() Payload {
	p := Payload{
		StatusCode: e.Code,
		Error:      http.StatusText(e.Code),
		Message:    e.Message,
	}
	if e.IsServer() {
		p.Message = InternalMessage
	}
	if p.Error == "" {
		p.Error = "Unknown"
	}
	return p
}

// WriteJSON writes the error payload as JSON to the response
func (e *Error) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Code)
	json.NewEncoder(w).Encode(e.Payload())
}

// New creates an error object with the given status code and message.
// Codes outside the 4xx/5xx range become 500.
func New(code int, message string) *Error {
	if code < http.StatusBadRequest || code > 599 {
		code = http.StatusInternalServerError
	}
	if message == "" {
		message = http.StatusText(code)
	}
	return &Error{Code: code, Message: message}
}

// Wrap creates an error object wrapping an underlying error.
func Wrap(err error, code int, message string) *Error {
	e := New(code, message)
	e.Err = err
	return e
}

// BadRequest returns a 400 error object.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Forbidden returns a 403 error object.
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

// NotFound returns a 404 error object.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// EntityTooLarge returns a 413 error object.
func EntityTooLarge(message string) *Error {
	return New(http.StatusRequestEntityTooLarge, message)
}

// UnsupportedMediaType returns a 415 error object.
func UnsupportedMediaType(message string) *Error {
	return New(http.StatusUnsupportedMediaType, message)
}

// Internal wraps err as a 500 error object.
func Internal(err error) *Error {
	return Wrap(err, http.StatusInternalServerError, InternalMessage)
}

// From converts any error into an error object. Errors that already are (or
// wrap) an *Error are returned as is; everything else becomes a 500.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
