// Package apperr implements the seven-entry error taxonomy of spec §7:
// a wire-mapped {code, reason, message} triple with an HTTP status
// derived from the reason, generalizing the teacher's single-field
// ErrorResponse.
package apperr

import (
	"encoding/json"
	"net/http"
)

// Reason is one of the seven taxonomy entries.
type Reason string

const (
	ReasonInvalidArgument Reason = "ERR_INVALID_ARGUMENT"
	ReasonInvalidState    Reason = "ERR_INVALID_STATE"
	ReasonNotFound        Reason = "ERR_NOT_FOUND"
	ReasonRateLimit       Reason = "ERR_RATE_LIMIT"
	ReasonExternal        Reason = "ERR_EXTERNAL"
	ReasonInternal        Reason = "ERR_INTERNAL"
	ReasonForbidden       Reason = "ERR_FORBIDDEN"
)

type entry struct {
	code   int
	status int
}

var table = map[Reason]entry{
	ReasonInvalidArgument: {code: 1, status: http.StatusBadRequest},
	ReasonInvalidState:    {code: 2, status: http.StatusBadRequest},
	ReasonNotFound:        {code: 3, status: http.StatusNotFound},
	ReasonRateLimit:       {code: 4, status: http.StatusBadRequest},
	ReasonExternal:        {code: 5, status: http.StatusInternalServerError},
	ReasonInternal:        {code: 6, status: http.StatusInternalServerError},
	ReasonForbidden:       {code: 7, status: http.StatusForbidden},
}

// Error is the taxonomy's wire shape. It implements the error interface.
type Error struct {
	Code    int    `json:"code"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Reason) + ": " + e.Message
}

// HTTPStatus returns the status code the reason maps to.
func (e *Error) HTTPStatus() int {
	return table[e.Reason].status
}

// New builds an Error for reason with a caller-supplied message.
func New(reason Reason, message string) *Error {
	return &Error{Code: table[reason].code, Reason: reason, Message: message}
}

func InvalidArgument(message string) *Error { return New(ReasonInvalidArgument, message) }
func InvalidState(message string) *Error    { return New(ReasonInvalidState, message) }
func NotFound(message string) *Error        { return New(ReasonNotFound, message) }
func RateLimit(message string) *Error       { return New(ReasonRateLimit, message) }
func External(message string) *Error        { return New(ReasonExternal, message) }
func Internal(message string) *Error        { return New(ReasonInternal, message) }
func Forbidden(message string) *Error       { return New(ReasonForbidden, message) }

// WriteHTTP serializes err as the wire-level {code,reason,message}
// document with the taxonomy's mapped HTTP status. Errors that are
// not *Error are reported as ERR_INTERNAL without leaking detail.
func WriteHTTP(w http.ResponseWriter, err error) {
	appErr, ok := err.(*Error)
	if !ok {
		appErr = Internal("internal error")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus())
	_ = json.NewEncoder(w).Encode(appErr)
}
