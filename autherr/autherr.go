// Package autherr defines the caller-facing failure taxonomy shared by every
// layer of couchjwt.
//
// Failures are classified where they originate (identity provider client,
// session backends, token codec) and passed upward unchanged. Callers compare
// with errors.Is against the exported sentinels, which match on [Code] only.
package autherr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable failure kind rendered in error responses.
type Code string

const (
	CodeBadAuth      Code = "EBADAUTH"
	CodeUpstream     Code = "EUPSTREAM"
	CodeTransport    Code = "ETRANSPORT"
	CodeBadToken     Code = "EBADTOKEN"
	CodeExpiredToken Code = "EEXPTOKEN"
	CodeBadSession   Code = "EBADSESSION"
	CodeBackend      Code = "EBACKEND"
	CodeRateLimited  Code = "ERATELIMIT"
	CodeGeneric      Code = "EERROR"
)

const (
	msgBadToken       = "Missing or invalid token."
	msgExpiredToken   = "Expired token."
	msgInvalidSession = "Invalid session."
	msgMissingSession = "Missing session id."
	msgBackend        = "Session backend failure."
	msgTransport      = "Identity provider unreachable."
	msgRateLimited    = "Too many failed login attempts."
)

// Error is a classified failure. Status is the HTTP status a caller sees.
// Err holds the underlying cause for logs; it is never rendered.
type Error struct {
	Code    Code
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Code, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrBadAuth      = &Error{Code: CodeBadAuth, Status: http.StatusUnauthorized, Message: "Invalid username or password."}
	ErrUpstream     = &Error{Code: CodeUpstream, Status: http.StatusBadGateway, Message: "Identity provider error."}
	ErrTransport    = &Error{Code: CodeTransport, Status: http.StatusBadGateway, Message: msgTransport}
	ErrBadToken     = &Error{Code: CodeBadToken, Status: http.StatusUnauthorized, Message: msgBadToken}
	ErrExpiredToken = &Error{Code: CodeExpiredToken, Status: http.StatusUnauthorized, Message: msgExpiredToken}
	ErrBadSession   = &Error{Code: CodeBadSession, Status: http.StatusUnauthorized, Message: msgInvalidSession}
	ErrBackend      = &Error{Code: CodeBackend, Status: http.StatusInternalServerError, Message: msgBackend}
	ErrRateLimited  = &Error{Code: CodeRateLimited, Status: http.StatusTooManyRequests, Message: msgRateLimited}
)

// BadAuth reports credentials rejected by the identity provider.
func BadAuth(reason string) *Error {
	if reason == "" {
		reason = ErrBadAuth.Message
	}
	return &Error{Code: CodeBadAuth, Status: http.StatusUnauthorized, Message: reason}
}

// Upstream carries a non-401 error status returned by the identity provider.
func Upstream(status int, reason string) *Error {
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	if reason == "" {
		reason = http.StatusText(status)
	}
	return &Error{Code: CodeUpstream, Status: status, Message: reason}
}

// Transport reports an unreachable identity provider. Timeouts map to 504.
func Transport(err error, timeout bool) *Error {
	status := http.StatusBadGateway
	if timeout {
		status = http.StatusGatewayTimeout
	}
	return &Error{Code: CodeTransport, Status: status, Message: msgTransport, Err: err}
}

func BadToken(err error) *Error {
	return &Error{Code: CodeBadToken, Status: http.StatusUnauthorized, Message: msgBadToken, Err: err}
}

func ExpiredToken(err error) *Error {
	return &Error{Code: CodeExpiredToken, Status: http.StatusUnauthorized, Message: msgExpiredToken, Err: err}
}

// InvalidSession reports a session id that the store does not know.
func InvalidSession() *Error {
	return &Error{Code: CodeBadSession, Status: http.StatusUnauthorized, Message: msgInvalidSession}
}

// MissingSession reports a token that carries no session id.
func MissingSession() *Error {
	return &Error{Code: CodeBadSession, Status: http.StatusUnauthorized, Message: msgMissingSession}
}

func Backend(err error) *Error {
	return &Error{Code: CodeBackend, Status: http.StatusInternalServerError, Message: msgBackend, Err: err}
}

func RateLimited(err error) *Error {
	return &Error{Code: CodeRateLimited, Status: http.StatusTooManyRequests, Message: msgRateLimited, Err: err}
}

// HTTP builds a generic error for a bare HTTP status such as 404 or 406.
func HTTP(status int) *Error {
	return &Error{Code: CodeGeneric, Status: status, Message: http.StatusText(status)}
}

// Internal hides err behind a generic 500.
func Internal(err error) *Error {
	return &Error{
		Code:    CodeGeneric,
		Status:  http.StatusInternalServerError,
		Message: http.StatusText(http.StatusInternalServerError),
		Err:     err,
	}
}

// As extracts the classified error from err's chain.
func As(err error) (*Error, bool) {
	var typed *Error
	if errors.As(err, &typed) && typed != nil {
		return typed, true
	}
	return nil, false
}

// From returns err's classification unchanged, or a generic 500 when err
// carries none. From(nil) is nil.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if typed, ok := As(err); ok {
		return typed
	}
	return Internal(err)
}

// OrBackend keeps an existing classification and otherwise marks err as a
// session backend failure.
func OrBackend(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return Backend(err)
}
