package couchjwt

import (
	"errors"

	"github.com/MrEthical07/couchjwt/autherr"
	"github.com/MrEthical07/couchjwt/session"
)

// Error is the classified failure returned by every Engine operation.
type Error = autherr.Error

// Code is the machine-readable failure kind.
type Code = autherr.Code

const (
	CodeBadAuth      = autherr.CodeBadAuth
	CodeUpstream     = autherr.CodeUpstream
	CodeTransport    = autherr.CodeTransport
	CodeBadToken     = autherr.CodeBadToken
	CodeExpiredToken = autherr.CodeExpiredToken
	CodeBadSession   = autherr.CodeBadSession
	CodeBackend      = autherr.CodeBackend
	CodeRateLimited  = autherr.CodeRateLimited
	CodeGeneric      = autherr.CodeGeneric
)

// Sentinels for errors.Is. They match any failure with the same code.
var (
	ErrBadAuth      = autherr.ErrBadAuth
	ErrUpstream     = autherr.ErrUpstream
	ErrTransport    = autherr.ErrTransport
	ErrBadToken     = autherr.ErrBadToken
	ErrExpiredToken = autherr.ErrExpiredToken
	ErrBadSession   = autherr.ErrBadSession
	ErrBackend      = autherr.ErrBackend
	ErrRateLimited  = autherr.ErrRateLimited
)

var (
	// ErrEngineNotReady is returned by operations on a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrUnknownBackend is returned for session store names that are not registered.
	ErrUnknownBackend = session.ErrUnknownBackend
)

// AsError extracts the classification of err. Unclassified errors become a
// generic 500 whose message does not reveal the cause.
func AsError(err error) *Error {
	return autherr.From(err)
}
