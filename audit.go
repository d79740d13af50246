package couchjwt

import (
	"io"

	internalaudit "github.com/MrEthical07/couchjwt/internal/audit"
	"github.com/hashicorp/go-hclog"
)

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per event to an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// LoggerSink writes events through an hclog logger.
type LoggerSink = internalaudit.LoggerSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewLoggerSink(logger hclog.Logger) *LoggerSink {
	return internalaudit.NewLoggerSink(logger)
}

// Audit event types.
const (
	AuditLoginSuccess          = "login_success"
	AuditLoginFailure          = "login_failure"
	AuditLoginRateLimited      = "login_rate_limited"
	AuditInfoFailure           = "info_failure"
	AuditRenewSuccess          = "renew_success"
	AuditRenewFailure          = "renew_failure"
	AuditLogoutSuccess         = "logout_success"
	AuditLogoutFailure         = "logout_failure"
	AuditRoleRefreshSuppressed = "role_refresh_suppressed"
)
