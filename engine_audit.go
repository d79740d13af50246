package couchjwt

import (
	"context"
	"time"

	"github.com/MrEthical07/couchjwt/autherr"
	"github.com/google/uuid"
)

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, user, sessionID string, err error, metadata func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		RequestID: requestIDFromContext(ctx),
		User:      user,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
	}
	if event.RequestID == "" {
		event.RequestID = uuid.NewString()
	}
	if err != nil {
		typed := autherr.From(err)
		event.Code = string(typed.Code)
		event.Error = typed.Message
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
