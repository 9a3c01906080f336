package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/startline/auth-server/internal/events"
)

// StartAuditWorker subscribes a structured audit log to every auth event.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil || logger == nil {
		return
	}

	audit := logger.Named("audit")
	dispatcher.SubscribeAll(func(_ context.Context, evt events.Event) error {
		audit.Info(string(evt.Type),
			zap.String("event_id", evt.ID),
			zap.String("username", evt.Username),
			zap.Time("timestamp", evt.Timestamp),
			zap.Any("payload", evt.Payload),
		)
		return nil
	})
}
