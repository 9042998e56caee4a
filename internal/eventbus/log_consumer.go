package eventbus

import (
	"context"
	"log/slog"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// LogConsumer logs all events for observability.
type LogConsumer struct {
	logger *slog.Logger
}

func NewLogConsumer(logger *slog.Logger) *LogConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogConsumer{logger: logger}
}

func (c *LogConsumer) HandleEvent(ctx context.Context, evt cloudevents.Event) error {
	c.logger.InfoContext(ctx, "event",
		"type", evt.Type(),
		"source", evt.Source(),
		"subject", evt.Subject(),
		"id", evt.ID(),
	)
	return nil
}
