package services

import (
	"context"

	"github.com/ponderdome/ponderdome/pkg/logger"
	"github.com/ponderdome/ponderdome/pkg/queue"
)

// publishEvent sends an activity event after a write has committed. A failed
// publish is logged and never fails the request.
func publishEvent(ctx context.Context, producer EventPublisher, log *logger.Logger, key string, t queue.EventType, data interface{}) {
	if producer == nil {
		return
	}

	event, err := queue.NewEvent(t, data)
	if err != nil {
		log.WithError(err).WithField("event_type", t).Error("Failed to build event")
		return
	}

	if err := producer.Publish(ctx, key, event); err != nil {
		log.WithError(err).WithField("event_type", t).Error("Failed to publish event")
	}
}
