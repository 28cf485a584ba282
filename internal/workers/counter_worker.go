package workers

import (
	"context"
	"fmt"

	"github.com/ponderdome/ponderdome/pkg/logger"
	"github.com/ponderdome/ponderdome/pkg/queue"
	"github.com/sirupsen/logrus"
)

// Consumer is satisfied by *queue.KafkaConsumer.
type Consumer interface {
	Subscribe(ctx context.Context, handler func(queue.Message) error, onError func(queue.Message, error)) error
	Close() error
}

// Reconciler is satisfied by *services.CounterReconciler.
type Reconciler interface {
	ReconcilePost(ctx context.Context, postID string) (bool, error)
}

// CounterWorker follows the activity stream and repairs a post's like and
// comment counters after every like toggle or new comment.
type CounterWorker struct {
	consumer   Consumer
	reconciler Reconciler
	logger     *logger.Logger
}

func NewCounterWorker(consumer Consumer, reconciler Reconciler, logger *logger.Logger) *CounterWorker {
	return &CounterWorker{
		consumer:   consumer,
		reconciler: reconciler,
		logger:     logger,
	}
}

func (w *CounterWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting counter worker...")

	return w.consumer.Subscribe(ctx, func(msg queue.Message) error {
		return w.HandleMessage(ctx, msg)
	}, func(msg queue.Message, err error) {
		w.logger.WithError(err).WithField("key", msg.Key).Error("Failed to process event")
	})
}

func (w *CounterWorker) HandleMessage(ctx context.Context, msg queue.Message) error {
	event, err := queue.DecodeEvent(msg.Value)
	if err != nil {
		return err
	}

	w.logger.WithFields(logrus.Fields{
		"event_type": event.Type,
		"timestamp":  event.Timestamp,
	}).Debug("Processing event")

	switch event.Type {
	case queue.EventLikeToggled:
		var data queue.LikeEventData
		if err := event.Payload(&data); err != nil {
			return err
		}
		return w.reconcile(ctx, data.PostID)
	case queue.EventCommentCreated:
		var data queue.CommentEventData
		if err := event.Payload(&data); err != nil {
			return err
		}
		return w.reconcile(ctx, data.PostID)
	case queue.EventPostCreated, queue.EventPostDeleted:
		var data queue.PostEventData
		if err := event.Payload(&data); err != nil {
			return err
		}
		w.logger.WithFields(logrus.Fields{
			"event_type": event.Type,
			"post_id":    data.PostID,
			"user_id":    data.UserID,
		}).Info("Post activity")
		return nil
	case queue.EventUserRegistered, queue.EventProfileUpdated:
		var data queue.UserEventData
		if err := event.Payload(&data); err != nil {
			return err
		}
		w.logger.WithFields(logrus.Fields{
			"event_type": event.Type,
			"user_id":    data.UserID,
		}).Info("User activity")
		return nil
	default:
		w.logger.WithField("event_type", event.Type).Warn("Unknown event type")
		return nil
	}
}

func (w *CounterWorker) reconcile(ctx context.Context, postID string) error {
	if postID == "" {
		return fmt.Errorf("missing post_id in event data")
	}

	if _, err := w.reconciler.ReconcilePost(ctx, postID); err != nil {
		return fmt.Errorf("failed to reconcile post %s: %w", postID, err)
	}
	return nil
}

func (w *CounterWorker) Stop() error {
	w.logger.Info("Stopping counter worker...")
	return w.consumer.Close()
}
