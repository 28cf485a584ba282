package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ponderdome/ponderdome/pkg/logger"
	"github.com/ponderdome/ponderdome/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	posts []string
	err   error
}

func (f *fakeReconciler) ReconcilePost(ctx context.Context, postID string) (bool, error) {
	f.posts = append(f.posts, postID)
	return true, f.err
}

// fakeConsumer replays a fixed set of messages and then reports cancellation.
type fakeConsumer struct {
	messages []queue.Message
	failed   []queue.Message
	closed   bool
}

func (f *fakeConsumer) Subscribe(ctx context.Context, handler func(queue.Message) error, onError func(queue.Message, error)) error {
	for _, msg := range f.messages {
		if err := handler(msg); err != nil {
			f.failed = append(f.failed, msg)
			onError(msg, err)
		}
	}
	return context.Canceled
}

func (f *fakeConsumer) Close() error {
	f.closed = true
	return nil
}

func message(t *testing.T, eventType queue.EventType, data interface{}) queue.Message {
	t.Helper()
	event, err := queue.NewEvent(eventType, data)
	require.NoError(t, err)
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return queue.Message{Key: "k", Value: value}
}

func TestCounterWorker_ReconcilesTouchedPosts(t *testing.T) {
	reconciler := &fakeReconciler{}
	consumer := &fakeConsumer{messages: []queue.Message{
		message(t, queue.EventLikeToggled, queue.LikeEventData{UserID: "u", PostID: "p1", Liked: true}),
		message(t, queue.EventCommentCreated, queue.CommentEventData{CommentID: "c", UserID: "u", PostID: "p2"}),
		message(t, queue.EventPostCreated, queue.PostEventData{PostID: "p3", UserID: "u"}),
		message(t, queue.EventUserRegistered, queue.UserEventData{UserID: "u", Username: "name"}),
		message(t, queue.EventType("mystery"), map[string]string{}),
	}}

	w := NewCounterWorker(consumer, reconciler, logger.Discard())
	err := w.Start(context.Background())
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{"p1", "p2"}, reconciler.posts)
	assert.Empty(t, consumer.failed)

	require.NoError(t, w.Stop())
	assert.True(t, consumer.closed)
}

func TestCounterWorker_HandleMessageErrors(t *testing.T) {
	reconciler := &fakeReconciler{}
	w := NewCounterWorker(&fakeConsumer{}, reconciler, logger.Discard())
	ctx := context.Background()

	err := w.HandleMessage(ctx, queue.Message{Value: []byte("not json")})
	assert.Error(t, err)

	err = w.HandleMessage(ctx, message(t, queue.EventLikeToggled, queue.LikeEventData{UserID: "u"}))
	assert.Error(t, err)
	assert.Empty(t, reconciler.posts)

	reconciler.err = errors.New("db down")
	err = w.HandleMessage(ctx, message(t, queue.EventCommentCreated, queue.CommentEventData{PostID: "p"}))
	assert.ErrorContains(t, err, "db down")
}
