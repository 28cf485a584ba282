package services

import (
	"context"

	"github.com/ponderdome/ponderdome/pkg/logger"
	"github.com/sirupsen/logrus"
)

// CounterReconciler recomputes a post's denormalized counters from its like
// and comment rows.
type CounterReconciler struct {
	store  Store
	logger *logger.Logger
}

func NewCounterReconciler(store Store, logger *logger.Logger) *CounterReconciler {
	return &CounterReconciler{
		store:  store,
		logger: logger,
	}
}

// ReconcilePost rewrites the counters of postID when they drifted and reports
// whether anything changed. A post that no longer exists is not an error.
func (r *CounterReconciler) ReconcilePost(ctx context.Context, postID string) (bool, error) {
	postUUID, err := parseID("post", postID)
	if err != nil {
		return false, err
	}

	counters, err := r.store.Posts().RecountCounters(ctx, postUUID)
	if err != nil {
		return false, err
	}
	if counters == nil {
		return false, nil
	}

	r.logger.WithFields(logrus.Fields{
		"post_id":  postID,
		"likes":    counters.LikesCount,
		"comments": counters.CommentsCount,
	}).Warn("Post counters reconciled")

	return true, nil
}
