package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ponderdome/ponderdome/internal/models"
	"github.com/ponderdome/ponderdome/pkg/logger"
	"github.com/ponderdome/ponderdome/pkg/queue"
	"github.com/sirupsen/logrus"
)

type LikeService struct {
	store    Store
	producer EventPublisher
	logger   *logger.Logger
}

func NewLikeService(store Store, producer EventPublisher, logger *logger.Logger) *LikeService {
	return &LikeService{
		store:    store,
		producer: producer,
		logger:   logger,
	}
}

// ToggleLike flips the viewer's like on a post and returns the new state.
// The counter moves by the number of rows actually inserted or removed, so a
// concurrent toggle of the same pair cannot double count.
func (s *LikeService) ToggleLike(ctx context.Context, viewer Viewer, postID string) (bool, error) {
	if err := requireViewer(viewer); err != nil {
		return false, err
	}

	postUUID, err := parseID("post", postID)
	if err != nil {
		return false, err
	}

	var liked bool
	err = s.store.Transaction(ctx, func(tx Store) error {
		post, err := tx.Posts().GetByID(ctx, postUUID)
		if err != nil {
			return fmt.Errorf("failed to get post: %w", err)
		}
		if post == nil {
			return fmt.Errorf("%w: post", ErrNotFound)
		}

		exists, err := tx.Likes().Exists(ctx, viewer.UserID, postUUID)
		if err != nil {
			return err
		}

		if exists {
			removed, err := tx.Likes().Delete(ctx, viewer.UserID, postUUID)
			if err != nil {
				return err
			}
			if removed {
				if err := tx.Posts().AdjustLikesCount(ctx, postUUID, -1); err != nil {
					return err
				}
			}
			liked = false
			return nil
		}

		inserted, err := tx.Likes().Create(ctx, &models.Like{
			PostID:    postUUID,
			UserID:    viewer.UserID,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if inserted {
			if err := tx.Posts().AdjustLikesCount(ctx, postUUID, 1); err != nil {
				return err
			}
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, err
	}

	publishEvent(ctx, s.producer, s.logger, postID, queue.EventLikeToggled, queue.LikeEventData{
		UserID: viewer.UserID.String(),
		PostID: postID,
		Liked:  liked,
	})

	s.logger.WithFields(logrus.Fields{
		"user_id": viewer.UserID,
		"post_id": postID,
		"liked":   liked,
	}).Info("Like toggled")

	return liked, nil
}
