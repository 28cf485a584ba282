package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ponderdome/ponderdome/internal/models"
	"github.com/ponderdome/ponderdome/pkg/logger"
	"github.com/ponderdome/ponderdome/pkg/queue"
	"github.com/sirupsen/logrus"
)

type CommentService struct {
	store    Store
	producer EventPublisher
	logger   *logger.Logger
}

func NewCommentService(store Store, producer EventPublisher, logger *logger.Logger) *CommentService {
	return &CommentService{
		store:    store,
		producer: producer,
		logger:   logger,
	}
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type CommentAuthor struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username *string   `json:"username"`
	Image    *string   `json:"image"`
}

type CommentView struct {
	ID        uuid.UUID     `json:"id"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	Author    CommentAuthor `json:"author"`
}

func (s *CommentService) CreateComment(ctx context.Context, viewer Viewer, postID, content string) (*models.Comment, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}

	content, err := normalizeText("comment", content, MaxCommentLength)
	if err != nil {
		return nil, err
	}

	postUUID, err := parseID("post", postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:    postUUID,
		UserID:    viewer.UserID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	err = s.store.Transaction(ctx, func(tx Store) error {
		post, err := tx.Posts().GetByID(ctx, postUUID)
		if err != nil {
			return fmt.Errorf("failed to get post: %w", err)
		}
		if post == nil {
			return fmt.Errorf("%w: post", ErrNotFound)
		}

		if err := tx.Comments().Create(ctx, comment); err != nil {
			return err
		}
		return tx.Posts().AdjustCommentsCount(ctx, postUUID, 1)
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.producer, s.logger, postID, queue.EventCommentCreated, queue.CommentEventData{
		CommentID: comment.ID.String(),
		UserID:    viewer.UserID.String(),
		PostID:    postID,
	})

	s.logger.WithFields(logrus.Fields{
		"comment_id": comment.ID,
		"user_id":    viewer.UserID,
		"post_id":    postID,
	}).Info("Comment created successfully")

	return comment, nil
}

// GetComments lists a post's comments newest first.
func (s *CommentService) GetComments(ctx context.Context, postID string) ([]*CommentView, error) {
	postUUID, err := parseID("post", postID)
	if err != nil {
		return nil, err
	}

	comments, err := s.store.Comments().ListByPostID(ctx, postUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post comments: %w", err)
	}

	views := make([]*CommentView, len(comments))
	for i, c := range comments {
		view := &CommentView{
			ID:        c.ID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			Author: CommentAuthor{
				ID:   c.UserID,
				Name: unknownAuthorName,
			},
		}
		if c.User.ID != uuid.Nil {
			view.Author.Name = c.User.Name
			view.Author.Username = c.User.Username
			view.Author.Image = c.User.Image
		}
		views[i] = view
	}

	return views, nil
}
