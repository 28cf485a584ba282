package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ponderdome/ponderdome/internal/models"
	"gorm.io/gorm"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// ListByPostID returns every comment on the post, newest first.
func (r *CommentRepository) ListByPostID(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to get comments by post: %w", err)
	}
	return comments, nil
}

func (r *CommentRepository) CountByPostID(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

func (r *CommentRepository) DeleteByPostID(ctx context.Context, postID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Delete(&models.Comment{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete comments by post: %w", result.Error)
	}
	return result.RowsAffected, nil
}
