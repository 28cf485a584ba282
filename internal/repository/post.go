package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ponderdome/ponderdome/internal/models"
	"gorm.io/gorm"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// ListRecent returns one page of posts, newest first, with authors attached.
// Posts whose author row is gone come back with a zero User.
func (r *PostRepository) ListRecent(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get posts by user: %w", err)
	}
	return posts, nil
}

// MostLiked returns the user's post with the most likes; the earliest post wins a tie.
func (r *PostRepository) MostLiked(ctx context.Context, userID uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("likes_count DESC").
		Order("created_at ASC").
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get most liked post: %w", err)
	}
	return &post, nil
}

// AggregateByAuthor sums likes and counts posts per author, highest total
// first with the author id breaking ties, and keeps the first limit rows.
func (r *PostRepository) AggregateByAuthor(ctx context.Context, limit int) ([]models.AuthorTotals, error) {
	var rows []models.AuthorTotals
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("user_id, COALESCE(SUM(likes_count), 0) AS total_likes, COUNT(id) AS total_posts").
		Group("user_id").
		Order("total_likes DESC").
		Order("user_id ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate likes by author: %w", err)
	}
	return rows, nil
}

// AggregateForAuthors computes the same totals restricted to the given authors.
func (r *PostRepository) AggregateForAuthors(ctx context.Context, userIDs []uuid.UUID) ([]models.AuthorTotals, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var rows []models.AuthorTotals
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("user_id, COALESCE(SUM(likes_count), 0) AS total_likes, COUNT(id) AS total_posts").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate likes for authors: %w", err)
	}
	return rows, nil
}

func (r *PostRepository) AdjustLikesCount(ctx context.Context, postID uuid.UUID, delta int64) error {
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("likes_count", gorm.Expr("GREATEST(likes_count + ?, 0)", delta)).Error; err != nil {
		return fmt.Errorf("failed to update likes count: %w", err)
	}
	return nil
}

func (r *PostRepository) AdjustCommentsCount(ctx context.Context, postID uuid.UUID, delta int64) error {
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("comments_count", gorm.Expr("GREATEST(comments_count + ?, 0)", delta)).Error; err != nil {
		return fmt.Errorf("failed to update comments count: %w", err)
	}
	return nil
}

const recountCountersSQL = `
UPDATE posts SET likes_count = c.likes, comments_count = c.comments
FROM (SELECT
	(SELECT COUNT(*) FROM likes WHERE post_id = @id) AS likes,
	(SELECT COUNT(*) FROM comments WHERE post_id = @id) AS comments) AS c
WHERE posts.id = @id
	AND (posts.likes_count <> c.likes OR posts.comments_count <> c.comments)
RETURNING posts.likes_count, posts.comments_count`

// RecountCounters rewrites both counters from the like and comment rows in a
// single statement. It returns nil when the post is missing or already matched.
func (r *PostRepository) RecountCounters(ctx context.Context, postID uuid.UUID) (*models.PostCounters, error) {
	var rows []models.PostCounters
	if err := r.db.WithContext(ctx).
		Raw(recountCountersSQL, sql.Named("id", postID)).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to recount post counters: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Delete(&models.Post{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}
