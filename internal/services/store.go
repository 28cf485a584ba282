package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/ponderdome/ponderdome/internal/models"
	"github.com/ponderdome/ponderdome/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateBio(ctx context.Context, id uuid.UUID, bio string) (bool, error)
}

type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListRecent(ctx context.Context, offset, limit int) ([]*models.Post, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Post, error)
	MostLiked(ctx context.Context, userID uuid.UUID) (*models.Post, error)
	AggregateByAuthor(ctx context.Context, limit int) ([]models.AuthorTotals, error)
	AggregateForAuthors(ctx context.Context, userIDs []uuid.UUID) ([]models.AuthorTotals, error)
	AdjustLikesCount(ctx context.Context, postID uuid.UUID, delta int64) error
	AdjustCommentsCount(ctx context.Context, postID uuid.UUID, delta int64) error
	RecountCounters(ctx context.Context, postID uuid.UUID) (*models.PostCounters, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type LikeStore interface {
	Create(ctx context.Context, like *models.Like) (bool, error)
	Delete(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	Exists(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	LikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) ([]uuid.UUID, error)
	CountByPostID(ctx context.Context, postID uuid.UUID) (int64, error)
	DeleteByPostID(ctx context.Context, postID uuid.UUID) (int64, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPostID(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error)
	CountByPostID(ctx context.Context, postID uuid.UUID) (int64, error)
	DeleteByPostID(ctx context.Context, postID uuid.UUID) (int64, error)
}

// Store is the content store the services run against. Transaction gives fn
// a Store whose writes commit together.
type Store interface {
	Users() UserStore
	Posts() PostStore
	Likes() LikeStore
	Comments() CommentStore
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// EventPublisher is satisfied by *queue.KafkaProducer.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

type gormStore struct {
	repos *repository.Store
}

// NewStore adapts the gorm repositories to Store.
func NewStore(repos *repository.Store) Store {
	return gormStore{repos: repos}
}

func (s gormStore) Users() UserStore       { return s.repos.Users }
func (s gormStore) Posts() PostStore       { return s.repos.Posts }
func (s gormStore) Likes() LikeStore       { return s.repos.Likes }
func (s gormStore) Comments() CommentStore { return s.repos.Comments }

func (s gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.repos.Transaction(ctx, func(tx *repository.Store) error {
		return fn(gormStore{repos: tx})
	})
}
