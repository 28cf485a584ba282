package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/ponderdome/ponderdome/internal/config"
	"github.com/ponderdome/ponderdome/internal/models"
	"github.com/ponderdome/ponderdome/pkg/logger"
	"github.com/ponderdome/ponderdome/pkg/queue"
	"github.com/sirupsen/logrus"
)

type FeedService struct {
	store       Store
	leaderboard *LeaderboardService
	producer    EventPublisher
	config      *config.FeedConfig
	logger      *logger.Logger
}

func NewFeedService(
	store Store,
	leaderboard *LeaderboardService,
	producer EventPublisher,
	config *config.FeedConfig,
	logger *logger.Logger,
) *FeedService {
	return &FeedService{
		store:       store,
		leaderboard: leaderboard,
		producer:    producer,
		config:      config,
		logger:      logger,
	}
}

type CreatePostRequest struct {
	Content string `json:"content" binding:"required"`
}

type FeedAuthor struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Username   *string   `json:"username"`
	Image      *string   `json:"image"`
	TotalLikes int64     `json:"total_likes"`
	Rank       *int      `json:"rank"` // nil: outside the leaderboard
}

type FeedPost struct {
	ID            uuid.UUID  `json:"id"`
	Content       string     `json:"content"`
	CreatedAt     time.Time  `json:"created_at"`
	LikesCount    int64      `json:"likes_count"`
	CommentsCount int64      `json:"comments_count"`
	IsLiked       bool       `json:"is_liked"`
	Author        FeedAuthor `json:"author"`
}

func (s *FeedService) CreatePost(ctx context.Context, viewer Viewer, content string) (*models.Post, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}

	content, err := normalizeText("content", content, MaxPostLength)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByID(ctx, viewer.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}

	post := &models.Post{
		UserID:    viewer.UserID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Posts().Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	publishEvent(ctx, s.producer, s.logger, viewer.UserID.String(), queue.EventPostCreated, queue.PostEventData{
		PostID: post.ID.String(),
		UserID: viewer.UserID.String(),
	})

	s.logger.WithFields(logrus.Fields{
		"post_id": post.ID,
		"user_id": viewer.UserID,
	}).Info("Post created successfully")

	return post, nil
}

// GetFeed returns one page of posts, newest first, with each author's like
// total and rank and whether the viewer liked the post.
func (s *FeedService) GetFeed(ctx context.Context, viewer Viewer, page, pageSize int) ([]*FeedPost, error) {
	page, pageSize = s.normalizePage(page, pageSize)
	if page-1 > math.MaxInt/pageSize {
		return []*FeedPost{}, nil
	}

	posts, err := s.store.Posts().ListRecent(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	if len(posts) == 0 {
		return []*FeedPost{}, nil
	}

	liked := make(map[uuid.UUID]bool)
	if viewer.Authenticated() {
		ids := make([]uuid.UUID, len(posts))
		for i, p := range posts {
			ids[i] = p.ID
		}
		likedIDs, err := s.store.Likes().LikedPostIDs(ctx, viewer.UserID, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to get like status: %w", err)
		}
		for _, id := range likedIDs {
			liked[id] = true
		}
	}

	var authorIDs []uuid.UUID
	for _, p := range posts {
		if hasAuthor(p) {
			authorIDs = append(authorIDs, p.UserID)
		}
	}

	standings, err := s.leaderboard.Standings(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	feed := make([]*FeedPost, len(posts))
	for i, p := range posts {
		item := newFeedPost(p)
		item.IsLiked = liked[p.ID]
		if hasAuthor(p) {
			standing := standings[p.UserID]
			item.Author.TotalLikes = standing.TotalLikes
			item.Author.Rank = standing.Rank
		}
		feed[i] = item
	}

	return feed, nil
}

// DeletePost removes the viewer's post together with its likes and comments.
func (s *FeedService) DeletePost(ctx context.Context, viewer Viewer, postID string) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}

	postUUID, err := parseID("post", postID)
	if err != nil {
		return err
	}

	var likes, comments int64
	err = s.store.Transaction(ctx, func(tx Store) error {
		post, err := tx.Posts().GetByID(ctx, postUUID)
		if err != nil {
			return fmt.Errorf("failed to get post: %w", err)
		}
		if post == nil {
			return fmt.Errorf("%w: post", ErrNotFound)
		}
		if post.UserID != viewer.UserID {
			return ErrForbidden
		}

		if likes, err = tx.Likes().DeleteByPostID(ctx, postUUID); err != nil {
			return err
		}
		if comments, err = tx.Comments().DeleteByPostID(ctx, postUUID); err != nil {
			return err
		}
		return tx.Posts().Delete(ctx, postUUID)
	})
	if err != nil {
		return err
	}

	publishEvent(ctx, s.producer, s.logger, viewer.UserID.String(), queue.EventPostDeleted, queue.PostEventData{
		PostID:   postID,
		UserID:   viewer.UserID.String(),
		Likes:    likes,
		Comments: comments,
	})

	s.logger.WithFields(logrus.Fields{
		"post_id":  postID,
		"user_id":  viewer.UserID,
		"likes":    likes,
		"comments": comments,
	}).Info("Post deleted successfully")

	return nil
}

func (s *FeedService) normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.config.DefaultPageSize
	}
	if pageSize > s.config.MaxPageSize {
		pageSize = s.config.MaxPageSize
	}
	return page, pageSize
}

func hasAuthor(p *models.Post) bool {
	return p.User.ID != uuid.Nil
}

func newFeedPost(p *models.Post) *FeedPost {
	item := &FeedPost{
		ID:            p.ID,
		Content:       p.Content,
		CreatedAt:     p.CreatedAt,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		Author: FeedAuthor{
			ID:   p.UserID,
			Name: unknownAuthorName,
		},
	}
	if hasAuthor(p) {
		item.Author.Name = p.User.Name
		item.Author.Username = p.User.Username
		item.Author.Image = p.User.Image
	}
	return item
}
