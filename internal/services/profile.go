package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ponderdome/ponderdome/internal/ranks"
	"github.com/ponderdome/ponderdome/pkg/logger"
	"github.com/ponderdome/ponderdome/pkg/queue"
	"github.com/sirupsen/logrus"
)

type ProfileService struct {
	store    Store
	producer EventPublisher
	logger   *logger.Logger
}

func NewProfileService(store Store, producer EventPublisher, logger *logger.Logger) *ProfileService {
	return &ProfileService{
		store:    store,
		producer: producer,
		logger:   logger,
	}
}

type UpdateProfileRequest struct {
	Bio string `json:"bio"`
}

type NextRank struct {
	Title          string `json:"title"`
	LikesRemaining int64  `json:"likes_remaining"`
}

type ProfileStats struct {
	TotalPosts      int64      `json:"total_posts"`
	TotalLikes      int64      `json:"total_likes"`
	Rank            ranks.Tier `json:"rank"`
	RankDescription string     `json:"rank_description"`
	NextRank        *NextRank  `json:"next_rank"`
	PopularPost     *FeedPost  `json:"popular_post"`
	Bio             string     `json:"bio"`
}

// GetUserStats summarises a user's own posts. The totals are summed here
// rather than read off the leaderboard.
func (s *ProfileService) GetUserStats(ctx context.Context, userID string) (*ProfileStats, error) {
	userUUID, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByID(ctx, userUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}

	posts, err := s.store.Posts().ListByUserID(ctx, userUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user posts: %w", err)
	}

	stats := &ProfileStats{
		TotalPosts: int64(len(posts)),
		Bio:        user.Bio,
	}
	for _, p := range posts {
		stats.TotalLikes += p.LikesCount
	}

	stats.Rank = ranks.For(stats.TotalLikes)
	stats.RankDescription = ranks.Description(stats.Rank.Title)
	if next, remaining, ok := ranks.Next(stats.TotalLikes); ok {
		stats.NextRank = &NextRank{Title: next.Title, LikesRemaining: remaining}
	}

	popular, err := s.store.Posts().MostLiked(ctx, userUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular post: %w", err)
	}
	if popular != nil {
		popular.User = *user
		item := newFeedPost(popular)
		item.Author.TotalLikes = stats.TotalLikes
		stats.PopularPost = item
	}

	return stats, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, viewer Viewer, bio string) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}

	bio = strings.TrimSpace(bio)
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return fmt.Errorf("%w: bio exceeds %d characters", ErrValidation, MaxBioLength)
	}

	found, err := s.store.Users().UpdateBio(ctx, viewer.UserID, bio)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: user", ErrNotFound)
	}

	publishEvent(ctx, s.producer, s.logger, viewer.UserID.String(), queue.EventProfileUpdated, queue.UserEventData{
		UserID: viewer.UserID.String(),
	})

	s.logger.WithFields(logrus.Fields{
		"user_id": viewer.UserID,
	}).Info("Profile updated successfully")

	return nil
}
