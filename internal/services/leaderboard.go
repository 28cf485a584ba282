package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ponderdome/ponderdome/internal/models"
	"github.com/ponderdome/ponderdome/pkg/logger"
)

const unknownAuthorName = "Unknown"

// LeaderboardEntry is a ranked author. It is rebuilt on every read.
type LeaderboardEntry struct {
	UserID     uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Username   *string   `json:"username"`
	Image      *string   `json:"image"`
	TotalLikes int64     `json:"total_likes"`
	TotalPosts int64     `json:"total_posts"`
	Rank       int       `json:"rank"`
}

// AuthorStanding is an author's like total and leaderboard position. Rank is
// nil when the author is outside the leaderboard.
type AuthorStanding struct {
	TotalLikes int64
	Rank       *int
}

type LeaderboardService struct {
	store        Store
	defaultLimit int
	logger       *logger.Logger
}

func NewLeaderboardService(store Store, defaultLimit int, logger *logger.Logger) *LeaderboardService {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &LeaderboardService{
		store:        store,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// GetLeaderboard returns the top authors by total likes. Ranks run 1..N
// without gaps; equal totals are ordered by author id.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	totals, err := s.store.Posts().AggregateByAuthor(ctx, limit)
	if err != nil {
		s.logger.WithError(err).WithField("limit", limit).Error("Failed to compute leaderboard")
		return nil, fmt.Errorf("failed to compute leaderboard: %w", err)
	}
	if len(totals) == 0 {
		return []LeaderboardEntry{}, nil
	}

	ids := make([]uuid.UUID, len(totals))
	for i, t := range totals {
		ids[i] = t.UserID
	}

	users, err := s.store.Users().GetByIDs(ctx, ids)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load leaderboard users")
		return nil, fmt.Errorf("failed to load leaderboard users: %w", err)
	}

	return rankEntries(totals, indexUsers(users)), nil
}

// Standings resolves the like total and rank of each author. Authors in the
// leaderboard get their position; the rest get their total and a nil rank.
func (s *LeaderboardService) Standings(ctx context.Context, authorIDs []uuid.UUID) (map[uuid.UUID]AuthorStanding, error) {
	top, err := s.store.Posts().AggregateByAuthor(ctx, s.defaultLimit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to compute author standings")
		return nil, fmt.Errorf("failed to compute leaderboard: %w", err)
	}

	standings := make(map[uuid.UUID]AuthorStanding, len(top)+len(authorIDs))
	for i, t := range top {
		rank := i + 1
		standings[t.UserID] = AuthorStanding{TotalLikes: t.TotalLikes, Rank: &rank}
	}

	var missing []uuid.UUID
	seen := make(map[uuid.UUID]bool, len(authorIDs))
	for _, id := range authorIDs {
		if _, ok := standings[id]; ok || seen[id] {
			continue
		}
		seen[id] = true
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return standings, nil
	}

	extra, err := s.store.Posts().AggregateForAuthors(ctx, missing)
	if err != nil {
		s.logger.WithError(err).WithField("authors", len(missing)).Error("Failed to compute author totals")
		return nil, fmt.Errorf("failed to compute author totals: %w", err)
	}
	for _, t := range extra {
		standings[t.UserID] = AuthorStanding{TotalLikes: t.TotalLikes}
	}
	for _, id := range missing {
		if _, ok := standings[id]; !ok {
			standings[id] = AuthorStanding{}
		}
	}

	return standings, nil
}

func rankEntries(totals []models.AuthorTotals, users map[uuid.UUID]*models.User) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, len(totals))
	for i, t := range totals {
		entry := LeaderboardEntry{
			UserID:     t.UserID,
			Name:       unknownAuthorName,
			TotalLikes: t.TotalLikes,
			TotalPosts: t.TotalPosts,
			Rank:       i + 1,
		}
		if u, ok := users[t.UserID]; ok {
			entry.Name = u.Name
			entry.Username = u.Username
			entry.Image = u.Image
		}
		entries[i] = entry
	}
	return entries
}

func indexUsers(users []*models.User) map[uuid.UUID]*models.User {
	byID := make(map[uuid.UUID]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID
}
