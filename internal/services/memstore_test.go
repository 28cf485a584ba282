package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ponderdome/ponderdome/internal/models"
	"gorm.io/gorm"
)

// memStore is an in-memory Store for service tests. Transaction snapshots the
// tables and restores them when fn fails.
type memStore struct {
	users    map[uuid.UUID]models.User
	posts    map[uuid.UUID]models.Post
	likes    map[likeKey]models.Like
	comments map[uuid.UUID]models.Comment
	clock    time.Time
}

type likeKey struct {
	postID uuid.UUID
	userID uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]models.User),
		posts:    make(map[uuid.UUID]models.Post),
		likes:    make(map[likeKey]models.Like),
		comments: make(map[uuid.UUID]models.Comment),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) Users() UserStore       { return memUsers{m} }
func (m *memStore) Posts() PostStore       { return memPosts{m} }
func (m *memStore) Likes() LikeStore       { return memLikes{m} }
func (m *memStore) Comments() CommentStore { return memComments{m} }

func (m *memStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	users := copyMap(m.users)
	posts := copyMap(m.posts)
	likes := copyMap(m.likes)
	comments := copyMap(m.comments)

	if err := fn(m); err != nil {
		m.users, m.posts, m.likes, m.comments = users, posts, likes, comments
		return err
	}
	return nil
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// tick hands out strictly increasing timestamps so ordering is deterministic.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// seed helpers

func (m *memStore) addUser(name string) *models.User {
	username := name
	u := models.User{
		ID:       uuid.New(),
		Name:     name,
		Username: &username,
		Email:    name + "@example.com",
	}
	m.users[u.ID] = u
	return &u
}

func (m *memStore) addPost(author uuid.UUID, content string, likes int64) *models.Post {
	p := models.Post{
		ID:         uuid.New(),
		UserID:     author,
		Content:    content,
		LikesCount: likes,
		CreatedAt:  m.tick(),
	}
	m.posts[p.ID] = p
	return &p
}

func (m *memStore) withUser(p models.Post) *models.Post {
	if u, ok := m.users[p.UserID]; ok {
		p.User = u
	}
	return &p
}

type memUsers struct{ m *memStore }

func (s memUsers) Create(ctx context.Context, user *models.User) error {
	for _, u := range s.m.users {
		if u.Email == user.Email || (u.Username != nil && user.Username != nil && *u.Username == *user.Username) {
			return fmt.Errorf("failed to create user: %w", gorm.ErrDuplicatedKey)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = s.m.tick()
	s.m.users[user.ID] = *user
	return nil
}

func (s memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s memUsers) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	var users []*models.User
	for _, id := range ids {
		if u, ok := s.m.users[id]; ok {
			u := u
			users = append(users, &u)
		}
	}
	return users, nil
}

func (s memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range s.m.users {
		if u.Username != nil && *u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (s memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (s memUsers) UpdateBio(ctx context.Context, id uuid.UUID, bio string) (bool, error) {
	u, ok := s.m.users[id]
	if !ok {
		return false, nil
	}
	u.Bio = bio
	s.m.users[id] = u
	return true, nil
}

type memPosts struct{ m *memStore }

func (s memPosts) Create(ctx context.Context, post *models.Post) error {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	post.CreatedAt = s.m.tick()
	s.m.posts[post.ID] = *post
	return nil
}

func (s memPosts) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, ok := s.m.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s memPosts) sorted(filter func(models.Post) bool) []models.Post {
	var posts []models.Post
	for _, p := range s.m.posts {
		if filter == nil || filter(p) {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (s memPosts) ListRecent(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	posts := s.sorted(nil)
	result := []*models.Post{}
	for i := offset; i < len(posts) && i < offset+limit; i++ {
		result = append(result, s.m.withUser(posts[i]))
	}
	return result, nil
}

func (s memPosts) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Post, error) {
	var result []*models.Post
	for _, p := range s.sorted(func(p models.Post) bool { return p.UserID == userID }) {
		p := p
		result = append(result, &p)
	}
	return result, nil
}

func (s memPosts) MostLiked(ctx context.Context, userID uuid.UUID) (*models.Post, error) {
	var best *models.Post
	for _, p := range s.m.posts {
		if p.UserID != userID {
			continue
		}
		if best == nil || p.LikesCount > best.LikesCount ||
			(p.LikesCount == best.LikesCount && p.CreatedAt.Before(best.CreatedAt)) {
			best = s.m.withUser(p)
		}
	}
	return best, nil
}

func (s memPosts) totals() map[uuid.UUID]*models.AuthorTotals {
	byAuthor := make(map[uuid.UUID]*models.AuthorTotals)
	for _, p := range s.m.posts {
		t, ok := byAuthor[p.UserID]
		if !ok {
			t = &models.AuthorTotals{UserID: p.UserID}
			byAuthor[p.UserID] = t
		}
		t.TotalLikes += p.LikesCount
		t.TotalPosts++
	}
	return byAuthor
}

func (s memPosts) AggregateByAuthor(ctx context.Context, limit int) ([]models.AuthorTotals, error) {
	var totals []models.AuthorTotals
	for _, t := range s.totals() {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].TotalLikes != totals[j].TotalLikes {
			return totals[i].TotalLikes > totals[j].TotalLikes
		}
		return totals[i].UserID.String() < totals[j].UserID.String()
	})
	if len(totals) > limit {
		totals = totals[:limit]
	}
	return totals, nil
}

func (s memPosts) AggregateForAuthors(ctx context.Context, userIDs []uuid.UUID) ([]models.AuthorTotals, error) {
	all := s.totals()
	var totals []models.AuthorTotals
	for _, id := range userIDs {
		if t, ok := all[id]; ok {
			totals = append(totals, *t)
		}
	}
	return totals, nil
}

func (s memPosts) AdjustLikesCount(ctx context.Context, postID uuid.UUID, delta int64) error {
	p := s.m.posts[postID]
	p.LikesCount = max(p.LikesCount+delta, 0)
	s.m.posts[postID] = p
	return nil
}

func (s memPosts) AdjustCommentsCount(ctx context.Context, postID uuid.UUID, delta int64) error {
	p := s.m.posts[postID]
	p.CommentsCount = max(p.CommentsCount+delta, 0)
	s.m.posts[postID] = p
	return nil
}

func (s memPosts) RecountCounters(ctx context.Context, postID uuid.UUID) (*models.PostCounters, error) {
	p, ok := s.m.posts[postID]
	if !ok {
		return nil, nil
	}
	likes, _ := memLikes{s.m}.CountByPostID(ctx, postID)
	comments, _ := memComments{s.m}.CountByPostID(ctx, postID)
	if p.LikesCount == likes && p.CommentsCount == comments {
		return nil, nil
	}
	p.LikesCount = likes
	p.CommentsCount = comments
	s.m.posts[postID] = p
	return &models.PostCounters{LikesCount: likes, CommentsCount: comments}, nil
}

func (s memPosts) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.m.posts, id)
	return nil
}

type memLikes struct{ m *memStore }

func (s memLikes) Create(ctx context.Context, like *models.Like) (bool, error) {
	key := likeKey{postID: like.PostID, userID: like.UserID}
	if _, ok := s.m.likes[key]; ok {
		return false, nil
	}
	s.m.likes[key] = *like
	return true, nil
}

func (s memLikes) Delete(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	key := likeKey{postID: postID, userID: userID}
	if _, ok := s.m.likes[key]; !ok {
		return false, nil
	}
	delete(s.m.likes, key)
	return true, nil
}

func (s memLikes) Exists(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	_, ok := s.m.likes[likeKey{postID: postID, userID: userID}]
	return ok, nil
}

func (s memLikes) LikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) ([]uuid.UUID, error) {
	var liked []uuid.UUID
	for _, id := range postIDs {
		if _, ok := s.m.likes[likeKey{postID: id, userID: userID}]; ok {
			liked = append(liked, id)
		}
	}
	return liked, nil
}

func (s memLikes) CountByPostID(ctx context.Context, postID uuid.UUID) (int64, error) {
	var n int64
	for k := range s.m.likes {
		if k.postID == postID {
			n++
		}
	}
	return n, nil
}

func (s memLikes) DeleteByPostID(ctx context.Context, postID uuid.UUID) (int64, error) {
	var n int64
	for k := range s.m.likes {
		if k.postID == postID {
			delete(s.m.likes, k)
			n++
		}
	}
	return n, nil
}

type memComments struct{ m *memStore }

func (s memComments) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	comment.CreatedAt = s.m.tick()
	s.m.comments[comment.ID] = *comment
	return nil
}

func (s memComments) ListByPostID(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	var comments []*models.Comment
	for _, c := range s.m.comments {
		if c.PostID != postID {
			continue
		}
		c := c
		if u, ok := s.m.users[c.UserID]; ok {
			c.User = u
		}
		comments = append(comments, &c)
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	return comments, nil
}

func (s memComments) CountByPostID(ctx context.Context, postID uuid.UUID) (int64, error) {
	var n int64
	for _, c := range s.m.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n, nil
}

func (s memComments) DeleteByPostID(ctx context.Context, postID uuid.UUID) (int64, error) {
	var n int64
	for id, c := range s.m.comments {
		if c.PostID == postID {
			delete(s.m.comments, id)
			n++
		}
	}
	return n, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []interface{}
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, value)
	return p.err
}
