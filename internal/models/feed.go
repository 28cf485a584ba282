package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a single thought. LikesCount and CommentsCount mirror the number of
// Like and Comment rows that reference it.
type Post struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID        uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Content       string    `json:"content" gorm:"type:varchar(280);not null"`
	LikesCount    int64     `json:"likes_count" gorm:"not null;default:0"`
	CommentsCount int64     `json:"comments_count" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at" gorm:"index"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// Like is keyed by the (post, user) pair so a user can like a post at most once.
type Like struct {
	PostID    uuid.UUID `json:"post_id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PostID    uuid.UUID `json:"post_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// PostCounters holds the denormalized counters of one post.
type PostCounters struct {
	LikesCount    int64
	CommentsCount int64
}

// AuthorTotals is one row of the per-author like aggregate.
type AuthorTotals struct {
	UserID     uuid.UUID
	TotalLikes int64
	TotalPosts int64
}

func (Post) TableName() string {
	return "posts"
}

func (Like) TableName() string {
	return "likes"
}

func (Comment) TableName() string {
	return "comments"
}
