package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null"`
	Username  *string   `json:"username" gorm:"uniqueIndex"`
	Email     string    `json:"-" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	Image     *string   `json:"image"`
	Bio       string    `json:"bio" gorm:"type:varchar(150);not null;default:''"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
