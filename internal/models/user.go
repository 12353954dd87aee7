// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents an account. Friend edges live in Friendship.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email     string    `gorm:"index;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Avatar    string    `json:"avatar"`
	AvatarID  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicUser is the profile other users are allowed to see.
type PublicUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Public strips everything but the public profile.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// Friendship is one direction of a symmetric friendship. Both directions
// are always written and deleted together.
type Friendship struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	FriendID  uint      `gorm:"primaryKey;index" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`

	Friend User `gorm:"foreignKey:FriendID" json:"friend,omitempty"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "user_friends"
}
