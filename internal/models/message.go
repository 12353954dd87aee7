package models

import (
	"time"
)

// Message is an immutable entry in a room's conversation log. Text is
// stored escaped and decoded on the way out.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"not null;index:idx_messages_room_created,priority:1" json:"room_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index:idx_messages_room_created,priority:2" json:"created_at"`

	Author *User `gorm:"foreignKey:AuthorID" json:"-"`
}

// MessageAuthor is the author of a message as rendered to clients. Only ID
// is set when the author is not expanded.
type MessageAuthor struct {
	ID       uint   `json:"id"`
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// MessageView is a message with decoded text and a relative-age label.
type MessageView struct {
	ID        uint          `json:"id"`
	RoomID    uint          `json:"room_id"`
	Text      string        `json:"message"`
	User      MessageAuthor `json:"user"`
	CreatedAt string        `json:"created_at"`
}
