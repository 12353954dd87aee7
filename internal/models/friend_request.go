package models

import (
	"time"

	"gorm.io/gorm"
)

// FriendRequest is a pending, directional proposal of friendship.
// Accepting, rejecting or cancelling it deletes the row.
type FriendRequest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderID    uint      `gorm:"not null;index" json:"sender_id"`
	RecipientID uint      `gorm:"not null;index" json:"recipient_id"`
	PairLow     uint      `gorm:"not null;uniqueIndex:idx_friend_request_pair" json:"-"`
	PairHigh    uint      `gorm:"not null;uniqueIndex:idx_friend_request_pair" json:"-"`
	CreatedAt   time.Time `json:"created_at"`

	Sender    User `gorm:"foreignKey:SenderID" json:"-"`
	Recipient User `gorm:"foreignKey:RecipientID" json:"-"`
}

// BeforeCreate normalises the unordered pair so the unique index covers
// both directions.
func (r *FriendRequest) BeforeCreate(_ *gorm.DB) error {
	r.PairLow, r.PairHigh = OrderedPair(r.SenderID, r.RecipientID)
	return nil
}

// Counterpart returns the user on the other side of the request from userID.
func (r *FriendRequest) Counterpart(userID uint) User {
	if r.SenderID == userID {
		return r.Recipient
	}
	return r.Sender
}

// OrderedPair returns a and b in ascending order.
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// FriendRequestView is a pending request as listed to one of its parties.
type FriendRequestView struct {
	ID        uint       `json:"id"`
	User      PublicUser `json:"user"`
	CreatedAt time.Time  `json:"created_at"`
}
