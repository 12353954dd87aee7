package models

import (
	"fmt"
	"time"
)

// RoomKind is fixed when a room is created and never re-derived.
type RoomKind string

const (
	// RoomKindPrivate is a room created for exactly two users.
	RoomKindPrivate RoomKind = "private"
	// RoomKindGroup is a room created for three or more users.
	RoomKindGroup RoomKind = "group"
)

// KindForMemberCount derives the kind of a new room from its initial size.
func KindForMemberCount(n int) RoomKind {
	if n == 2 {
		return RoomKindPrivate
	}
	return RoomKindGroup
}

// MessageRoom is a conversation between its members. Name is stored escaped.
type MessageRoom struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:500" json:"name"`
	Kind      RoomKind  `gorm:"type:varchar(10);not null" json:"kind"`
	PairKey   *string   `gorm:"uniqueIndex;size:41" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Members []RoomMember `gorm:"foreignKey:RoomID" json:"-"`
}

// RoomMember records that a user belongs to a room. JoinedAt keeps
// insertion order for display.
type RoomMember struct {
	RoomID   uint      `gorm:"primaryKey" json:"room_id"`
	UserID   uint      `gorm:"primaryKey;index" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// PrivatePairKey identifies the private room of an unordered pair.
func PrivatePairKey(a, b uint) string {
	lo, hi := OrderedPair(a, b)
	return fmt.Sprintf("%d:%d", lo, hi)
}

// MemberIDs returns the member user IDs in join order.
func (r *MessageRoom) MemberIDs() []uint {
	ids := make([]uint, 0, len(r.Members))
	for _, m := range r.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// HasMember reports whether userID is currently in the room.
func (r *MessageRoom) HasMember(userID uint) bool {
	for _, m := range r.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// RoomView is a room with its member profiles, as returned by getRoom.
type RoomView struct {
	ID        uint         `json:"id"`
	Name      string       `json:"name"`
	Kind      RoomKind     `json:"kind"`
	Users     []PublicUser `json:"users"`
	CreatedAt time.Time    `json:"created_at"`
}

// RoomSummary is one entry of a user's room list. Users excludes the requester.
type RoomSummary struct {
	ID              uint         `json:"id"`
	Name            string       `json:"name"`
	Kind            RoomKind     `json:"kind"`
	Users           []PublicUser `json:"users"`
	LastMessage     string       `json:"lastMessage"`
	LastMessageTime int64        `json:"lastMessageTime"`
	LastUpdated     string       `json:"lastUpdated,omitempty"`
}
