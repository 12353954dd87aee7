package repository

import (
	"context"
	"errors"
	"time"

	"messenger/internal/database"
	"messenger/internal/models"
	"messenger/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomRepository defines persistence for message rooms and their membership.
type RoomRepository interface {
	Create(ctx context.Context, room *models.MessageRoom, memberIDs []uint) error
	GetByID(ctx context.Context, id uint) (*models.MessageRoom, error)
	FindByPairKey(ctx context.Context, pairKey string) (*models.MessageRoom, error)
	ListForUser(ctx context.Context, userID uint) ([]models.MessageRoom, error)
	LastMessages(ctx context.Context, roomIDs []uint) (map[uint]models.Message, error)
	AddMembers(ctx context.Context, roomID uint, userIDs []uint) error
	RemoveMember(ctx context.Context, roomID, userID uint) (dissolved bool, err error)
	Rename(ctx context.Context, roomID uint, name string) error
}

type roomRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db, log: observability.NewRepoLogger("message_rooms")}
}

func preloadMembers(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC, user_id ASC")
		}).
		Preload("Members.User")
}

// Create inserts the room and its members. A concurrent create of the same
// private pair fails on the unique pair_key and comes back as DuplicateRoom.
func (r *roomRepository) Create(ctx context.Context, room *models.MessageRoom, memberIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(room).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateRoom()
			}
			return err
		}
		return insertMembers(tx, room.ID, memberIDs)
	})
	if err != nil {
		return wrapError(ctx, r.log, err, "create")
	}
	r.log.LogCreate(ctx, "room_id", room.ID, "kind", room.Kind, "members", len(memberIDs))
	return nil
}

// insertMembers stamps joined_at in slice order so display order is stable.
func insertMembers(tx *gorm.DB, roomID uint, userIDs []uint) error {
	now := time.Now().UTC()
	for i, uid := range userIDs {
		member := models.RoomMember{
			RoomID:   roomID,
			UserID:   uid,
			JoinedAt: now.Add(time.Duration(i) * time.Millisecond),
		}
		if err := tx.Omit(clause.Associations).Create(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.NewConflictError(models.CodeAlreadyMember, "User is already a member of this message room")
			}
			return err
		}
	}
	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id uint) (*models.MessageRoom, error) {
	var room models.MessageRoom
	if err := preloadMembers(r.db.WithContext(ctx)).First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message room", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &room, nil
}

// FindByPairKey returns the private room of a pair, or nil.
func (r *roomRepository) FindByPairKey(ctx context.Context, pairKey string) (*models.MessageRoom, error) {
	var room models.MessageRoom
	if err := r.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &room, nil
}

func (r *roomRepository) ListForUser(ctx context.Context, userID uint) ([]models.MessageRoom, error) {
	var rooms []models.MessageRoom
	memberOf := r.db.Model(&models.RoomMember{}).Select("room_id").Where("user_id = ?", userID)
	if err := preloadMembers(r.db.WithContext(ctx)).
		Where("id IN (?)", memberOf).
		Order("id ASC").
		Find(&rooms).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

// LastMessages returns the newest message of each room that has one.
func (r *roomRepository) LastMessages(ctx context.Context, roomIDs []uint) (map[uint]models.Message, error) {
	out := make(map[uint]models.Message, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}
	// newest by created_at, the order ListByRoom uses; id breaks ties
	var msgs []models.Message
	if err := r.db.WithContext(ctx).
		Table("messages AS m").
		Select("m.*").
		Where("m.room_id IN ?", roomIDs).
		Where(`NOT EXISTS (
			SELECT 1 FROM messages n
			WHERE n.room_id = m.room_id
			AND (n.created_at > m.created_at OR (n.created_at = m.created_at AND n.id > m.id))
		)`).
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, m := range msgs {
		out[m.RoomID] = m
	}
	return out, nil
}

// AddMembers appends users to a room in one transaction. A private room
// that grows past two members no longer stands for its pair and loses its
// pair_key.
func (r *roomRepository) AddMembers(ctx context.Context, roomID uint, userIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(tx, roomID)
		if err != nil {
			return err
		}
		if err := insertMembers(tx, roomID, userIDs); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.RoomMember{}).Where("room_id = ?", roomID).Count(&count).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{"updated_at": time.Now()}
		if room.PairKey != nil && count > 2 {
			updates["pair_key"] = nil
		}
		return tx.Model(&models.MessageRoom{}).Where("id = ?", roomID).Updates(updates).Error
	})
	if err != nil {
		return wrapError(ctx, r.log, err, "add_members")
	}
	r.log.LogUpdate(ctx, "room_id", roomID, "added", len(userIDs))
	return nil
}

// RemoveMember takes userID out of the room. When a single member would be
// left the room is dissolved in the same transaction.
func (r *roomRepository) RemoveMember(ctx context.Context, roomID, userID uint) (bool, error) {
	dissolved := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockRoom(tx, roomID); err != nil {
			return err
		}

		result := tx.Where("room_id = ? AND user_id = ?", roomID, userID).Delete(&models.RoomMember{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotMemberError(roomID)
		}

		var remaining int64
		if err := tx.Model(&models.RoomMember{}).Where("room_id = ?", roomID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining <= 1 {
			dissolved = true
			return dissolveRoom(tx, roomID)
		}
		return nil
	})
	if err != nil {
		return false, wrapError(ctx, r.log, err, "remove_member")
	}
	r.log.LogDelete(ctx, "room_id", roomID, "user_id", userID, "dissolved", dissolved)
	return dissolved, nil
}

// dissolveRoom deletes the room with its messages and memberships. Afterwards
// nothing references roomID.
func dissolveRoom(tx *gorm.DB, roomID uint) error {
	if err := tx.Where("room_id = ?", roomID).Delete(&models.Message{}).Error; err != nil {
		return err
	}
	if err := tx.Where("room_id = ?", roomID).Delete(&models.RoomMember{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.MessageRoom{}, roomID).Error
}

func (r *roomRepository) Rename(ctx context.Context, roomID uint, name string) error {
	result := r.db.WithContext(ctx).Model(&models.MessageRoom{}).Where("id = ?", roomID).Update("name", name)
	if result.Error != nil {
		return wrapError(ctx, r.log, result.Error, "rename")
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Message room", roomID)
	}
	r.log.LogUpdate(ctx, "room_id", roomID, "field", "name")
	return nil
}

// lockRoom loads the room row, locked on postgres.
func lockRoom(tx *gorm.DB, roomID uint) (*models.MessageRoom, error) {
	var room models.MessageRoom
	if err := database.ForUpdate(tx).First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message room", roomID)
		}
		return nil, err
	}
	return &room, nil
}

func duplicateRoom() *models.AppError {
	return models.NewConflictError(models.CodeDuplicateRoom, "A private message room already exists for these users")
}
