package repository

import (
	"context"

	"messenger/internal/models"
	"messenger/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository defines persistence for a room's conversation log.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByRoom(ctx context.Context, roomID uint) ([]models.Message, error)
}

type messageRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db, log: observability.NewRepoLogger("messages")}
}

// Create checks membership and inserts in one transaction, with the room
// locked so the message cannot land in a room that is being dissolved.
func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	defer observability.TrackQuery("create", "messages")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockRoom(tx, msg.RoomID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.RoomMember{}).
			Where("room_id = ? AND user_id = ?", msg.RoomID, msg.AuthorID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return models.NewNotMemberError(msg.RoomID)
		}

		if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.MessageRoom{}).Where("id = ?", msg.RoomID).Update("updated_at", msg.CreatedAt).Error
	})
	if err != nil {
		return wrapError(ctx, r.log, err, "create")
	}
	r.log.LogCreate(ctx, "message_id", msg.ID, "room_id", msg.RoomID)
	return nil
}

// ListByRoom returns the whole log, oldest first, with authors loaded.
func (r *messageRepository) ListByRoom(ctx context.Context, roomID uint) ([]models.Message, error) {
	var msgs []models.Message
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Preload("Author").
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}
