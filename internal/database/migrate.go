package database

import (
	"fmt"

	"messenger/internal/models"
	"messenger/internal/observability"

	"gorm.io/gorm"
)

// AllModels returns every model that AutoMigrate manages.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Friendship{},
		&models.FriendRequest{},
		&models.MessageRoom{},
		&models.RoomMember{},
		&models.Message{},
	}
}

// Migrate creates or updates the schema for AllModels.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	observability.Logger.Info("Database migration completed")
	return nil
}
