// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"messenger/internal/cache"
	"messenger/internal/models"
	"messenger/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetWithPassword(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, digest string) error
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

// GetByID reads through the Redis profile cache. The password digest is
// never cached, so the returned user has an empty Password.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var profile cachedProfile
	err := cache.CacheAside(ctx, cache.UserKey(id), &profile, cache.UserTTL, func() error {
		found, err := r.GetWithPassword(ctx, id)
		if err != nil {
			return err
		}
		profile = toCachedProfile(*found)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u := profile.toUser()
	return &u, nil
}

// GetWithPassword bypasses the cache and loads the full row.
func (r *userRepository) GetWithPassword(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByUsername returns nil, nil when no user has that name.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByUsernames returns the users that exist among usernames, in no particular order.
func (r *userRepository) GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	var users []models.User
	if len(usernames) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("username IN ?", usernames).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return usernameTaken()
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, "user_id", user.ID)
	return nil
}

// UpdateProfile writes the editable profile columns and drops the cached copy.
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(user).
		Select("username", "email", "avatar", "avatar_id").
		Updates(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return usernameTaken()
		}
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	r.log.LogUpdate(ctx, "user_id", user.ID)
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, digest string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", digest)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "update")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	r.log.LogUpdate(ctx, "user_id", id, "field", "password")
	return nil
}

func usernameTaken() *models.AppError {
	return models.NewConflictError(models.CodeUsernameTaken, "Username is already taken")
}

// cachedProfile is the cache representation of a user. AvatarID is hidden
// from API responses but the cache must keep it.
type cachedProfile struct {
	models.User
	AvatarID string `json:"avatar_id"`
}

func toCachedProfile(u models.User) cachedProfile {
	u.Password = ""
	return cachedProfile{User: u, AvatarID: u.AvatarID}
}

func (c cachedProfile) toUser() models.User {
	u := c.User
	u.AvatarID = c.AvatarID
	return u
}
