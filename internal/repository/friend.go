package repository

import (
	"context"
	"errors"

	"messenger/internal/database"
	"messenger/internal/models"
	"messenger/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateRequest is returned by CreateRequest when the pair already has a pending request.
var ErrDuplicateRequest = errors.New("pending friend request already exists for pair")

// ErrAlreadyFriends is returned by CreateRequest when the pair became friends
// before the request could be stored.
var ErrAlreadyFriends = errors.New("users are already friends")

// FriendRepository defines persistence for friend requests and friendships.
type FriendRepository interface {
	CreateRequest(ctx context.Context, req *models.FriendRequest) error
	GetRequest(ctx context.Context, id uint) (*models.FriendRequest, error)
	FindPendingBetween(ctx context.Context, userA, userB uint) (*models.FriendRequest, error)
	ListReceived(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListSent(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	AcceptRequest(ctx context.Context, id uint) error
	DeleteRequest(ctx context.Context, id uint) error
	AreFriends(ctx context.Context, userA, userB uint) (bool, error)
	ListFriends(ctx context.Context, userID uint) ([]models.User, error)
	RemoveFriendship(ctx context.Context, userA, userB uint) error
}

type friendRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db, log: observability.NewRepoLogger("friend_requests")}
}

func (r *friendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) error {
	// The insert goes first: on postgres it waits on the pair index for an
	// in-flight accept, so the edge check below sees that accept's commit.
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(req).Error; err != nil {
			return err
		}
		var edges int64
		if err := tx.Model(&models.Friendship{}).
			Where("user_id = ? AND friend_id = ?", req.SenderID, req.RecipientID).
			Count(&edges).Error; err != nil {
			return err
		}
		if edges > 0 {
			return ErrAlreadyFriends
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyFriends):
			return err
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return ErrDuplicateRequest
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, "request_id", req.ID, "sender_id", req.SenderID, "recipient_id", req.RecipientID)
	return nil
}

func (r *friendRepository) GetRequest(ctx context.Context, id uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.WithContext(ctx).Preload("Sender").Preload("Recipient").First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Friend request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

// FindPendingBetween returns the pending request of the unordered pair, or nil.
func (r *friendRepository) FindPendingBetween(ctx context.Context, userA, userB uint) (*models.FriendRequest, error) {
	low, high := models.OrderedPair(userA, userB)
	var req models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("pair_low = ? AND pair_high = ?", low, high).
		First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *friendRepository) ListReceived(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ?", userID).
		Preload("Sender").
		Order("created_at DESC, id DESC").
		Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

func (r *friendRepository) ListSent(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("sender_id = ?", userID).
		Preload("Recipient").
		Order("created_at DESC, id DESC").
		Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

// AcceptRequest writes both friend edges and deletes the request in one
// transaction. If another accept consumed the request first, the
// transaction rolls back with NotFound.
func (r *friendRepository) AcceptRequest(ctx context.Context, id uint) error {
	defer observability.TrackQuery("accept", "friend_requests")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.FriendRequest
		if err := database.ForUpdate(tx).First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Friend request", id)
			}
			return err
		}

		edges := []models.Friendship{
			{UserID: req.SenderID, FriendID: req.RecipientID},
			{UserID: req.RecipientID, FriendID: req.SenderID},
		}
		for i := range edges {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Omit(clause.Associations).
				Create(&edges[i]).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&models.FriendRequest{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Friend request", id)
		}
		return nil
	})
	if err != nil {
		return wrapError(ctx, r.log, err, "accept")
	}
	r.log.LogDelete(ctx, "request_id", id, "outcome", "accepted")
	return nil
}

func (r *friendRepository) DeleteRequest(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.FriendRequest{}, id)
	if result.Error != nil {
		return wrapError(ctx, r.log, result.Error, "delete")
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Friend request", id)
	}
	r.log.LogDelete(ctx, "request_id", id)
	return nil
}

func (r *friendRepository) AreFriends(ctx context.Context, userA, userB uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userA, userB).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *friendRepository) ListFriends(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN user_friends f ON f.friend_id = users.id").
		Where("f.user_id = ?", userID).
		Order("users.username ASC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// RemoveFriendship deletes both directions together.
func (r *friendRepository) RemoveFriendship(ctx context.Context, userA, userB uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", userA, userB, userB, userA).
			Delete(&models.Friendship{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundMessage("Users are not friends")
		}
		return nil
	})
	if err != nil {
		return wrapError(ctx, r.log, err, "remove_friendship")
	}
	r.log.LogDelete(ctx, "user_id", userA, "friend_id", userB)
	return nil
}
