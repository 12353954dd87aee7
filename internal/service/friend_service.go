// Package service holds the business rules of friendships, rooms and messages.
package service

import (
	"context"
	"errors"
	"fmt"

	"messenger/internal/models"
	"messenger/internal/observability"
	"messenger/internal/repository"

	"github.com/samber/lo"
)

// FriendService provides friend-request and friendship business logic.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
}

// NewFriendService returns a new FriendService.
func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
	}
}

// SendRequest sends a friend request from userID to the user named toUsername.
func (s *FriendService) SendRequest(ctx context.Context, userID uint, toUsername string) (*models.FriendRequestView, error) {
	target, err := s.userRepo.GetByUsername(ctx, toUsername)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, models.NewNotFoundMessage(fmt.Sprintf("User %s not found", toUsername))
	}
	if target.ID == userID {
		return nil, models.NewSelfRequestError()
	}

	friends, err := s.friendRepo.AreFriends(ctx, userID, target.ID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, models.NewConflictError(models.CodeAlreadyFriends, "You are already friends")
	}

	existing, err := s.friendRepo.FindPendingBetween(ctx, userID, target.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, duplicateRequest(existing, userID)
	}

	req := &models.FriendRequest{SenderID: userID, RecipientID: target.ID}
	if err := s.friendRepo.CreateRequest(ctx, req); err != nil {
		if errors.Is(err, repository.ErrAlreadyFriends) {
			return nil, models.NewConflictError(models.CodeAlreadyFriends, "You are already friends")
		}
		if !errors.Is(err, repository.ErrDuplicateRequest) {
			return nil, err
		}
		// lost a race with a concurrent request for the same pair
		existing, findErr := s.friendRepo.FindPendingBetween(ctx, userID, target.ID)
		if findErr != nil || existing == nil {
			return nil, models.NewConflictError(models.CodeDuplicateRequestSent, "Friend request already sent")
		}
		return nil, duplicateRequest(existing, userID)
	}

	observability.FriendRequestEvents.WithLabelValues("sent").Inc()
	return &models.FriendRequestView{
		ID:        req.ID,
		User:      target.Public(),
		CreatedAt: req.CreatedAt,
	}, nil
}

func duplicateRequest(existing *models.FriendRequest, userID uint) *models.AppError {
	if existing.SenderID == userID {
		return models.NewConflictError(models.CodeDuplicateRequestSent, "Friend request already sent")
	}
	return models.NewConflictError(models.CodeDuplicateRequestReceived, "This user has already sent you a friend request")
}

// ListReceived returns pending requests addressed to userID, newest first.
func (s *FriendService) ListReceived(ctx context.Context, userID uint) ([]models.FriendRequestView, error) {
	reqs, err := s.friendRepo.ListReceived(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toRequestViews(reqs, userID), nil
}

// ListSent returns pending requests sent by userID, newest first.
func (s *FriendService) ListSent(ctx context.Context, userID uint) ([]models.FriendRequestView, error) {
	reqs, err := s.friendRepo.ListSent(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toRequestViews(reqs, userID), nil
}

func toRequestViews(reqs []models.FriendRequest, userID uint) []models.FriendRequestView {
	return lo.Map(reqs, func(r models.FriendRequest, _ int) models.FriendRequestView {
		return models.FriendRequestView{
			ID:        r.ID,
			User:      r.Counterpart(userID).Public(),
			CreatedAt: r.CreatedAt,
		}
	})
}

// Accept turns a pending request into a friendship. Only the recipient may accept.
func (s *FriendService) Accept(ctx context.Context, requestID, userID uint) (*models.PublicUser, error) {
	ctx, span := observability.StartServiceSpan(ctx, "FriendService", "Accept",
		observability.FriendRequestIDAttr(requestID))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var req *models.FriendRequest
	req, err = s.friendRepo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RecipientID != userID {
		err = models.NewForbiddenError("You can only accept friend requests sent to you")
		return nil, err
	}
	if err = s.friendRepo.AcceptRequest(ctx, requestID); err != nil {
		return nil, err
	}

	observability.FriendRequestEvents.WithLabelValues("accepted").Inc()
	friend := req.Sender.Public()
	return &friend, nil
}

// Reject deletes a request addressed to userID.
func (s *FriendService) Reject(ctx context.Context, requestID, userID uint) error {
	req, err := s.friendRepo.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	return s.reject(ctx, req, userID)
}

// Cancel deletes a request sent by userID.
func (s *FriendService) Cancel(ctx context.Context, requestID, userID uint) error {
	req, err := s.friendRepo.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	return s.cancel(ctx, req, userID)
}

// Withdraw rejects when userID is the recipient and cancels when userID is
// the sender. Anyone else is forbidden.
func (s *FriendService) Withdraw(ctx context.Context, requestID, userID uint) error {
	req, err := s.friendRepo.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.SenderID == userID {
		return s.cancel(ctx, req, userID)
	}
	return s.reject(ctx, req, userID)
}

func (s *FriendService) reject(ctx context.Context, req *models.FriendRequest, userID uint) error {
	if req.RecipientID != userID {
		return models.NewForbiddenError("You can only reject friend requests sent to you")
	}
	if err := s.friendRepo.DeleteRequest(ctx, req.ID); err != nil {
		return err
	}
	observability.FriendRequestEvents.WithLabelValues("rejected").Inc()
	return nil
}

func (s *FriendService) cancel(ctx context.Context, req *models.FriendRequest, userID uint) error {
	if req.SenderID != userID {
		return models.NewForbiddenError("You can only cancel friend requests you sent")
	}
	if err := s.friendRepo.DeleteRequest(ctx, req.ID); err != nil {
		return err
	}
	observability.FriendRequestEvents.WithLabelValues("cancelled").Inc()
	return nil
}

// ListFriends returns the public profiles of userID's friends.
func (s *FriendService) ListFriends(ctx context.Context, userID uint) ([]models.PublicUser, error) {
	users, err := s.friendRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	return publicUsers(users), nil
}

// RemoveFriend ends the friendship in both directions.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID uint) error {
	ctx, span := observability.StartServiceSpan(ctx, "FriendService", "RemoveFriend")
	err := s.friendRepo.RemoveFriendship(ctx, userID, friendID)
	observability.EndSpan(span, err)
	return err
}

func publicUsers(users []models.User) []models.PublicUser {
	return lo.Map(users, func(u models.User, _ int) models.PublicUser { return u.Public() })
}
