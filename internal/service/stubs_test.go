package service

import (
	"context"
	"errors"

	"messenger/internal/models"
)

type friendRepoStub struct {
	createRequestFn      func(context.Context, *models.FriendRequest) error
	getRequestFn         func(context.Context, uint) (*models.FriendRequest, error)
	findPendingBetweenFn func(context.Context, uint, uint) (*models.FriendRequest, error)
	listReceivedFn       func(context.Context, uint) ([]models.FriendRequest, error)
	listSentFn           func(context.Context, uint) ([]models.FriendRequest, error)
	acceptRequestFn      func(context.Context, uint) error
	deleteRequestFn      func(context.Context, uint) error
	areFriendsFn         func(context.Context, uint, uint) (bool, error)
	listFriendsFn        func(context.Context, uint) ([]models.User, error)
	removeFriendshipFn   func(context.Context, uint, uint) error
}

func (s *friendRepoStub) CreateRequest(ctx context.Context, req *models.FriendRequest) error {
	return s.createRequestFn(ctx, req)
}
func (s *friendRepoStub) GetRequest(ctx context.Context, id uint) (*models.FriendRequest, error) {
	return s.getRequestFn(ctx, id)
}
func (s *friendRepoStub) FindPendingBetween(ctx context.Context, a, b uint) (*models.FriendRequest, error) {
	return s.findPendingBetweenFn(ctx, a, b)
}
func (s *friendRepoStub) ListReceived(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.listReceivedFn(ctx, userID)
}
func (s *friendRepoStub) ListSent(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.listSentFn(ctx, userID)
}
func (s *friendRepoStub) AcceptRequest(ctx context.Context, id uint) error {
	return s.acceptRequestFn(ctx, id)
}
func (s *friendRepoStub) DeleteRequest(ctx context.Context, id uint) error {
	return s.deleteRequestFn(ctx, id)
}
func (s *friendRepoStub) AreFriends(ctx context.Context, a, b uint) (bool, error) {
	return s.areFriendsFn(ctx, a, b)
}
func (s *friendRepoStub) ListFriends(ctx context.Context, userID uint) ([]models.User, error) {
	return s.listFriendsFn(ctx, userID)
}
func (s *friendRepoStub) RemoveFriendship(ctx context.Context, a, b uint) error {
	return s.removeFriendshipFn(ctx, a, b)
}

type userRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.User, error)
	getWithPasswordFn func(context.Context, uint) (*models.User, error)
	getByUsernameFn   func(context.Context, string) (*models.User, error)
	getByUsernamesFn  func(context.Context, []string) ([]models.User, error)
	createFn          func(context.Context, *models.User) error
	updateProfileFn   func(context.Context, *models.User) error
	updatePasswordFn  func(context.Context, uint, string) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetWithPassword(ctx context.Context, id uint) (*models.User, error) {
	return s.getWithPasswordFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	return s.getByUsernamesFn(ctx, usernames)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, user *models.User) error {
	return s.updateProfileFn(ctx, user)
}
func (s *userRepoStub) UpdatePassword(ctx context.Context, id uint, digest string) error {
	return s.updatePasswordFn(ctx, id, digest)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:         func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getWithPasswordFn: func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn:   func(context.Context, string) (*models.User, error) { return nil, nil },
		getByUsernamesFn:  func(context.Context, []string) ([]models.User, error) { return nil, nil },
		createFn:          func(context.Context, *models.User) error { return nil },
		updateProfileFn:   func(context.Context, *models.User) error { return nil },
		updatePasswordFn:  func(context.Context, uint, string) error { return nil },
	}
}

func noopFriendRepo() *friendRepoStub {
	return &friendRepoStub{
		createRequestFn:      func(context.Context, *models.FriendRequest) error { return nil },
		getRequestFn:         func(context.Context, uint) (*models.FriendRequest, error) { return &models.FriendRequest{}, nil },
		findPendingBetweenFn: func(context.Context, uint, uint) (*models.FriendRequest, error) { return nil, nil },
		listReceivedFn:       func(context.Context, uint) ([]models.FriendRequest, error) { return nil, nil },
		listSentFn:           func(context.Context, uint) ([]models.FriendRequest, error) { return nil, nil },
		acceptRequestFn:      func(context.Context, uint) error { return nil },
		deleteRequestFn:      func(context.Context, uint) error { return nil },
		areFriendsFn:         func(context.Context, uint, uint) (bool, error) { return false, nil },
		listFriendsFn:        func(context.Context, uint) ([]models.User, error) { return nil, nil },
		removeFriendshipFn:   func(context.Context, uint, uint) error { return nil },
	}
}

type tokenStub struct {
	issued []uint
}

func (s *tokenStub) Issue(user *models.User) (string, error) {
	s.issued = append(s.issued, user.ID)
	return "token-for-" + user.Username, nil
}

type avatarStub struct {
	stored  int
	deleted []string
	err     error
}

func (s *avatarStub) Store(_ context.Context, _ []byte) (*StoredImage, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.stored++
	id := "avatars/new.webp"
	return &StoredImage{URL: "http://images.test/" + id, ExternalID: id}, nil
}

func (s *avatarStub) Delete(_ context.Context, externalID string) error {
	s.deleted = append(s.deleted, externalID)
	return nil
}

func appErrCode(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
