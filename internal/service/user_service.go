package service

import (
	"context"
	"time"

	"messenger/internal/cache"
	"messenger/internal/models"
	"messenger/internal/observability"
	"messenger/internal/repository"
	"messenger/internal/validation"
)

// TokenIssuer signs a bearer token for a user.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// AvatarStore stores and deletes profile pictures.
type AvatarStore interface {
	Store(ctx context.Context, content []byte) (*StoredImage, error)
	Delete(ctx context.Context, externalID string) error
}

// SignupInput is the signup form. Avatar is optional.
type SignupInput struct {
	Username        string `json:"username" form:"username" validate:"required,username"`
	Email           string `json:"email" form:"email" validate:"required,email,max=254"`
	Password        string `json:"password" form:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"required,eqfield=Password"`
	Avatar          []byte `json:"-" form:"-"`
}

// ChangePasswordInput is the password change form.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// AuthResult is a freshly issued token with the account it belongs to.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UserService manages accounts and credentials.
type UserService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	avatars  AvatarStore
	hash     func(string) (string, error)
	matches  func(plain, digest string) bool
}

// NewUserService returns a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	tokens TokenIssuer,
	avatars AvatarStore,
	hash func(string) (string, error),
	matches func(plain, digest string) bool,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		avatars:  avatars,
		hash:     hash,
		matches:  matches,
	}
}

// Signup creates an account and signs the user in.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		observability.AuthEvents.WithLabelValues("signup", "conflict").Inc()
		return nil, models.NewConflictError(models.CodeUsernameTaken, "Username is already taken")
	}

	digest, err := s.hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: digest,
	}
	if len(in.Avatar) > 0 {
		img, err := s.avatars.Store(ctx, in.Avatar)
		if err != nil {
			return nil, err
		}
		user.Avatar, user.AvatarID = img.URL, img.ExternalID
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if user.AvatarID != "" {
			_ = s.avatars.Delete(ctx, user.AvatarID)
		}
		return nil, err
	}

	observability.AuthEvents.WithLabelValues("signup", "success").Inc()
	return s.issue(user)
}

// Login checks credentials. Unknown users and wrong passwords fail alike.
func (s *UserService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.matches(password, user.Password) {
		observability.AuthEvents.WithLabelValues("login", "failure").Inc()
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	observability.AuthEvents.WithLabelValues("login", "success").Inc()
	return s.issue(user)
}

// Relogin issues a new token for an already authenticated user.
func (s *UserService) Relogin(ctx context.Context, userID uint) (*AuthResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Logout revokes the token until it would have expired.
func (s *UserService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if err := cache.RevokeToken(ctx, tokenID, expiresAt); err != nil {
		return models.NewInternalError(err)
	}
	observability.AuthEvents.WithLabelValues("logout", "success").Inc()
	return nil
}

// GetAccount returns the caller's own account.
func (s *UserService) GetAccount(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ChangeUsername renames the account. The username is part of the token
// claims, so a new token is issued.
func (s *UserService) ChangeUsername(ctx context.Context, userID uint, username string) (*AuthResult, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Username == username {
		return s.issue(user)
	}

	taken, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken != nil {
		return nil, models.NewConflictError(models.CodeUsernameTaken, "Username is already taken")
	}

	user.Username = username
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// ChangeEmail updates the account email.
func (s *UserService) ChangeEmail(ctx context.Context, userID uint, email string) (*models.User, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Email = email
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetWithPassword(ctx, userID)
	if err != nil {
		return err
	}
	if !s.matches(in.CurrentPassword, user.Password) {
		observability.AuthEvents.WithLabelValues("password_change", "failure").Inc()
		return models.NewUnauthorizedError("Current password is incorrect")
	}

	digest, err := s.hash(in.Password)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, digest); err != nil {
		return err
	}
	observability.AuthEvents.WithLabelValues("password_change", "success").Inc()
	return nil
}

// ChangeAvatar replaces the profile picture and reissues the token, which
// carries the avatar URL. The old picture is deleted best effort.
func (s *UserService) ChangeAvatar(ctx context.Context, userID uint, content []byte) (*AuthResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	img, err := s.avatars.Store(ctx, content)
	if err != nil {
		return nil, err
	}

	previous := user.AvatarID
	user.Avatar, user.AvatarID = img.URL, img.ExternalID
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		_ = s.avatars.Delete(ctx, img.ExternalID)
		return nil, err
	}

	if previous != "" {
		if err := s.avatars.Delete(ctx, previous); err != nil {
			observability.Logger.WarnContext(ctx, "previous avatar not deleted",
				"user_id", userID, "external_id", previous, "error", err.Error())
		}
	}
	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
