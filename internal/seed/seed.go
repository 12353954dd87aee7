package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"messenger/internal/auth"
	"messenger/internal/models"
	"messenger/internal/observability"
	"messenger/internal/repository"
	"messenger/internal/service"
	"messenger/internal/validation"

	"gorm.io/gorm"
)

// Report counts what a run created.
type Report struct {
	Users       int
	Friendships int
	Rooms       int
	Messages    int
}

// Seeder writes demo data through the same services the API uses, so every
// row it creates obeys the normal friendship and room rules.
type Seeder struct {
	db       *gorm.DB
	factory  *Factory
	users    repository.UserRepository
	friends  *service.FriendService
	rooms    *service.RoomService
	messages *service.MessageService
	hash     func(string) (string, error)
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, factory *Factory) *Seeder {
	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	return &Seeder{
		db:       db,
		factory:  factory,
		users:    userRepo,
		friends:  service.NewFriendService(repository.NewFriendRepository(db), userRepo),
		rooms:    service.NewRoomService(roomRepo, userRepo),
		messages: service.NewMessageService(repository.NewMessageRepository(db), roomRepo),
		hash:     auth.HashPassword,
	}
}

// ClearAll deletes every row of every application table.
func (s *Seeder) ClearAll(ctx context.Context) error {
	ordered := []any{
		&models.Message{},
		&models.RoomMember{},
		&models.MessageRoom{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.User{},
	}
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range ordered {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	return nil
}

// Run applies plan and reports what it created.
func (s *Seeder) Run(ctx context.Context, plan Plan) (*Report, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if plan.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}

	report := &Report{}
	users, err := s.createUsers(ctx, plan)
	if err != nil {
		return nil, err
	}
	report.Users = len(users)

	if report.Friendships, err = s.createFriendships(ctx, users, plan.Friendships); err != nil {
		return nil, err
	}

	rooms, err := s.createRooms(ctx, users, plan)
	if err != nil {
		return nil, err
	}
	report.Rooms = len(rooms)

	for _, room := range rooms {
		n, err := s.postMessages(ctx, room, plan.MessagesPerRoom)
		if err != nil {
			return nil, err
		}
		report.Messages += n
	}

	observability.Logger.InfoContext(ctx, "seed complete",
		slog.Int("users", report.Users),
		slog.Int("friendships", report.Friendships),
		slog.Int("rooms", report.Rooms),
		slog.Int("messages", report.Messages),
	)
	return report, nil
}

func (s *Seeder) createUsers(ctx context.Context, plan Plan) ([]models.User, error) {
	digest, err := s.hash(plan.Password)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	names := make([]string, 0, len(plan.Accounts)+plan.Users)
	for _, name := range plan.Accounts {
		s.factory.Reserve(name)
		names = append(names, name)
	}
	for range plan.Users {
		names = append(names, s.factory.Username())
	}

	users := make([]models.User, 0, len(names))
	for _, name := range names {
		if err := validation.ValidateUsername(name); err != nil {
			return nil, fmt.Errorf("seed account %q: %w", name, err)
		}
		u := &models.User{Username: name, Email: s.factory.Email(name), Password: digest}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("create user %s: %w", name, err)
		}
		users = append(users, *u)
	}
	return users, nil
}

func (s *Seeder) createFriendships(ctx context.Context, users []models.User, want int) (int, error) {
	created := 0
	// Linked pairs are skipped, so the attempts are capped.
	for attempt := 0; created < want && attempt < want*4; attempt++ {
		pair := s.factory.Pick(len(users), 2)
		from, to := users[pair[0]], users[pair[1]]

		req, err := s.friends.SendRequest(ctx, from.ID, to.Username)
		if skippable(err) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("send friend request: %w", err)
		}
		if _, err := s.friends.Accept(ctx, req.ID, to.ID); err != nil {
			return created, fmt.Errorf("accept friend request: %w", err)
		}
		created++
	}
	return created, nil
}

func (s *Seeder) createRooms(ctx context.Context, users []models.User, plan Plan) ([]*models.RoomView, error) {
	var rooms []*models.RoomView
	for attempt := 0; len(rooms) < plan.PrivateRooms && attempt < plan.PrivateRooms*4; attempt++ {
		pair := s.factory.Pick(len(users), 2)
		room, err := s.rooms.CreateRoom(ctx, users[pair[0]].ID, []string{users[pair[1]].Username})
		if skippable(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create private room: %w", err)
		}
		rooms = append(rooms, room)
	}

	for range plan.GroupRooms {
		picked := s.factory.Pick(len(users), plan.GroupSize)
		creator := users[picked[0]]
		others := make([]string, 0, len(picked)-1)
		for _, i := range picked[1:] {
			others = append(others, users[i].Username)
		}
		room, err := s.rooms.CreateRoom(ctx, creator.ID, others)
		if err != nil {
			return nil, fmt.Errorf("create group room: %w", err)
		}
		name := s.factory.RoomName()
		if err := s.rooms.RenameRoom(ctx, room.ID, creator.ID, name); err != nil {
			return nil, fmt.Errorf("name group room: %w", err)
		}
		room.Name = name
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (s *Seeder) postMessages(ctx context.Context, room *models.RoomView, n int) (int, error) {
	for i := range n {
		author := room.Users[s.factory.Pick(len(room.Users), 1)[0]]
		if _, err := s.messages.PostMessage(ctx, room.ID, author.ID, s.factory.Message()); err != nil {
			return i, fmt.Errorf("post message: %w", err)
		}
	}
	return n, nil
}

// skippable reports conflicts caused by picking a pair that is already linked.
func skippable(err error) bool {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case models.CodeAlreadyFriends, models.CodeDuplicateRequestSent,
		models.CodeDuplicateRequestReceived, models.CodeDuplicateRoom:
		return true
	}
	return false
}
