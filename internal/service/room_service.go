package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"messenger/internal/models"
	"messenger/internal/observability"
	"messenger/internal/repository"
	"messenger/internal/timeago"
	"messenger/internal/validation"

	"github.com/samber/lo"
)

const maxRoomNameLength = 100

// RoomService manages message rooms and their membership.
type RoomService struct {
	roomRepo repository.RoomRepository
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewRoomService returns a new RoomService.
func NewRoomService(roomRepo repository.RoomRepository, userRepo repository.UserRepository) *RoomService {
	return &RoomService{roomRepo: roomRepo, userRepo: userRepo, now: time.Now}
}

// CreateRoom creates a room for the creator and the named users. Two members
// make a private room, which may exist only once per pair.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID uint, usernames []string) (*models.RoomView, error) {
	ctx, span := observability.StartServiceSpan(ctx, "RoomService", "CreateRoom")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	creator, err := s.userRepo.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	names := lo.Without(lo.Uniq(trimAll(usernames)), "", creator.Username)
	if len(names) == 0 {
		err = models.NewValidationError("At least one other user is required")
		return nil, err
	}

	var others []models.User
	others, err = s.resolveUsers(ctx, names)
	if err != nil {
		return nil, err
	}

	members := append([]models.User{*creator}, others...)
	room := &models.MessageRoom{Kind: models.KindForMemberCount(len(members))}
	if room.Kind == models.RoomKindPrivate {
		key := models.PrivatePairKey(members[0].ID, members[1].ID)
		var existing *models.MessageRoom
		existing, err = s.roomRepo.FindByPairKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			err = models.NewConflictError(models.CodeDuplicateRoom, "A private message room already exists for these users")
			return nil, err
		}
		room.PairKey = &key
	}

	memberIDs := lo.Map(members, func(u models.User, _ int) uint { return u.ID })
	if err = s.roomRepo.Create(ctx, room, memberIDs); err != nil {
		return nil, err
	}

	observability.RoomEvents.WithLabelValues("created").Inc()
	return &models.RoomView{
		ID:        room.ID,
		Name:      room.Name,
		Kind:      room.Kind,
		Users:     publicUsers(members),
		CreatedAt: room.CreatedAt,
	}, nil
}

// resolveUsers looks up every username, failing on the first one that is unknown.
func (s *RoomService) resolveUsers(ctx context.Context, usernames []string) ([]models.User, error) {
	found, err := s.userRepo.GetByUsernames(ctx, usernames)
	if err != nil {
		return nil, err
	}
	byName := lo.KeyBy(found, func(u models.User) string { return u.Username })

	users := make([]models.User, 0, len(usernames))
	for _, name := range usernames {
		u, ok := byName[name]
		if !ok {
			return nil, models.NewNotFoundMessage(fmt.Sprintf("User %s not found", name))
		}
		users = append(users, u)
	}
	return users, nil
}

// ListRoomsFor returns the user's rooms, most recently active first. Rooms
// without messages sort last.
func (s *RoomService) ListRoomsFor(ctx context.Context, userID uint) ([]models.RoomSummary, error) {
	rooms, err := s.roomRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := lo.Map(rooms, func(r models.MessageRoom, _ int) uint { return r.ID })
	last, err := s.roomRepo.LastMessages(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summaries := make([]models.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		peers := lo.FilterMap(room.Members, func(m models.RoomMember, _ int) (models.PublicUser, bool) {
			return m.User.Public(), m.UserID != userID
		})
		summary := models.RoomSummary{
			ID:    room.ID,
			Name:  validation.DecodeText(room.Name),
			Kind:  room.Kind,
			Users: peers,
		}
		if msg, ok := last[room.ID]; ok {
			summary.LastMessage = validation.DecodeText(msg.Text)
			summary.LastMessageTime = msg.CreatedAt.UnixMilli()
			summary.LastUpdated = timeago.Label(now, msg.CreatedAt)
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessageTime > summaries[j].LastMessageTime
	})
	return summaries, nil
}

// GetRoom returns a room with all its members. Only members may see it.
func (s *RoomService) GetRoom(ctx context.Context, roomID, userID uint) (*models.RoomView, error) {
	room, err := s.memberRoom(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	return toRoomView(room), nil
}

// AddMembers appends the named users to a room the actor belongs to.
func (s *RoomService) AddMembers(ctx context.Context, roomID, userID uint, usernames []string) (*models.RoomView, error) {
	ctx, span := observability.StartServiceSpan(ctx, "RoomService", "AddMembers",
		observability.RoomIDAttr(roomID))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var room *models.MessageRoom
	room, err = s.memberRoom(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}

	names := lo.Without(lo.Uniq(trimAll(usernames)), "")
	if len(names) == 0 {
		err = models.NewValidationError("At least one user is required")
		return nil, err
	}

	var users []models.User
	users, err = s.resolveUsers(ctx, names)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if room.HasMember(u.ID) {
			err = models.NewConflictError(models.CodeAlreadyMember,
				fmt.Sprintf("%s is already a member of this message room", u.Username))
			return nil, err
		}
	}

	ids := lo.Map(users, func(u models.User, _ int) uint { return u.ID })
	if err = s.roomRepo.AddMembers(ctx, roomID, ids); err != nil {
		return nil, err
	}
	observability.RoomEvents.WithLabelValues("joined").Add(float64(len(ids)))

	room, err = s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return toRoomView(room), nil
}

// RemoveMember takes the user out of the room. The room is dissolved once
// only one member would be left.
func (s *RoomService) RemoveMember(ctx context.Context, roomID, userID uint) (bool, error) {
	ctx, span := observability.StartServiceSpan(ctx, "RoomService", "RemoveMember",
		observability.RoomIDAttr(roomID))
	dissolved, err := s.roomRepo.RemoveMember(ctx, roomID, userID)
	observability.EndSpan(span, err)
	if err != nil {
		return false, err
	}

	observability.RoomEvents.WithLabelValues("left").Inc()
	if dissolved {
		observability.RoomEvents.WithLabelValues("dissolved").Inc()
	}
	return dissolved, nil
}

// RenameRoom sets the display name of a room the actor belongs to.
func (s *RoomService) RenameRoom(ctx context.Context, roomID, userID uint, name string) error {
	if _, err := s.memberRoom(ctx, roomID, userID); err != nil {
		return err
	}

	n := validation.TextLength(name)
	if n == 0 {
		return models.NewValidationError("Name is required")
	}
	if n > maxRoomNameLength {
		return models.NewValidationError(fmt.Sprintf("Name must not exceed %d characters", maxRoomNameLength))
	}

	if err := s.roomRepo.Rename(ctx, roomID, validation.EscapeText(name)); err != nil {
		return err
	}
	observability.RoomEvents.WithLabelValues("renamed").Inc()
	return nil
}

// memberRoom loads the room and checks that userID belongs to it.
func (s *RoomService) memberRoom(ctx context.Context, roomID, userID uint) (*models.MessageRoom, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(userID) {
		return nil, models.NewNotMemberError(roomID)
	}
	return room, nil
}

func toRoomView(room *models.MessageRoom) *models.RoomView {
	return &models.RoomView{
		ID:   room.ID,
		Name: validation.DecodeText(room.Name),
		Kind: room.Kind,
		Users: lo.Map(room.Members, func(m models.RoomMember, _ int) models.PublicUser {
			return m.User.Public()
		}),
		CreatedAt: room.CreatedAt,
	}
}

func trimAll(values []string) []string {
	return lo.Map(values, func(v string, _ int) string { return strings.TrimSpace(v) })
}
