package service

import (
	"context"
	"fmt"
	"time"

	"messenger/internal/models"
	"messenger/internal/observability"
	"messenger/internal/repository"
	"messenger/internal/timeago"
	"messenger/internal/validation"

	"github.com/samber/lo"
)

const maxMessageLength = 2000

// MessageService posts to and reads a room's conversation log.
type MessageService struct {
	messageRepo repository.MessageRepository
	roomRepo    repository.RoomRepository
	now         func() time.Time
}

// NewMessageService returns a new MessageService.
func NewMessageService(messageRepo repository.MessageRepository, roomRepo repository.RoomRepository) *MessageService {
	return &MessageService{messageRepo: messageRepo, roomRepo: roomRepo, now: time.Now}
}

// PostMessage stores text in the room on behalf of authorID. The returned
// message carries only the author's id.
func (s *MessageService) PostMessage(ctx context.Context, roomID, authorID uint, text string) (*models.MessageView, error) {
	n := validation.TextLength(text)
	if n == 0 {
		return nil, models.NewValidationError("Message is required")
	}
	if n > maxMessageLength {
		return nil, models.NewValidationError(fmt.Sprintf("Message must not exceed %d characters", maxMessageLength))
	}

	ctx, span := observability.StartServiceSpan(ctx, "MessageService", "PostMessage",
		observability.RoomIDAttr(roomID))
	msg := &models.Message{
		RoomID:    roomID,
		AuthorID:  authorID,
		Text:      validation.EscapeText(text),
		CreatedAt: s.now().UTC(),
	}
	err := s.messageRepo.Create(ctx, msg)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	observability.MessagesPosted.Inc()
	view := s.toView(*msg)
	return &view, nil
}

// ListMessages returns the room's log, oldest first, to a member.
func (s *MessageService) ListMessages(ctx context.Context, roomID, userID uint) ([]models.MessageView, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(userID) {
		return nil, models.NewNotMemberError(roomID)
	}

	msgs, err := s.messageRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return lo.Map(msgs, func(m models.Message, _ int) models.MessageView {
		return s.toView(m)
	}), nil
}

func (s *MessageService) toView(m models.Message) models.MessageView {
	author := models.MessageAuthor{ID: m.AuthorID}
	if m.Author != nil {
		author.Username = m.Author.Username
		author.Avatar = m.Author.Avatar
	}
	return models.MessageView{
		ID:        m.ID,
		RoomID:    m.RoomID,
		Text:      validation.DecodeText(m.Text),
		User:      author,
		CreatedAt: timeago.Label(s.now(), m.CreatedAt),
	}
}
