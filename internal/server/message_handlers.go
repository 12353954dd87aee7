package server

import (
	"github.com/gofiber/fiber/v2"
)

// PostMessage handles POST /api/messages/:roomId
// @Summary Post message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param roomId path int true "Room ID"
// @Param request body object{message=string} true "Message text"
// @Success 201 {object} models.MessageView
// @Failure 403 {object} models.ErrorResponse
// @Router /messages/{roomId} [post]
func (s *Server) PostMessage(c *fiber.Ctx) error {
	roomID, err := parseID(c, "roomId")
	if err != nil {
		return nil
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	msg, err := s.messageService.PostMessage(ctx, roomID, currentUserID(c), req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// ListMessages handles GET /api/messages/:roomId
func (s *Server) ListMessages(c *fiber.Ctx) error {
	roomID, err := parseID(c, "roomId")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	msgs, err := s.messageService.ListMessages(ctx, roomID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msgs)
}
