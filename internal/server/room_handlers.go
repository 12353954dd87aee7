package server

import (
	"github.com/gofiber/fiber/v2"
)

type roomUsersRequest struct {
	Users []string `json:"users"`
}

// CreateRoom handles POST /api/message-rooms
// @Summary Create message room
// @Description Two members make a private room, more make a group.
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{users=[]string} true "Usernames to add"
// @Success 201 {object} models.RoomView
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /message-rooms [post]
func (s *Server) CreateRoom(c *fiber.Ctx) error {
	var req roomUsersRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	room, err := s.roomService.CreateRoom(ctx, currentUserID(c), req.Users)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(room)
}

// ListRooms handles GET /api/message-rooms
// @Summary List my message rooms
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.RoomSummary
// @Router /message-rooms [get]
func (s *Server) ListRooms(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	rooms, err := s.roomService.ListRoomsFor(ctx, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rooms)
}

// GetRoom handles GET /api/message-rooms/:id
func (s *Server) GetRoom(c *fiber.Ctx) error {
	roomID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	room, err := s.roomService.GetRoom(ctx, roomID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(room)
}

// AddRoomMembers handles POST /api/message-rooms/:id/members
func (s *Server) AddRoomMembers(c *fiber.Ctx) error {
	roomID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req roomUsersRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	room, err := s.roomService.AddMembers(ctx, roomID, currentUserID(c), req.Users)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(room)
}

// LeaveRoom handles DELETE /api/message-rooms/:id/members/me
// @Summary Leave message room
// @Description The room is dissolved when one member would remain.
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} object{dissolved=bool}
// @Failure 403 {object} models.ErrorResponse
// @Router /message-rooms/{id}/members/me [delete]
func (s *Server) LeaveRoom(c *fiber.Ctx) error {
	roomID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	dissolved, err := s.roomService.RemoveMember(ctx, roomID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"dissolved": dissolved})
}

// RenameRoom handles PUT /api/message-rooms/:id/name
func (s *Server) RenameRoom(c *fiber.Ctx) error {
	roomID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.roomService.RenameRoom(ctx, roomID, currentUserID(c), req.Name); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message room name updated"})
}
