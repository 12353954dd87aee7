package server

import (
	"strings"

	"messenger/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SendFriendRequest handles POST /api/friend-requests
// @Summary Send friend request
// @Tags friends
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{username=string} true "Target username"
// @Success 201 {object} models.FriendRequestView
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /friend-requests [post]
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return respondError(c, models.NewValidationError("username is required"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	view, err := s.friendService.SendRequest(ctx, currentUserID(c), username)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// ListReceivedRequests handles GET /api/friend-requests/received
func (s *Server) ListReceivedRequests(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	views, err := s.friendService.ListReceived(ctx, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(views)
}

// ListSentRequests handles GET /api/friend-requests/sent
func (s *Server) ListSentRequests(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	views, err := s.friendService.ListSent(ctx, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(views)
}

// AcceptFriendRequest handles POST /api/friend-requests/:id/accept
// @Summary Accept friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} models.PublicUser
// @Failure 403 {object} models.ErrorResponse
// @Router /friend-requests/{id}/accept [post]
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	requestID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	friend, err := s.friendService.Accept(ctx, requestID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(friend)
}

// DeleteFriendRequest handles DELETE /api/friend-requests/:id. The recipient
// rejects the request and the sender cancels it.
func (s *Server) DeleteFriendRequest(c *fiber.Ctx) error {
	requestID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.friendService.Withdraw(ctx, requestID, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friend request deleted"})
}

// ListFriends handles GET /api/friends
func (s *Server) ListFriends(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	friends, err := s.friendService.ListFriends(ctx, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(friends)
}

// RemoveFriend handles DELETE /api/friends/:id
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	friendID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.friendService.RemoveFriend(ctx, currentUserID(c), friendID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friend removed"})
}
