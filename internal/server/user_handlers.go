package server

import (
	"messenger/internal/models"
	"messenger/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetAccount handles GET /api/user
// @Summary Current account
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /user [get]
func (s *Server) GetAccount(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.GetAccount(ctx, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ChangeUsername handles PUT /api/user/username
func (s *Server) ChangeUsername(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.userService.ChangeUsername(ctx, currentUserID(c), req.Username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// ChangeEmail handles PUT /api/user/email
func (s *Server) ChangeEmail(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.ChangeEmail(ctx, currentUserID(c), req.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ChangePassword handles PUT /api/user/password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req service.ChangePasswordInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.userService.ChangePassword(ctx, currentUserID(c), req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

// ChangeAvatar handles PUT /api/user/profile-img
// @Summary Replace profile picture
// @Tags user
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param profile_img formData file true "Image"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Router /user/profile-img [put]
func (s *Server) ChangeAvatar(c *fiber.Ctx) error {
	content, err := readUpload(c, "profile_img")
	if err != nil {
		return respondError(c, err)
	}
	if len(content) == 0 {
		return respondError(c, models.NewValidationError("No file uploaded"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.userService.ChangeAvatar(ctx, currentUserID(c), content)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
