package server

import (
	"messenger/internal/models"
	"messenger/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/signup
// @Summary User signup
// @Description Register a new account. Accepts JSON or multipart with an optional profile_img file.
// @Tags auth
// @Accept json,mpfd
// @Produce json
// @Param request body object{username=string,email=string,password=string,confirmPassword=string} true "Signup request"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	avatar, err := readUpload(c, "profile_img")
	if err != nil {
		return respondError(c, err)
	}
	req.Avatar = avatar

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.userService.Signup(ctx, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Login handles POST /api/login
// @Summary User login
// @Description Authenticate with username and password and return a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Login credentials"
// @Success 200 {object} service.AuthResult
// @Failure 401 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Username == "" || req.Password == "" {
		return respondError(c, models.NewValidationError("Username and password are required"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.userService.Login(ctx, req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// Relogin handles GET /api/re-login
// @Summary Refresh token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.AuthResult
// @Router /re-login [get]
func (s *Server) Relogin(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.userService.Relogin(ctx, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// Logout handles POST /api/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	claims := currentClaims(c)
	if claims == nil {
		return respondError(c, models.NewUnauthenticatedError(true))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.userService.Logout(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}
