package server

import (
	"sudonet/internal/models"
	"sudonet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new user. Credentials are stored as digests and a public profile is created.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{name=string,username=string,password=string,confirm_password=string,archetype=string} true "Signup request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Name            string `json:"name"`
		Username        string `json:"username"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
		Archetype       string `json:"archetype"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	res, err := s.credentialService.Register(c.UserContext(), service.RegisterInput{
		Name:            req.Name,
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Archetype:       req.Archetype,
	})
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{Token: res.Token, User: res.User})
}

// Login handles POST /api/auth/login
// @Summary User login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Login request"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	res, err := s.credentialService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(AuthResponse{Token: res.Token, User: res.User})
}

// Logout handles POST /api/auth/logout
// @Summary Revoke the current token
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.credentialService.Logout(c.UserContext(), identity(c)); err != nil {
		return respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.credentialService.CurrentUser(c.UserContext(), identity(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(user)
}
