package server

import (
	"strings"

	"sudonet/internal/models"
	"sudonet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/profiles/:handle
// @Summary Resolve a profile by handle
// @Description Signed-in callers may get their profile under an old handle, an auto-created profile, or a redirect to the edit page.
// @Tags profiles
// @Produce json
// @Param handle path string true "Profile handle"
// @Success 200 {object} service.ProfileView
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{handle} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	view, err := s.profileService.Resolve(c.UserContext(), s.optionalUser(c), c.Params("handle"))
	if err != nil {
		return respondErr(c, err)
	}

	switch view.Outcome {
	case service.OutcomeNotFound:
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error:   "Profile not found",
			Code:    models.CodeNotFound,
			Details: view.Diagnostic,
		})
	case service.OutcomeRedirect:
		c.Set(fiber.HeaderLocation, view.EditURL)
	}
	return c.JSON(view)
}

// GetProfileEdit handles GET /api/profiles/:handle/edit
// @Summary Load the caller's profile for editing
// @Tags profiles
// @Security BearerAuth
// @Produce json
// @Param handle path string true "Profile handle"
// @Success 200 {object} models.UserInfo
// @Failure 403 {object} models.ErrorResponse
// @Router /profiles/{handle}/edit [get]
func (s *Server) GetProfileEdit(c *fiber.Ctx) error {
	profile, err := s.profileService.EditView(c.UserContext(), identity(c), c.Params("handle"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{
		"profile":    profile,
		"archetypes": s.profileService.Archetypes(),
	})
}

// UpdateProfile handles PUT /api/profiles/:handle
// @Summary Save the caller's profile
// @Description Accepts JSON, or multipart form fields with an optional "photo" file.
// @Tags profiles
// @Security BearerAuth
// @Accept json,mpfd
// @Produce json
// @Param handle path string true "Profile handle"
// @Success 200 {object} service.UpdateProfileResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /profiles/{handle} [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var fields service.ProfileFields
	if err := c.BodyParser(&fields); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.UpdateProfileInput{
		Handle: c.Params("handle"),
		Fields: fields,
	}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		photo, _, contentType, err := formFile(c, "photo")
		if err != nil {
			return respondErr(c, err)
		}
		in.Photo = photo
		in.PhotoContentType = contentType
	}

	res, err := s.profileService.UpdateProfile(c.UserContext(), identity(c), in)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(res)
}

// GetArchetypes handles GET /api/archetypes
// @Summary Archetype catalog in display order
// @Tags profiles
// @Produce json
// @Success 200 {array} models.ArchetypeInfo
// @Router /archetypes [get]
func (s *Server) GetArchetypes(c *fiber.Ctx) error {
	return c.JSON(s.profileService.Archetypes())
}
