package server

import (
	"errors"

	"sudonet/internal/composer"
	"sudonet/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ComposerResponse is the state of a composer session after a step.
type ComposerResponse struct {
	ID     string          `json:"id"`
	State  composer.State  `json:"state"`
	Active bool            `json:"active"`
	Lines  []composer.Line `json:"lines"`
	Post   *models.Post    `json:"post,omitempty"`
}

func composerResponse(id string, cmp *composer.Composer, lines []composer.Line) ComposerResponse {
	if lines == nil {
		lines = []composer.Line{}
	}
	res := ComposerResponse{
		ID:     id,
		State:  cmp.State(),
		Active: cmp.Active(),
		Lines:  lines,
	}
	if res.State == composer.StateSubmitted {
		res.Post = cmp.LastPost()
	}
	return res
}

// lookupComposer finds the session named by :id or writes a 404.
func (s *Server) lookupComposer(c *fiber.Ctx) (string, *composer.Composer, error) {
	id := c.Params("id")
	cmp, ok := s.composers.Get(id)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Composer session", id))
		return "", nil, errResponseWritten
	}
	return id, cmp, nil
}

// OpenComposer handles POST /api/composer
// @Summary Start a post composer session
// @Tags composer
// @Produce json
// @Success 201 {object} ComposerResponse
// @Router /composer [post]
func (s *Server) OpenComposer(c *fiber.Ctx) error {
	id, cmp, lines, err := s.composers.Open()
	if err != nil {
		if errors.Is(err, composer.ErrTooManySessions) {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{Error: err.Error()})
		}
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(composerResponse(id, cmp, lines))
}

// GetComposer handles GET /api/composer/:id
// @Summary Full transcript of a composer session
// @Tags composer
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} ComposerResponse
// @Router /composer/{id} [get]
func (s *Server) GetComposer(c *fiber.Ctx) error {
	id, cmp, err := s.lookupComposer(c)
	if err != nil {
		return nil
	}
	return c.JSON(composerResponse(id, cmp, cmp.Transcript()))
}

// ComposerInput handles POST /api/composer/:id/input
// @Summary Feed one line to a composer session
// @Tags composer
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body object{line=string} true "Input line"
// @Success 200 {object} ComposerResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /composer/{id}/input [post]
func (s *Server) ComposerInput(c *fiber.Ctx) error {
	id, cmp, err := s.lookupComposer(c)
	if err != nil {
		return nil
	}
	var req struct {
		Line string `json:"line"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	lines, err := cmp.Input(c.UserContext(), req.Line)
	if err != nil {
		if errors.Is(err, composer.ErrInactive) {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("Composer session is no longer active"))
		}
		return respondErr(c, err)
	}
	return c.JSON(composerResponse(id, cmp, lines))
}

// ComposerImage handles POST /api/composer/:id/image
// @Summary Attach an image while the composer waits for one
// @Tags composer
// @Accept mpfd
// @Produce json
// @Param id path string true "Session ID"
// @Param image formData file true "Image"
// @Success 200 {object} ComposerResponse
// @Router /composer/{id}/image [post]
func (s *Server) ComposerImage(c *fiber.Ctx) error {
	id, cmp, err := s.lookupComposer(c)
	if err != nil {
		return nil
	}
	content, name, contentType, err := formFile(c, "image")
	if err != nil {
		return respondErr(c, err)
	}

	lines, err := cmp.Attach(composer.Image{Name: name, ContentType: contentType, Data: content})
	if err != nil {
		if errors.Is(err, composer.ErrInactive) {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("Composer session is no longer active"))
		}
		return respondErr(c, err)
	}
	return c.JSON(composerResponse(id, cmp, lines))
}

// CloseComposer handles DELETE /api/composer/:id
// @Summary Discard a composer session
// @Tags composer
// @Param id path string true "Session ID"
// @Success 204
// @Router /composer/{id} [delete]
func (s *Server) CloseComposer(c *fiber.Ctx) error {
	if !s.composers.Close(c.Params("id")) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Composer session", c.Params("id")))
	}
	return c.SendStatus(fiber.StatusNoContent)
}
