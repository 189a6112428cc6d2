package server

import (
	"errors"
	"io"
	"strings"

	"sudonet/internal/middleware"
	"sudonet/internal/models"
	"sudonet/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// respondErr writes err with the status its code maps to. Internal causes
// are logged here and hidden from the client.
func respondErr(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if errors.Is(err, models.ErrNotConfigured) && models.ErrorCode(err) == "" {
		err = models.NewNotConfiguredError()
	}
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "error", err.Error())
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

// parseID extracts a route parameter as a uuid string.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (string, error) {
	raw := strings.TrimSpace(c.Params(param))
	if _, err := uuid.Parse(raw); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return "", errResponseWritten
	}
	return raw, nil
}

func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	return param
}

// identity returns the caller set by AuthRequired or optionalUser.
func identity(c *fiber.Ctx) *session.Identity {
	id, _ := c.Locals("identity").(*session.Identity)
	return id
}

// formFile reads a multipart file field. A missing field returns nil content
// and no error.
func formFile(c *fiber.Ctx, field string) ([]byte, string, string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, "", "", nil
	}
	src, err := file.Open()
	if err != nil {
		return nil, "", "", models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, "", "", models.NewValidationError("Unable to read uploaded file")
	}
	return content, file.Filename, file.Header.Get("Content-Type"), nil
}
