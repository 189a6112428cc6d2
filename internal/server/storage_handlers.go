package server

import (
	"sudonet/internal/models"
	"sudonet/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /api/images
// @Summary Upload a post image
// @Description Stores the image in the post-images bucket and returns its public URLs.
// @Tags images
// @Accept mpfd
// @Produce json
// @Param image formData file true "Image"
// @Success 201 {object} storage.Object
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /images [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	content, _, contentType, err := formFile(c, "image")
	if err != nil {
		return respondErr(c, err)
	}
	if len(content) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	obj, err := s.store.Upload(c.UserContext(), storage.UploadInput{
		Bucket:      storage.BucketPostImages,
		Key:         storage.PostImageKey(),
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(obj)
}

// ServeObject handles GET /storage/:bucket/*
func (s *Server) ServeObject(c *fiber.Ctx) error {
	path, err := s.store.Resolve(c.Params("bucket"), c.Params("*"))
	if err != nil {
		return respondErr(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.SendFile(path)
}
