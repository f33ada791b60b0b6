package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/dentamart/internal/services"
)

// UploadHandler accepts image uploads (product photos, payment proofs,
// profile photos) and returns stable public URLs.
type UploadHandler struct {
	storage *services.FileStorage
}

// NewUploadHandler constructs UploadHandler.
func NewUploadHandler(storage *services.FileStorage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// UploadImage stores a single multipart file under the "file" field.
func (h *UploadHandler) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}

	url, err := h.storage.Save(c, file)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"url": url},
	})
}
