package services

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

const maxUploadSize = 5 << 20 // 5 MiB

// FileStorage saves uploaded images on local disk and hands back stable
// public URLs. The rest of the system treats those URLs as opaque strings.
type FileStorage struct {
	dir     string
	baseURL string
}

// NewFileStorage ensures the upload directory exists.
func NewFileStorage(dir, baseURL string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory uploads are stored in, for static serving.
func (s *FileStorage) Dir() string {
	return s.dir
}

// Save validates and stores an uploaded image, returning its public URL.
func (s *FileStorage) Save(c *fiber.Ctx, file *multipart.FileHeader) (string, error) {
	if file.Size > maxUploadSize {
		return "", fiber.NewError(fiber.StatusBadRequest, "file too large")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExtensions[ext] {
		return "", fiber.NewError(fiber.StatusBadRequest, "unsupported file type")
	}

	name := uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join(s.dir, name)); err != nil {
		return "", err
	}

	return s.baseURL + "/uploads/" + name, nil
}
