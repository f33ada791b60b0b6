package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/dentamart/internal/models"
	"github.com/example/dentamart/internal/utils"
)

// CatalogHandler manages categories and pickup branches.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// ListCategories returns paginated categories. Customers only see active
// ones; the admin back office passes include_inactive.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Category{})

	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var categories []models.Category
	if err := query.Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&categories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetCategory returns a single category by ID.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

type categoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	IsActive    *bool  `json:"is_active"`
}

func (r *categoryRequest) apply(category *models.Category) error {
	if r.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	category.Name = r.Name
	category.Slug = r.Slug
	if category.Slug == "" {
		category.Slug = utils.Slugify(r.Name)
	}
	category.Description = r.Description
	category.ImageURL = r.ImageURL
	category.IsActive = true
	if r.IsActive != nil {
		category.IsActive = *r.IsActive
	}
	return nil
}

// CreateCategory persists a new category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var category models.Category
	if err := req.apply(&category); err != nil {
		return err
	}

	if err := h.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "slug already in use")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": category})
}

// UpdateCategory updates an existing category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := req.apply(&category); err != nil {
		return err
	}

	if err := h.db.Save(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "slug already in use")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// DeleteCategory removes a category. Products keep a dangling weak reference
// and are not touched.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Category{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListPickupBranches returns active pickup locations.
func (h *CatalogHandler) ListPickupBranches(c *fiber.Ctx) error {
	query := h.db.Model(&models.PickupBranch{})
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = true")
	}

	var branches []models.PickupBranch
	if err := query.Order("name asc").Find(&branches).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": branches})
}

// CreatePickupBranch persists a new pickup location.
func (h *CatalogHandler) CreatePickupBranch(c *fiber.Ctx) error {
	var branch models.PickupBranch
	if err := c.BodyParser(&branch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if branch.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	if err := h.db.Create(&branch).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": branch})
}

// UpdatePickupBranch updates an existing pickup location.
func (h *CatalogHandler) UpdatePickupBranch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var branch models.PickupBranch
	if err := h.db.First(&branch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "pickup branch not found")
		}
		return err
	}

	var payload models.PickupBranch
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = branch.ID
	payload.CreatedAt = branch.CreatedAt
	if err := h.db.Save(&payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": payload})
}

// DeletePickupBranch removes a pickup location.
func (h *CatalogHandler) DeletePickupBranch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.PickupBranch{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
