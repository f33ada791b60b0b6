package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/dentamart/internal/models"
	"github.com/example/dentamart/internal/utils"
)

// ProductHandler manages product CRUD.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// RegisterProductRoutes wires product endpoints onto the given router groups.
func (h *ProductHandler) RegisterProductRoutes(public fiber.Router, admin fiber.Router) {
	public.Get("/", h.ListProducts)
	public.Get("/:id", h.GetProduct)

	admin.Get("/", h.ListAllProducts)
	admin.Post("/", h.CreateProduct)
	admin.Put("/:id", h.UpdateProduct)
	admin.Patch("/:id/stock", h.AdjustStock)
	admin.Delete("/:id", h.DeleteProduct)
}

// ListProducts returns the storefront catalog: active, published products
// with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	query := h.db.Model(&models.Product{}).
		Where("is_active = true AND status = ?", models.ProductPublished)
	return h.list(c, query)
}

// ListAllProducts returns every product for the back office, with an
// optional publication status filter.
func (h *ProductHandler) ListAllProducts(c *fiber.Ctx) error {
	query := h.db.Model(&models.Product{})
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseProductStatus(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		query = query.Where("status = ?", status)
	}
	return h.list(c, query)
}

func (h *ProductHandler) list(c *fiber.Ctx, query *gorm.DB) error {
	pg := utils.ParsePagination(c)

	if v := c.Query("category_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			query = query.Where("category_id = ?", id)
		}
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("name ILIKE ? OR sku ILIKE ? OR description ILIKE ?", q, q, q)
	}

	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", val)
		}
	}

	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", val)
		}
	}

	if c.Query("in_stock") == "true" {
		query = query.Where("stock_quantity > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Category").
		Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetProduct loads a product by id.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

type productRequest struct {
	SKU           string  `json:"sku"`
	Slug          string  `json:"slug"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	StockQuantity int     `json:"stock_quantity"`
	Status        string  `json:"status"`
	IsActive      *bool   `json:"is_active"`
	ImageURL      string  `json:"image_url"`
	Manufacturer  string  `json:"manufacturer"`
	CategoryID    string  `json:"category_id"`
}

func (r *productRequest) apply(product *models.Product) error {
	if r.Name == "" || r.SKU == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and sku are required")
	}
	if r.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price cannot be negative")
	}
	if r.StockQuantity < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "stock quantity cannot be negative")
	}

	status := models.ProductDraft
	if r.Status != "" {
		parsed, err := models.ParseProductStatus(r.Status)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		status = parsed
	}

	product.SKU = r.SKU
	product.Slug = r.Slug
	if product.Slug == "" {
		product.Slug = utils.Slugify(r.Name)
	}
	product.Name = r.Name
	product.Description = r.Description
	product.Price = r.Price
	product.Currency = r.Currency
	product.StockQuantity = r.StockQuantity
	product.Status = status
	product.IsActive = true
	if r.IsActive != nil {
		product.IsActive = *r.IsActive
	}
	product.ImageURL = r.ImageURL
	product.Manufacturer = r.Manufacturer

	product.CategoryID = nil
	if r.CategoryID != "" {
		id, err := uuid.Parse(r.CategoryID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category_id")
		}
		product.CategoryID = &id
	}

	return nil
}

// CreateProduct handles product creation.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var product models.Product
	if err := req.apply(&product); err != nil {
		return err
	}

	if err := h.db.Create(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "sku or slug already in use")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct updates an existing product. Stock changes through this
// endpoint are absolute; racing checkout decrements should go through
// AdjustStock instead.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := req.apply(&product); err != nil {
		return err
	}

	if err := h.db.Save(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "sku or slug already in use")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

// AdjustStock applies a relative stock correction (restock or write-off). The
// guard keeps the quantity from going negative even under concurrent orders.
func (h *ProductHandler) AdjustStock(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req adjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Delta == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "delta must be non-zero")
	}

	res := h.db.Model(&models.Product{}).
		Where("id = ? AND stock_quantity + ? >= 0", id, req.Delta).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", req.Delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var product models.Product
		if err := h.db.First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "product not found")
			}
			return err
		}
		return fiber.NewError(fiber.StatusConflict, "stock cannot go negative")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct archives the product instead of hard-deleting it so existing
// order snapshots keep a valid reference.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	res := h.db.Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    models.ProductArchived,
			"is_active": false,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
