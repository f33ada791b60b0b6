package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/dentamart/internal/models"
	"github.com/example/dentamart/internal/orders"
	"github.com/example/dentamart/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db    *gorm.DB
	svc   *orders.Service
	store orders.Store
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, svc *orders.Service, store orders.Store) *AdminHandler {
	return &AdminHandler{db: db, svc: svc, store: store}
}

// DashboardStats returns order and inventory aggregates for the dashboard.
// Everything comes from one consistent snapshot.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	snapshot, err := h.svc.Snapshot(c.Context())
	if err != nil {
		return err
	}

	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":      totalUsers,
			"total_orders":     snapshot.TotalOrders,
			"orders_by_status": snapshot.OrdersByStatus,
			"total_revenue":    snapshot.TotalRevenue,
			"today_revenue":    snapshot.TodayRevenue,
			"low_stock":        snapshot.LowStock,
			"out_of_stock":     snapshot.OutOfStock,
		},
	})
}

// ListAllOrders returns all orders with pagination, filtering and search.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	filter := orders.ListFilter{
		Search: c.Query("search"),
		Limit:  pg.Limit,
		Offset: pg.Offset,
	}

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		filter.Status = status
	}

	result, total, err := h.store.Orders(c.Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// RecentOrders returns the most recent 5 orders for the dashboard.
func (h *AdminHandler) RecentOrders(c *fiber.Ctx) error {
	result, _, err := h.store.Orders(c.Context(), orders.ListFilter{Limit: 5})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order along the lifecycle state machine.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	target, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	order, err := h.svc.Transition(c.Context(), id, target)
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updatePaymentRequest struct {
	Status   string `json:"status"`
	ProofURL string `json:"proof_url"`
}

// UpdateOrderPayment updates the payment status and optional proof image.
func (h *AdminHandler) UpdateOrderPayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	target, err := models.ParsePaymentStatus(req.Status)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	order, err := h.svc.MarkPayment(c.Context(), id, target, req.ProofURL)
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// ExportOrders streams the (optionally filtered) order list as CSV.
func (h *AdminHandler) ExportOrders(c *fiber.Ctx) error {
	query := h.db.Model(&models.Order{}).Preload("Items").Order("placed_at desc")

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		query = query.Where("status = ?", status)
	}

	var all []models.Order
	if err := query.Find(&all).Error; err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"order_number", "placed_at", "status", "payment_method", "payment_status",
		"customer_name", "customer_email", "customer_phone",
		"delivery_method", "items", "subtotal", "delivery_fee", "total", "currency",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, order := range all {
		var items []string
		for _, item := range order.Items {
			items = append(items, fmt.Sprintf("%s x%d", item.ProductName, item.Quantity))
		}

		record := []string{
			order.OrderNumber,
			order.PlacedAt.Format(time.RFC3339),
			string(order.Status),
			order.PaymentMethod,
			string(order.PaymentStatus),
			order.CustomerName,
			order.CustomerEmail,
			order.CustomerPhone,
			order.DeliveryMethod,
			strings.Join(items, "; "),
			strconv.FormatFloat(order.Subtotal, 'f', 2, 64),
			strconv.FormatFloat(order.DeliveryFee, 'f', 2, 64),
			strconv.FormatFloat(order.TotalAmount, 'f', 2, 64),
			order.Currency,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	filename := "orders-" + time.Now().Format("20060102") + ".csv"
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}

// ListAllUsers returns registered users with pagination and search.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.User{})

	if search := c.Query("search"); search != "" {
		q := "%" + search + "%"
		query = query.Where(
			"first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?",
			q, q, q,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	// Select specific fields to avoid exposing the password hash.
	var users []models.User
	if err := query.Select("id, first_name, last_name, email, phone, role, is_verified, is_active, photo_url, created_at, updated_at").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	type userStats struct {
		UserID     string  `json:"user_id"`
		OrderCount int64   `json:"order_count"`
		TotalSpent float64 `json:"total_spent"`
	}

	var stats []userStats
	if err := h.db.Model(&models.Order{}).
		Where("status != ?", models.OrderCancelled).
		Select("user_id, count(*) as order_count, COALESCE(SUM(total_amount), 0) as total_spent").
		Group("user_id").
		Scan(&stats).Error; err != nil {
		return err
	}

	statsMap := make(map[string]userStats)
	for _, s := range stats {
		statsMap[s.UserID] = s
	}

	type userRow struct {
		models.User
		OrderCount int64   `json:"order_count"`
		TotalSpent float64 `json:"total_spent"`
	}

	result := make([]userRow, len(users))
	for i, u := range users {
		result[i] = userRow{User: u}
		if s, ok := statsMap[u.ID.String()]; ok {
			result[i].OrderCount = s.OrderCount
			result[i].TotalSpent = s.TotalSpent
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type updateUserRequest struct {
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
}

// UpdateUser promotes/demotes a user or toggles the active flag.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Role != "" {
		role := models.Role(req.Role)
		if role != models.RoleUser && role != models.RoleAdmin {
			return fiber.NewError(fiber.StatusBadRequest, "unknown role")
		}
		updates["role"] = role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	res := h.db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": userResponse(&user)})
}
