package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/dentamart/internal/middleware"
	"github.com/example/dentamart/internal/models"
	"github.com/example/dentamart/internal/orders"
	"github.com/example/dentamart/internal/services"
	"github.com/example/dentamart/internal/utils"
)

// OrderHandler manages customer order endpoints. All writes go through the
// lifecycle service; the handler only shapes requests and responses.
type OrderHandler struct {
	svc    *orders.Service
	store  orders.Store
	mailer *services.Mailer
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(svc *orders.Service, store orders.Store, mailer *services.Mailer) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, mailer: mailer}
}

type checkoutItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type checkoutAddressRequest struct {
	AddressLine string `json:"address_line"`
	Apartment   string `json:"apartment"`
	City        string `json:"city"`
	District    string `json:"district"`
	PostalCode  string `json:"postal_code"`
}

type createOrderRequest struct {
	Items          []checkoutItemRequest  `json:"items"`
	DeliveryMethod string                 `json:"delivery_method"`
	AddressID      string                 `json:"address_id"`
	Address        checkoutAddressRequest `json:"address"`
	PickupBranchID string                 `json:"pickup_branch_id"`
	PaymentMethod  string                 `json:"payment_method"`
	Notes          string                 `json:"notes"`
}

// CreateOrder places an order from the customer's cart. Prices, totals and
// the delivery fee are computed server-side; the request only names products
// and quantities.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	input := orders.CheckoutInput{
		UserID:         userID,
		DeliveryMethod: req.DeliveryMethod,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		Address: orders.CheckoutAddress{
			AddressLine: req.Address.AddressLine,
			Apartment:   req.Address.Apartment,
			City:        req.Address.City,
			District:    req.Address.District,
			PostalCode:  req.Address.PostalCode,
		},
	}

	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product_id")
		}
		input.Lines = append(input.Lines, orders.CheckoutLine{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}

	if req.AddressID != "" {
		id, err := uuid.Parse(req.AddressID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid address_id")
		}
		input.AddressID = &id
	}

	if req.PickupBranchID != "" {
		id, err := uuid.Parse(req.PickupBranchID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid pickup_branch_id")
		}
		input.PickupBranchID = &id
	}

	order, err := h.svc.PlaceOrder(c.Context(), input)
	if err != nil {
		return mapOrderError(err)
	}

	go func(order models.Order) {
		if err := h.mailer.SendOrderConfirmation(&order); err != nil {
			log.Printf("[Order] confirmation mail for %s failed: %v", order.OrderNumber, err)
		}
	}(*order)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"placed_at":    order.PlacedAt,
			"subtotal":     order.Subtotal,
			"delivery_fee": order.DeliveryFee,
			"total":        order.TotalAmount,
			"currency":     order.Currency,
		},
	})
}

// ListOrders returns the authenticated user's orders.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	filter := orders.ListFilter{Limit: pg.Limit, Offset: pg.Offset}

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		filter.Status = status
	}

	result, total, err := h.store.OrdersByUser(c.Context(), userID, filter)
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

// GetOrder returns a single order owned by the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return mapOrderError(err)
	}

	if order.UserID != userID {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// CancelOrder lets a customer cancel their own order while it has not
// shipped. The transition restores the deducted stock.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return mapOrderError(err)
	}

	if order.UserID != userID {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}

	updated, err := h.svc.Transition(c.Context(), id, models.OrderCancelled)
	if err != nil {
		return mapOrderError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": updated})
}
