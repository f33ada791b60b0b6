package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/dentamart/internal/models"
)

// StockLine is a product/quantity pair adjusted against inventory.
type StockLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// StockAlert flags a product whose stock level needs attention.
type StockAlert struct {
	ProductID     uuid.UUID `json:"product_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	StockQuantity int       `json:"stock_quantity"`
}

// InventorySnapshot is a single consistent read of order and stock aggregates
// used by the admin dashboard.
type InventorySnapshot struct {
	TotalOrders    int64                        `json:"total_orders"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"orders_by_status"`
	TotalRevenue   float64                      `json:"total_revenue"`
	TodayRevenue   float64                      `json:"today_revenue"`
	LowStock       []StockAlert                 `json:"low_stock"`
	OutOfStock     []StockAlert                 `json:"out_of_stock"`
}

// ListFilter narrows order listings.
type ListFilter struct {
	Status models.OrderStatus
	Search string
	Limit  int
	Offset int
}

// Store is the persistence contract for the order lifecycle. PlaceOrder and
// UpdateOrderStatus must be atomic: either every stock adjustment and the
// order write commit together or nothing does. Stock decrements must be
// guarded (succeed only while stock_quantity >= requested) so two checkouts
// racing for the last units can never drive stock negative. The status write
// is equally guarded: it only matches a row still holding the from status, so
// two racing transitions on the same order cannot both restock.
type Store interface {
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	AddressByID(ctx context.Context, id, userID uuid.UUID) (*models.UserAddress, error)
	PickupBranchByID(ctx context.Context, id uuid.UUID) (*models.PickupBranch, error)

	OrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	OrdersByUser(ctx context.Context, userID uuid.UUID, f ListFilter) ([]models.Order, int64, error)
	Orders(ctx context.Context, f ListFilter) ([]models.Order, int64, error)

	PlaceOrder(ctx context.Context, order *models.Order, stock []StockLine) error
	UpdateOrderStatus(ctx context.Context, order *models.Order, from models.OrderStatus, restock []StockLine) error
	UpdateOrderPayment(ctx context.Context, order *models.Order) error

	Snapshot(ctx context.Context) (*InventorySnapshot, error)
}
