package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/dentamart/internal/models"
	"github.com/example/dentamart/internal/orders"
)

// Store is the Postgres-backed implementation of orders.Store. All multi-row
// writes run inside a single transaction and stock decrements are guarded at
// the SQL level, so concurrent checkouts cannot oversell.
type Store struct {
	db *gorm.DB
}

var _ orders.Store = (*Store)(nil)

// NewStore wraps a gorm connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for handlers that run plain catalog
// queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orders.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orders.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) AddressByID(ctx context.Context, id, userID uuid.UUID) (*models.UserAddress, error) {
	var address models.UserAddress
	if err := s.db.WithContext(ctx).
		First(&address, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orders.ErrAddressNotFound
		}
		return nil, err
	}
	return &address, nil
}

func (s *Store) PickupBranchByID(ctx context.Context, id uuid.UUID) (*models.PickupBranch, error) {
	var branch models.PickupBranch
	if err := s.db.WithContext(ctx).
		First(&branch, "id = ? AND is_active = true", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orders.ErrPickupBranchNotFound
		}
		return nil, err
	}
	return &branch, nil
}

func (s *Store) OrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orders.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *Store) OrdersByUser(ctx context.Context, userID uuid.UUID, f orders.ListFilter) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return s.listOrders(query, f)
}

func (s *Store) Orders(ctx context.Context, f orders.ListFilter) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if f.Search != "" {
		q := "%" + f.Search + "%"
		query = query.Where(
			"order_number ILIKE ? OR customer_name ILIKE ? OR customer_email ILIKE ?",
			q, q, q,
		)
	}
	return s.listOrders(query, f)
}

func (s *Store) listOrders(query *gorm.DB, f orders.ListFilter) ([]models.Order, int64, error) {
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var result []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(f.Limit).Offset(f.Offset).
		Find(&result).Error; err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

// PlaceOrder decrements stock and inserts the order in one transaction. Each
// decrement only matches rows that still have enough units; an unmatched row
// means another order got there first and the whole transaction rolls back.
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order, stock []orders.StockLine) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range stock {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity >= ?", line.ProductID, line.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", line.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return stockConflict(tx, line)
			}
		}

		if err := tx.Create(order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return orders.ErrDuplicateOrderNumber
			}
			return err
		}
		return nil
	})
}

// stockConflict rebuilds the user-facing error for a failed guarded decrement.
func stockConflict(tx *gorm.DB, line orders.StockLine) error {
	var product models.Product
	if err := tx.First(&product, "id = ?", line.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return orders.ErrProductNotFound
		}
		return err
	}
	return &orders.InsufficientStockError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   line.Quantity,
		Available:   product.StockQuantity,
	}
}

// UpdateOrderStatus writes the new status and, for pre-shipment
// cancellations, restores the deducted stock in the same transaction. The
// status write only matches the row while it still holds the from status; a
// zero-row update means another transition won the race and the whole
// transaction rolls back without touching stock.
func (s *Store) UpdateOrderStatus(ctx context.Context, order *models.Order, from models.OrderStatus, restock []orders.StockLine) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, from).
			Update("status", order.Status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return transitionConflict(tx, order)
		}

		for _, line := range restock {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", line.ProductID).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", line.Quantity)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// transitionConflict rebuilds the user-facing error for a failed guarded
// status write.
func transitionConflict(tx *gorm.DB, order *models.Order) error {
	var current models.Order
	if err := tx.Select("status").First(&current, "id = ?", order.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return orders.ErrOrderNotFound
		}
		return err
	}
	return &orders.InvalidTransitionError{From: current.Status, To: order.Status}
}

func (s *Store) UpdateOrderPayment(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"payment_status":    order.PaymentStatus,
			"payment_proof_url": order.PaymentProofURL,
		}).Error
}

// Snapshot reads all dashboard aggregates inside one transaction so counts
// and alerts reflect a single instant.
func (s *Store) Snapshot(ctx context.Context) (*orders.InventorySnapshot, error) {
	snapshot := &orders.InventorySnapshot{
		OrdersByStatus: make(map[models.OrderStatus]int64),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).Count(&snapshot.TotalOrders).Error; err != nil {
			return err
		}

		type statusCount struct {
			Status models.OrderStatus
			Count  int64
		}
		var counts []statusCount
		if err := tx.Model(&models.Order{}).
			Select("status, count(*) as count").
			Group("status").
			Scan(&counts).Error; err != nil {
			return err
		}
		for _, sc := range counts {
			snapshot.OrdersByStatus[sc.Status] = sc.Count
		}

		if err := tx.Model(&models.Order{}).
			Where("status != ?", models.OrderCancelled).
			Select("COALESCE(SUM(total_amount), 0)").
			Scan(&snapshot.TotalRevenue).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Order{}).
			Where("status != ? AND placed_at::date = CURRENT_DATE", models.OrderCancelled).
			Select("COALESCE(SUM(total_amount), 0)").
			Scan(&snapshot.TodayRevenue).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Product{}).
			Select("id as product_id, sku, name, stock_quantity").
			Where("is_active = true AND stock_quantity BETWEEN 1 AND 5").
			Order("stock_quantity asc").
			Scan(&snapshot.LowStock).Error; err != nil {
			return err
		}

		return tx.Model(&models.Product{}).
			Select("id as product_id, sku, name, stock_quantity").
			Where("is_active = true AND stock_quantity = 0").
			Order("name asc").
			Scan(&snapshot.OutOfStock).Error
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}
