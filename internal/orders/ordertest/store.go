// Package ordertest provides an in-memory orders.Store for tests.
package ordertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/dentamart/internal/models"
	"github.com/example/dentamart/internal/orders"
)

// MemStore implements orders.Store on top of mutex-guarded maps. Writes
// follow the same all-or-nothing and guarded-decrement semantics the
// Postgres store provides, which makes it suitable for exercising the
// lifecycle service's concurrency behavior.
type MemStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	products  map[uuid.UUID]*models.Product
	addresses map[uuid.UUID]*models.UserAddress
	branches  map[uuid.UUID]*models.PickupBranch
	orders    map[uuid.UUID]*models.Order
	numbers   map[string]bool
}

var _ orders.Store = (*MemStore)(nil)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		users:     make(map[uuid.UUID]*models.User),
		products:  make(map[uuid.UUID]*models.Product),
		addresses: make(map[uuid.UUID]*models.UserAddress),
		branches:  make(map[uuid.UUID]*models.PickupBranch),
		orders:    make(map[uuid.UUID]*models.Order),
		numbers:   make(map[string]bool),
	}
}

// AddUser seeds a user and returns it with an assigned ID.
func (s *MemStore) AddUser(user models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = &user
	return &user
}

// AddProduct seeds a product and returns it with an assigned ID.
func (s *MemStore) AddProduct(product models.Product) *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	s.products[product.ID] = &product
	return &product
}

// AddAddress seeds a saved address.
func (s *MemStore) AddAddress(address models.UserAddress) *models.UserAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	s.addresses[address.ID] = &address
	return &address
}

// AddBranch seeds a pickup branch.
func (s *MemStore) AddBranch(branch models.PickupBranch) *models.PickupBranch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if branch.ID == uuid.Nil {
		branch.ID = uuid.New()
	}
	s.branches[branch.ID] = &branch
	return &branch
}

// StockOf reports the current stock level of a seeded product.
func (s *MemStore) StockOf(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		return p.StockQuantity
	}
	return -1
}

// OrderCount reports how many orders have been persisted.
func (s *MemStore) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *MemStore) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, orders.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemStore) ProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok {
		return nil, orders.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (s *MemStore) AddressByID(_ context.Context, id, userID uuid.UUID) (*models.UserAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	address, ok := s.addresses[id]
	if !ok || address.UserID != userID {
		return nil, orders.ErrAddressNotFound
	}
	copied := *address
	return &copied, nil
}

func (s *MemStore) PickupBranchByID(_ context.Context, id uuid.UUID) (*models.PickupBranch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	branch, ok := s.branches[id]
	if !ok || !branch.IsActive {
		return nil, orders.ErrPickupBranchNotFound
	}
	copied := *branch
	return &copied, nil
}

func (s *MemStore) OrderByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	return copyOrder(order), nil
}

func (s *MemStore) OrdersByUser(_ context.Context, userID uuid.UUID, f orders.ListFilter) ([]models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(f, func(o *models.Order) bool { return o.UserID == userID })
}

func (s *MemStore) Orders(_ context.Context, f orders.ListFilter) ([]models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(f, func(*models.Order) bool { return true })
}

func (s *MemStore) list(f orders.ListFilter, match func(*models.Order) bool) ([]models.Order, int64, error) {
	var all []*models.Order
	for _, order := range s.orders {
		if !match(order) {
			continue
		}
		if f.Status != "" && order.Status != f.Status {
			continue
		}
		all = append(all, order)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].PlacedAt.After(all[j].PlacedAt)
	})

	total := int64(len(all))

	if f.Offset > 0 {
		if f.Offset >= len(all) {
			all = nil
		} else {
			all = all[f.Offset:]
		}
	}
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}

	result := make([]models.Order, 0, len(all))
	for _, order := range all {
		result = append(result, *copyOrder(order))
	}
	return result, total, nil
}

// PlaceOrder checks every stock line before mutating anything so the write
// stays all-or-nothing, mirroring the SQL transaction.
func (s *MemStore) PlaceOrder(_ context.Context, order *models.Order, stock []orders.StockLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.numbers[order.OrderNumber] {
		return orders.ErrDuplicateOrderNumber
	}

	for _, line := range stock {
		product, ok := s.products[line.ProductID]
		if !ok {
			return orders.ErrProductNotFound
		}
		if product.StockQuantity < line.Quantity {
			return &orders.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.StockQuantity,
			}
		}
	}

	for _, line := range stock {
		s.products[line.ProductID].StockQuantity -= line.Quantity
	}

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}

	s.numbers[order.OrderNumber] = true
	s.orders[order.ID] = copyOrder(order)
	return nil
}

// UpdateOrderStatus applies the status only while the stored order still
// holds the from status, mirroring the SQL compare-and-swap. A lost race
// leaves stock untouched.
func (s *MemStore) UpdateOrderStatus(_ context.Context, order *models.Order, from models.OrderStatus, restock []orders.StockLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[order.ID]
	if !ok {
		return orders.ErrOrderNotFound
	}
	if stored.Status != from {
		return &orders.InvalidTransitionError{From: stored.Status, To: order.Status}
	}

	for _, line := range restock {
		if product, ok := s.products[line.ProductID]; ok {
			product.StockQuantity += line.Quantity
		}
	}

	stored.Status = order.Status
	stored.UpdatedAt = time.Now()
	return nil
}

func (s *MemStore) UpdateOrderPayment(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[order.ID]
	if !ok {
		return orders.ErrOrderNotFound
	}

	stored.PaymentStatus = order.PaymentStatus
	stored.PaymentProofURL = order.PaymentProofURL
	stored.UpdatedAt = time.Now()
	return nil
}

func (s *MemStore) Snapshot(_ context.Context) (*orders.InventorySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := &orders.InventorySnapshot{
		OrdersByStatus: make(map[models.OrderStatus]int64),
	}

	today := time.Now().Truncate(24 * time.Hour)
	for _, order := range s.orders {
		snapshot.TotalOrders++
		snapshot.OrdersByStatus[order.Status]++
		if order.Status != models.OrderCancelled {
			snapshot.TotalRevenue += order.TotalAmount
			if !order.PlacedAt.Before(today) {
				snapshot.TodayRevenue += order.TotalAmount
			}
		}
	}

	for _, product := range s.products {
		if !product.IsActive {
			continue
		}
		alert := orders.StockAlert{
			ProductID:     product.ID,
			SKU:           product.SKU,
			Name:          product.Name,
			StockQuantity: product.StockQuantity,
		}
		switch {
		case product.StockQuantity == 0:
			snapshot.OutOfStock = append(snapshot.OutOfStock, alert)
		case product.StockQuantity <= 5:
			snapshot.LowStock = append(snapshot.LowStock, alert)
		}
	}

	return snapshot, nil
}

func copyOrder(order *models.Order) *models.Order {
	copied := *order
	copied.Items = make([]models.OrderItem, len(order.Items))
	copy(copied.Items, order.Items)
	return &copied
}
