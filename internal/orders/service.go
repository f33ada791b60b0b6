package orders

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/example/dentamart/internal/models"
)

// Delivery methods offered at checkout. The fee is always resolved server
// side; client-supplied totals are ignored.
const (
	DeliveryCourier = "courier"
	DeliveryPickup  = "pickup"
)

const orderNumberAttempts = 3

// CheckoutLine is a product/quantity pair from the customer's cart.
type CheckoutLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// CheckoutAddress carries inline shipping details for courier delivery.
type CheckoutAddress struct {
	AddressLine string
	Apartment   string
	City        string
	District    string
	PostalCode  string
}

// CheckoutInput is everything needed to place an order.
type CheckoutInput struct {
	UserID         uuid.UUID
	Lines          []CheckoutLine
	DeliveryMethod string
	// AddressID selects a saved address; when nil, Address is used as given.
	AddressID      *uuid.UUID
	Address        CheckoutAddress
	PickupBranchID *uuid.UUID
	PaymentMethod  string
	Notes          string
}

// Service owns the order lifecycle: creation from a cart snapshot, status
// transitions along the allowed edges, and the stock arithmetic that keeps
// inventory consistent with orders.
type Service struct {
	store      Store
	courierFee float64
	currency   string
}

// NewService constructs the lifecycle service.
func NewService(store Store, courierFee float64, currency string) *Service {
	return &Service{store: store, courierFee: courierFee, currency: currency}
}

// PlaceOrder validates the cart, snapshots product data into line items,
// computes totals server-side and persists the order atomically with the
// matching stock decrements. Any failed line rejects the whole order.
func (s *Service) PlaceOrder(ctx context.Context, in CheckoutInput) (*models.Order, error) {
	if len(in.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	for _, line := range in.Lines {
		if line.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: line.ProductID, Quantity: line.Quantity}
		}
	}

	user, err := s.store.UserByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		UserID:        user.ID,
		Status:        models.OrderPending,
		PlacedAt:      time.Now(),
		CustomerName:  user.DisplayName(),
		CustomerEmail: user.Email,
		CustomerPhone: user.Phone,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: models.PaymentUnpaid,
		Currency:      s.currency,
		Notes:         in.Notes,
	}

	if err := s.resolveDelivery(ctx, &order, in); err != nil {
		return nil, err
	}

	// Merge duplicate cart lines so the stock guard sees one adjustment per
	// product.
	wanted := make(map[uuid.UUID]int, len(in.Lines))
	lineOrder := make([]uuid.UUID, 0, len(in.Lines))
	for _, line := range in.Lines {
		if _, seen := wanted[line.ProductID]; !seen {
			lineOrder = append(lineOrder, line.ProductID)
		}
		wanted[line.ProductID] += line.Quantity
	}

	var subtotal float64
	stock := make([]StockLine, 0, len(lineOrder))
	for _, productID := range lineOrder {
		qty := wanted[productID]

		product, err := s.store.ProductByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		if !product.Sellable() {
			return nil, &ProductUnavailableError{ProductID: product.ID, ProductName: product.Name}
		}
		if product.StockQuantity < qty {
			return nil, &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   qty,
				Available:   product.StockQuantity,
			}
		}

		id := product.ID
		lineTotal := product.Price * float64(qty)
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   &id,
			ProductName: product.Name,
			ProductSKU:  product.SKU,
			ImageURL:    product.ImageURL,
			Quantity:    qty,
			UnitPrice:   product.Price,
			LineTotal:   lineTotal,
		})
		stock = append(stock, StockLine{ProductID: product.ID, Quantity: qty})
		subtotal += lineTotal
	}

	order.Subtotal = subtotal
	order.TotalAmount = subtotal + order.DeliveryFee

	// The pre-checks above give friendly errors, but the store's guarded
	// decrement is what actually prevents overselling under concurrency.
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber, err = generateOrderNumber()
		if err != nil {
			return nil, err
		}
		err = s.store.PlaceOrder(ctx, &order, stock)
		if !errors.Is(err, ErrDuplicateOrderNumber) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (s *Service) resolveDelivery(ctx context.Context, order *models.Order, in CheckoutInput) error {
	switch in.DeliveryMethod {
	case DeliveryCourier:
		order.DeliveryMethod = DeliveryCourier
		order.DeliveryFee = s.courierFee

		addr := in.Address
		if in.AddressID != nil {
			saved, err := s.store.AddressByID(ctx, *in.AddressID, in.UserID)
			if err != nil {
				return err
			}
			addr = CheckoutAddress{
				AddressLine: saved.AddressLine,
				Apartment:   saved.Apartment,
				City:        saved.City,
				District:    saved.District,
				PostalCode:  saved.PostalCode,
			}
		}
		order.DeliveryAddressLine = addr.AddressLine
		order.DeliveryApartment = addr.Apartment
		order.DeliveryCity = addr.City
		order.DeliveryDistrict = addr.District
		order.DeliveryPostalCode = addr.PostalCode
		return nil

	case DeliveryPickup:
		if in.PickupBranchID == nil {
			return ErrPickupBranchNotFound
		}
		branch, err := s.store.PickupBranchByID(ctx, *in.PickupBranchID)
		if err != nil {
			return err
		}
		order.DeliveryMethod = DeliveryPickup
		order.DeliveryFee = 0
		order.PickupBranchID = &branch.ID
		return nil
	}

	return ErrUnknownDeliveryMethod
}

// Transition moves an order along the status state machine. Cancelling an
// order that has not shipped yet restores the deducted stock; the restore
// commits in the same transaction as the status write. The write itself is
// conditional on the order still holding the status the check saw, so two
// racing transitions cannot both apply (and cannot restock twice).
func (s *Service) Transition(ctx context.Context, orderID uuid.UUID, target models.OrderStatus) (*models.Order, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if !from.CanTransition(target) {
		return nil, &InvalidTransitionError{From: from, To: target}
	}

	var restock []StockLine
	if target == models.OrderCancelled && from.RestocksOnCancel() {
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			restock = append(restock, StockLine{ProductID: *item.ProductID, Quantity: item.Quantity})
		}
	}

	order.Status = target
	if err := s.store.UpdateOrderStatus(ctx, order, from, restock); err != nil {
		return nil, err
	}

	return order, nil
}

// MarkPayment updates the payment side of an order. PAID cannot regress to
// UNPAID and REFUNDED is only reachable from PAID.
func (s *Service) MarkPayment(ctx context.Context, orderID uuid.UUID, target models.PaymentStatus, proofURL string) (*models.Order, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if target != order.PaymentStatus {
		switch {
		case order.PaymentStatus == models.PaymentPaid && target == models.PaymentUnpaid:
			return nil, &InvalidPaymentChangeError{From: order.PaymentStatus, To: target}
		case target == models.PaymentRefunded && order.PaymentStatus != models.PaymentPaid:
			return nil, &InvalidPaymentChangeError{From: order.PaymentStatus, To: target}
		}
	}

	order.PaymentStatus = target
	if proofURL != "" {
		order.PaymentProofURL = proofURL
	}
	if err := s.store.UpdateOrderPayment(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// Snapshot returns dashboard aggregates read in one consistent view.
func (s *Service) Snapshot(ctx context.Context) (*InventorySnapshot, error) {
	return s.store.Snapshot(ctx)
}

// Get loads a single order with its items.
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.store.OrderByID(ctx, orderID)
}

// generateOrderNumber builds the human-facing order reference. The date
// prefix keeps numbers roughly sequential; the random suffix avoids guessable
// identifiers. Collisions are handled by the insert retry in PlaceOrder.
func generateOrderNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("DM-%s-%06d", time.Now().Format("20060102"), n.Int64()), nil
}
