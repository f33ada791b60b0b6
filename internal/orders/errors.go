package orders

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/dentamart/internal/models"
)

var (
	// ErrOrderNotFound is returned when the referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound is returned when a cart line references a missing product.
	ErrProductNotFound = errors.New("product not found")
	// ErrUserNotFound is returned when the checkout customer does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrAddressNotFound is returned when the referenced saved address does not
	// exist or belongs to another user.
	ErrAddressNotFound = errors.New("address not found")
	// ErrPickupBranchNotFound is returned for unknown or inactive pickup branches.
	ErrPickupBranchNotFound = errors.New("pickup branch not found")
	// ErrEmptyCart rejects checkouts without line items.
	ErrEmptyCart = errors.New("order must contain at least one item")
	// ErrUnknownDeliveryMethod rejects delivery methods the store does not offer.
	ErrUnknownDeliveryMethod = errors.New("unknown delivery method")
	// ErrDuplicateOrderNumber signals an order number collision on insert.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
)

// InvalidQuantityError rejects non-positive line quantities.
type InvalidQuantityError struct {
	ProductID uuid.UUID
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for product %s", e.Quantity, e.ProductID)
}

// InsufficientStockError reports a line that asked for more units than the
// product has available. The whole order is rejected, never partially filled.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// ProductUnavailableError reports a line against an inactive or unpublished product.
type ProductUnavailableError struct {
	ProductID   uuid.UUID
	ProductName string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %q is not available for sale", e.ProductName)
}

// InvalidTransitionError reports a status change outside the allowed edges.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// InvalidPaymentChangeError reports a disallowed payment status change.
type InvalidPaymentChangeError struct {
	From models.PaymentStatus
	To   models.PaymentStatus
}

func (e *InvalidPaymentChangeError) Error() string {
	return fmt.Sprintf("cannot change payment status from %s to %s", e.From, e.To)
}
