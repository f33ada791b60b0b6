package models

import "fmt"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions is the allowed-edge table. DELIVERED and CANCELLED are
// terminal and have no outgoing edges. CANCELLED is not reachable once an
// order has shipped.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
}

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch s := OrderStatus(raw); s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return s, nil
	}
	return "", fmt.Errorf("unknown order status %q", raw)
}

// CanTransition reports whether to is reachable from from in one step.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// RestocksOnCancel reports whether cancelling from this status returns the
// deducted quantities to inventory. Once the parcel left the warehouse the
// stock is no longer ours to restore.
func (s OrderStatus) RestocksOnCancel() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing:
		return true
	}
	return false
}

// PaymentStatus tracks the payment side of an order independently of the
// fulfilment lifecycle.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// ParsePaymentStatus validates a raw payment status string.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch s := PaymentStatus(raw); s {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return s, nil
	}
	return "", fmt.Errorf("unknown payment status %q", raw)
}

// ProductStatus is the publication state of a product.
type ProductStatus string

const (
	ProductDraft     ProductStatus = "DRAFT"
	ProductPublished ProductStatus = "PUBLISHED"
	ProductArchived  ProductStatus = "ARCHIVED"
)

// ParseProductStatus validates a raw product status string.
func ParseProductStatus(raw string) (ProductStatus, error) {
	switch s := ProductStatus(raw); s {
	case ProductDraft, ProductPublished, ProductArchived:
		return s, nil
	}
	return "", fmt.Errorf("unknown product status %q", raw)
}

// Role distinguishes storefront customers from back-office staff.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)
