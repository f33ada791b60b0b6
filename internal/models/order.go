package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is created once at checkout from a cart snapshot and afterwards
// mutated only through status and payment updates. Line items, prices and the
// customer fields are copies taken at placement time so historical orders stay
// stable when products or profiles change later.
type Order struct {
	BaseModel
	UserID      uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	User        *User       `json:"user,omitempty"`
	OrderNumber string      `gorm:"uniqueIndex" json:"order_number"`
	Status      OrderStatus `gorm:"type:varchar(16);index" json:"status"`
	PlacedAt    time.Time   `json:"placed_at"`

	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`

	DeliveryMethod      string     `json:"delivery_method"`
	DeliveryFee         float64    `json:"delivery_fee"`
	DeliveryAddressLine string     `json:"delivery_address_line"`
	DeliveryApartment   string     `json:"delivery_apartment"`
	DeliveryCity        string     `json:"delivery_city"`
	DeliveryDistrict    string     `json:"delivery_district"`
	DeliveryPostalCode  string     `json:"delivery_postal_code"`
	PickupBranchID      *uuid.UUID `gorm:"type:uuid" json:"pickup_branch_id"`

	PaymentMethod   string        `json:"payment_method"`
	PaymentStatus   PaymentStatus `gorm:"type:varchar(16);default:UNPAID" json:"payment_status"`
	PaymentProofURL string        `json:"payment_proof_url"`

	Subtotal    float64 `json:"subtotal"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
	Notes       string  `json:"notes"`

	Items []OrderItem `json:"items,omitempty"`
}

// OrderItem is an immutable snapshot of a product line at placement time.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID   *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	ProductName string     `json:"product_name"`
	ProductSKU  string     `json:"product_sku"`
	ImageURL    string     `json:"image_url"`
	Quantity    int        `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	LineTotal   float64    `json:"line_total"`
}
