package models

import (
	"github.com/google/uuid"
)

// Product is a sellable catalog item. StockQuantity can never go below zero;
// the database check backs up the guarded updates in the storage layer.
type Product struct {
	BaseModel
	SKU           string        `gorm:"uniqueIndex" json:"sku"`
	Slug          string        `gorm:"uniqueIndex" json:"slug"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Price         float64       `json:"price"`
	Currency      string        `json:"currency"`
	StockQuantity int           `gorm:"check:stock_quantity >= 0" json:"stock_quantity"`
	Status        ProductStatus `gorm:"type:varchar(16);default:DRAFT" json:"status"`
	IsActive      bool          `gorm:"default:true" json:"is_active"`
	ImageURL      string        `json:"image_url"`
	Manufacturer  string        `json:"manufacturer"`
	CategoryID    *uuid.UUID    `gorm:"type:uuid" json:"category_id"`
	Category      *Category     `json:"category,omitempty"`
}

// Sellable reports whether the product may appear in a new order.
func (p *Product) Sellable() bool {
	return p.IsActive && p.Status == ProductPublished
}
