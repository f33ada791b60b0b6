package models

// Category groups products in the storefront catalog. Products reference a
// category by id but are not owned by it.
type Category struct {
	BaseModel
	Name        string `json:"name"`
	Slug        string `gorm:"uniqueIndex" json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
}

// PickupBranch is a physical location customers can collect orders from.
type PickupBranch struct {
	BaseModel
	Name         string  `json:"name"`
	AddressLine  string  `json:"address_line"`
	City         string  `json:"city"`
	Phone        string  `json:"phone"`
	WorkingHours string  `json:"working_hours"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	IsActive     bool    `gorm:"default:true" json:"is_active"`
}
