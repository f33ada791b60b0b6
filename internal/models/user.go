package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered customer or back-office admin.
type User struct {
	BaseModel
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Email        string        `gorm:"uniqueIndex" json:"email"`
	Phone        string        `json:"phone"`
	PasswordHash string        `json:"-"`
	Role         Role          `gorm:"type:varchar(16);default:USER" json:"role"`
	IsVerified   bool          `json:"is_verified"`
	IsActive     bool          `gorm:"default:true" json:"is_active"`
	PhotoURL     string        `json:"photo_url"`
	Addresses    []UserAddress `json:"addresses,omitempty"`
	Orders       []Order       `json:"orders,omitempty"`
}

// DisplayName renders the customer name for order snapshots and emails.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserAddress is a saved shipping address in the customer's address book.
type UserAddress struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Label       string    `json:"label"`
	AddressLine string    `json:"address_line"`
	Apartment   string    `json:"apartment"`
	City        string    `json:"city"`
	District    string    `json:"district"`
	PostalCode  string    `json:"postal_code"`
	IsDefault   bool      `json:"is_default"`
}

// EmailVerification keeps track of one-time codes sent to users at signup.
type EmailVerification struct {
	BaseModel
	Email     string     `gorm:"index" json:"email"`
	Code      string     `json:"code"`
	ExpiresAt time.Time  `json:"expires_at"`
	Verified  bool       `json:"verified"`
	UsedAt    *time.Time `json:"used_at"`
}

// PasswordResetToken tracks forgot-password flows.
type PasswordResetToken struct {
	BaseModel
	Email     string     `gorm:"index" json:"email"`
	Token     string     `gorm:"uniqueIndex" json:"token"`
	Code      string     `json:"code"`
	ExpiresAt time.Time  `json:"expires_at"`
	Verified  bool       `json:"verified"`
	UsedAt    *time.Time `json:"used_at"`
}
