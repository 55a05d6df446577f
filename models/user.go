package models

import (
	"time"

	"gorm.io/gorm"
)

// Loyalty tiers. Tier is derived from lifetime spend and never downgrades.
const (
	TierGreen = "green"
	TierGold  = "gold"
)

// Roles recognized by the API
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// User represents a user in the system (customer, staff, or admin).
// Each customer owns exactly one rewards account, stored inline: the star
// balance, tier, lifetime spend, and join date live on the user row so that
// balance mutations can be a single guarded UPDATE.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Auth0ID       string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name          string         `gorm:"not null" json:"name"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	Role          string         `gorm:"not null;default:'customer'" json:"role"` // "customer", "staff" or "admin"
	Stars         int            `gorm:"not null;default:0;check:stars >= 0" json:"stars"`
	Tier          string         `gorm:"not null;default:'green'" json:"tier"`
	LifetimeSpend float64        `gorm:"not null;default:0" json:"lifetime_spend"`
	JoinedAt      time.Time      `json:"joined_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsStaff reports whether the user may operate on orders they do not own.
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff || u.Role == RoleAdmin
}
