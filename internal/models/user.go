package models

import "time"

// Role identifies what kind of actor is making a request
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleRestaurant Role = "restaurant"
	RoleDelivery   Role = "delivery"
	RoleAdmin      Role = "admin"
)

// Actor is an already-authenticated caller. The auth middleware builds it
// from token claims; the core never performs credential checks itself.
type Actor struct {
	ID   string
	Role Role
}

// User is a minimal account record
type User struct {
	ID        string    `json:"id" gorm:"primary_key"`
	Name      string    `json:"name"`
	Email     string    `json:"email" gorm:"unique_index"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Restaurant is a minimal restaurant record
type Restaurant struct {
	ID        string    `json:"id" gorm:"primary_key"`
	OwnerID   string    `json:"ownerId" gorm:"index"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
