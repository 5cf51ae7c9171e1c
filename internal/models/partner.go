package models

import (
	"time"
)

// DeliveryPartner represents a delivery partner's operational record.
// Identity is the underlying user account.
type DeliveryPartner struct {
	UserID          string    `json:"userId" gorm:"primary_key"`
	Online          bool      `json:"online"`
	Lat             float64   `json:"lat"`
	Lng             float64   `json:"lng"`
	LastActiveAt    time.Time `json:"lastActiveAt"`
	Earnings        float64   `json:"earnings"`
	Rating          float64   `json:"rating"`
	TotalDeliveries int       `json:"totalDeliveries"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
