package masters

import (
	"errors"
	"time"
)

var (
	ErrChargeNotFound   = errors.New("service charge not found")
	ErrCategoryNotFound = errors.New("service category not found")
	ErrInvalidCharge    = errors.New("invalid service charge")
)

// ServiceCharge is one row of the billable-services catalog. Bills snapshot
// the charge name and rate at billing time, so edits and soft deletes here
// never touch existing bills.
type ServiceCharge struct {
	ID           int64   `json:"id"`
	CategoryID   *int64  `json:"category_id,omitempty"`
	CategoryName *string `json:"category_name,omitempty"`
	ChargeName   string  `json:"charge_name"`
	DefaultRate  float64 `json:"default_rate"`
	IsActive     bool    `json:"is_active"`
	Description  *string `json:"description,omitempty"`
}

// ServiceCategory groups charges in the catalog.
type ServiceCategory struct {
	ID        int64     `json:"id"`
	Name      string    `json:"category_name"`
	CreatedAt time.Time `json:"created_at"`
}

// ChargeInput is the write shape for creating or updating a charge.
type ChargeInput struct {
	CategoryID  *int64  `json:"category_id,omitempty"`
	ChargeName  string  `json:"charge_name"`
	DefaultRate float64 `json:"default_rate"`
	IsActive    bool    `json:"is_active"`
	Description *string `json:"description,omitempty"`
}

// DeletedCharge acknowledges a soft delete.
type DeletedCharge struct {
	ID         int64  `json:"id"`
	ChargeName string `json:"charge_name"`
}
