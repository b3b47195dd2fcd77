package dto

import (
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/deevah-backend/internal/models"
)

// ErrorResponse represents an error payload. Code is a stable machine-readable value.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ListResponse wraps a page of items
type ListResponse struct {
	Items  interface{} `json:"items"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// ProfileResponse represents the current user with profile
type ProfileResponse struct {
	User    *models.User    `json:"user"`
	Profile *models.Profile `json:"profile"`
}

// TotalSpentResponse represents the sum of completed bookings
type TotalSpentResponse struct {
	TotalSpent decimal.Decimal `json:"total_spent"`
}

// TransitionsResponse lists statuses the caller may move a booking to
type TransitionsResponse struct {
	Allowed []string `json:"allowed"`
}
