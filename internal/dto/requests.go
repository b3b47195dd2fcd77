package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterRequest represents the request to register a new account
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
	ReferredBy  string `json:"referred_by"`
}

// LoginRequest represents the login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token for refresh and logout
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateBookingStatusRequest represents the request to move a booking to a new status
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// MoneyRequest represents deposit and withdraw requests
type MoneyRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethodID *uuid.UUID      `json:"payment_method_id"`
	Description     string          `json:"description"`
}

// TipRequest represents a tip sent to an artist
type TipRequest struct {
	ArtistID    uuid.UUID       `json:"artist_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	BookingID   *uuid.UUID      `json:"booking_id"`
	Description string          `json:"description"`
}

// GlowCoinsRequest represents earning or spending GlowCoins
type GlowCoinsRequest struct {
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description"`
}

// AddCommentRequest represents a new feed comment
type AddCommentRequest struct {
	Text string `json:"text" binding:"required"`
}
