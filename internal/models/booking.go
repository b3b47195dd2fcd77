package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking описывает запись клиента на услугу. Записи не удаляются физически.
type Booking struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	ClientID        uuid.UUID       `db:"client_id" json:"client_id"`
	ProviderID      *uuid.UUID      `db:"provider_id" json:"provider_id,omitempty"`
	ServiceID       uuid.UUID       `db:"service_id" json:"service_id"`
	BookingDate     time.Time       `db:"booking_date" json:"booking_date"`
	LocationType    string          `db:"location_type" json:"location_type"`
	LocationDetails *string         `db:"location_details" json:"location_details,omitempty"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	Escrow          bool            `db:"escrow" json:"escrow"`
	Mood            *string         `db:"mood" json:"mood,omitempty"`
	IsGroupSession  bool            `db:"is_group_session" json:"is_group_session"`
	MaxGuests       *int            `db:"max_guests" json:"max_guests,omitempty"`
	Status          string          `db:"status" json:"status"`
	Notes           *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// IsParty сообщает, участвует ли пользователь в бронировании.
func (b *Booking) IsParty(userID uuid.UUID) bool {
	if b.ClientID == userID {
		return true
	}
	return b.ProviderID != nil && *b.ProviderID == userID
}

// CreateBookingInput содержит поля новой записи.
type CreateBookingInput struct {
	ServiceID       uuid.UUID  `json:"service_id"`
	BookingDate     *time.Time `json:"booking_date"`
	LocationType    string     `json:"location_type"`
	LocationDetails *string    `json:"location_details"`
	Mood            *string    `json:"mood"`
	IsGroupSession  bool       `json:"is_group_session"`
	MaxGuests       *int       `json:"max_guests"`
	Notes           *string    `json:"notes"`
}

// BookingListFilter задаёт выборку списка бронирований.
type BookingListFilter struct {
	// View: "client" или "provider".
	View   string
	Status *string
}

const (
	BookingViewClient   = "client"
	BookingViewProvider = "provider"
)
