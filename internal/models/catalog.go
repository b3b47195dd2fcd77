package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Service описывает услугу мастера или салона.
type Service struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	OwnerID         uuid.UUID       `db:"owner_id" json:"owner_id"`
	Name            string          `db:"name" json:"name"`
	Description     *string         `db:"description" json:"description,omitempty"`
	Category        string          `db:"category" json:"category"`
	Price           decimal.Decimal `db:"price" json:"price"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes"`
	MoodTags        pq.StringArray  `db:"mood_tags" json:"mood_tags"`
	IsActive        bool            `db:"is_active" json:"is_active"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// Tags возвращает теги настроения для фильтра подборки.
func (s Service) Tags() []string { return s.MoodTags }

// Product описывает товар магазина.
type Product struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	OwnerID     uuid.UUID       `db:"owner_id" json:"owner_id"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description,omitempty"`
	Category    string          `db:"category" json:"category"`
	Price       decimal.Decimal `db:"price" json:"price"`
	ImageURL    *string         `db:"image_url" json:"image_url,omitempty"`
	MoodTags    pq.StringArray  `db:"mood_tags" json:"mood_tags"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

func (p Product) Tags() []string { return p.MoodTags }

// Restaurant описывает заведение доставки еды.
type Restaurant struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	OwnerID      uuid.UUID      `db:"owner_id" json:"owner_id"`
	Name         string         `db:"name" json:"name"`
	Cuisine      string         `db:"cuisine" json:"cuisine"`
	Address      *string        `db:"address" json:"address,omitempty"`
	Rating       float64        `db:"rating" json:"rating"`
	DeliveryTime *int           `db:"delivery_time_minutes" json:"delivery_time_minutes,omitempty"`
	MoodTags     pq.StringArray `db:"mood_tags" json:"mood_tags"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

func (r Restaurant) Tags() []string { return r.MoodTags }

// Meal блюдо в меню ресторана.
type Meal struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	RestaurantID uuid.UUID       `db:"restaurant_id" json:"restaurant_id"`
	Name         string          `db:"name" json:"name"`
	Description  *string         `db:"description" json:"description,omitempty"`
	Category     string          `db:"category" json:"category"`
	Price        decimal.Decimal `db:"price" json:"price"`
	MoodTags     pq.StringArray  `db:"mood_tags" json:"mood_tags"`
	IsActive     bool            `db:"is_active" json:"is_active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

func (m Meal) Tags() []string { return m.MoodTags }

// CatalogFilter общий фильтр каталога.
type CatalogFilter struct {
	Category *string
	// Mood оставляет только элементы с этим тегом в mood_tags.
	Mood     *string
	Limit    int
	Offset   int
}

// CreateServiceInput поля новой услуги.
type CreateServiceInput struct {
	Name            string          `json:"name"`
	Description     *string         `json:"description"`
	Category        string          `json:"category"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes"`
	MoodTags        []string        `json:"mood_tags"`
}
