package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Cache хранит сериализованные в JSON значения с TTL.
type Cache interface {
	// Get заполняет dest и возвращает true, если ключ найден и не истёк.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidateByPrefix(ctx context.Context, prefix string) error
}

// BookingsPrefix префикс всех списков бронирований пользователя.
func BookingsPrefix(userID uuid.UUID) string {
	return "bookings:" + userID.String() + ":"
}

// BookingsKey ключ списка бронирований для конкретного представления и фильтра.
func BookingsKey(userID uuid.UUID, view, status string) string {
	if status == "" {
		status = "all"
	}
	return BookingsPrefix(userID) + view + ":" + status
}
