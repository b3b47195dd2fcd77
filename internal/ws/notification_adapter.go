package ws

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/deevah-backend/internal/models"
)

// notificationCreator часть NotificationService, нужная хабу.
type notificationCreator interface {
	CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) (*models.Notification, error)
}

// NotificationServiceAdapter адаптирует NotificationService к NotificationSaver.
type NotificationServiceAdapter struct {
	service notificationCreator
}

// NewNotificationServiceAdapter создаёт новый адаптер.
func NewNotificationServiceAdapter(service notificationCreator) *NotificationServiceAdapter {
	return &NotificationServiceAdapter{service: service}
}

// CreateNotification реализует интерфейс NotificationSaver.
func (a *NotificationServiceAdapter) CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	_, err := a.service.CreateNotification(ctx, userID, event, data)
	return err
}
