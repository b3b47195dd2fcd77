package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/repository/common"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationService содержит бизнес-логику работы с уведомлениями.
type NotificationService struct {
	repo NotificationRepository
}

// NewNotificationService создаёт новый сервис уведомлений.
func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// CreateNotification сохраняет событие в формате {event, data}.
func (s *NotificationService) CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) (*models.Notification, error) {
	payload := map[string]interface{}{
		"event": event,
		"data":  data,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("notification service: marshal payload %w", err)
	}

	notification := &models.Notification{
		UserID:  userID,
		Payload: payloadBytes,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	return notification, nil
}

// ListNotifications возвращает список уведомлений актора.
func (s *NotificationService) ListNotifications(ctx context.Context, actor models.Actor, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	limit, offset = common.Paginate(limit, offset, 20, 100)

	notifications, err := s.repo.List(ctx, actor.UserID, limit, offset, unreadOnly)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить уведомления")
	}
	return notifications, nil
}

// MarkAsRead отмечает уведомление актора как прочитанное.
func (s *NotificationService) MarkAsRead(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := s.repo.MarkAsRead(ctx, actor.UserID, id); err != nil {
		return storageErr(err, "не удалось обновить уведомление")
	}
	return nil
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, actor models.Actor) (int, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	count, err := s.repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, storageErr(err, "не удалось посчитать уведомления")
	}
	return count, nil
}
