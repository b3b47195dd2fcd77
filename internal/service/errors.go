package service

import (
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
)

// EventPublisher доставляет событие пользователю. Реализуется ws.Hub.
type EventPublisher interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

func requireActor(actor models.Actor) error {
	if !actor.IsAuthenticated() {
		return apperror.ErrAuthRequired
	}
	return nil
}

// storageErr пропускает доменные ошибки как есть, остальные оборачивает в DATABASE_ERROR.
func storageErr(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	var transitionErr *apperror.InvalidTransitionError
	if errors.As(err, &appErr) || errors.As(err, &transitionErr) {
		return err
	}
	return apperror.Database(err, message)
}

// validationErr приводит ошибку пакета validation к VALIDATION_ERROR.
func validationErr(err error) error {
	if err == nil {
		return nil
	}
	return apperror.Validation(err.Error())
}
