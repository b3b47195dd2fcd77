package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
	"github.com/ignatzorin/deevah-backend/internal/repository/common"
)

const bookingColumns = `id, client_id, provider_id, service_id, booking_date, location_type, location_details,
	total_amount, escrow, mood, is_group_session, max_guests, status, notes, created_at, updated_at`

// BookingRepository отвечает за таблицу bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository создаёт экземпляр репозитория.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create сохраняет новое бронирование. Статус всегда pending.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (client_id, provider_id, service_id, booking_date, location_type, location_details,
			total_amount, escrow, mood, is_group_session, max_guests, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9, $10, 'pending', $11)
		RETURNING id, status, escrow, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		booking.ClientID,
		booking.ProviderID,
		booking.ServiceID,
		booking.BookingDate,
		booking.LocationType,
		booking.LocationDetails,
		booking.TotalAmount,
		booking.Mood,
		booking.IsGroupSession,
		booking.MaxGuests,
		booking.Notes,
	).Scan(&booking.ID, &booking.Status, &booking.Escrow, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return fmt.Errorf("booking repository: create %w", err)
	}

	return nil
}

// GetByID возвращает бронирование по идентификатору.
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := common.GetOne[models.Booking](ctx, r.db, apperror.ErrBookingNotFound,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("booking repository: get by id %w", err)
	}
	return booking, err
}

// UpdateStatus блокирует строку бронирования, передаёт её в decide и сохраняет
// изменённые status и provider_id. Если decide вернул ошибку, транзакция откатывается.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, decide func(current *models.Booking) error) (*models.Booking, error) {
	var updated models.Booking

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := common.GetOne[models.Booking](ctx, tx, apperror.ErrBookingNotFound,
			`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}

		if err := decide(current); err != nil {
			return err
		}

		query := `
			UPDATE bookings SET status = $2, provider_id = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + bookingColumns
		if err := tx.GetContext(ctx, &updated, query, id, current.Status, current.ProviderID); err != nil {
			return fmt.Errorf("booking repository: update status %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// List возвращает бронирования пользователя как клиента или как исполнителя, новые сначала.
func (r *BookingRepository) List(ctx context.Context, userID uuid.UUID, filter models.BookingListFilter) ([]models.Booking, error) {
	column := "client_id"
	if filter.View == models.BookingViewProvider {
		column = "provider_id"
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + column + ` = $1`
	args := []interface{}{userID}

	if filter.Status != nil {
		query += " AND status = $2"
		args = append(args, *filter.Status)
	}

	query += " ORDER BY created_at DESC"

	bookings := []models.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("booking repository: list %w", err)
	}

	return bookings, nil
}

// SumCompletedByClient возвращает сумму завершённых бронирований клиента.
func (r *BookingRepository) SumCompletedByClient(ctx context.Context, clientID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(total_amount), 0) FROM bookings WHERE client_id = $1 AND status = 'completed'`
	if err := r.db.GetContext(ctx, &total, query, clientID); err != nil {
		return decimal.Zero, fmt.Errorf("booking repository: sum completed %w", err)
	}
	return total, nil
}
