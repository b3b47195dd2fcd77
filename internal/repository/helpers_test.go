package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

var bookingRowColumns = []string{
	"id", "client_id", "provider_id", "service_id", "booking_date", "location_type", "location_details",
	"total_amount", "escrow", "mood", "is_group_session", "max_guests", "status", "notes", "created_at", "updated_at",
}

func bookingRow(id, clientID uuid.UUID, providerID interface{}, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(bookingRowColumns).AddRow(
		id.String(), clientID.String(), providerID, uuid.NewString(), now, "in_salon", nil,
		"300.00", false, nil, false, nil, status, nil, now, now,
	)
}

var postRowColumns = []string{
	"id", "author_id", "image_url", "caption", "service_used", "artist_name", "is_group_session",
	"likes_count", "comments_count", "created_at",
}

func postRow(id uuid.UUID, likes int) *sqlmock.Rows {
	return sqlmock.NewRows(postRowColumns).AddRow(
		id.String(), uuid.NewString(), "https://cdn.example.com/a.jpg", nil, nil, nil, false, likes, 0, time.Now(),
	)
}

var balanceRowColumns = []string{"user_id", "balance", "glow_coins", "currency", "updated_at"}

func balanceRow(userID uuid.UUID, balance string, coins int64) *sqlmock.Rows {
	return sqlmock.NewRows(balanceRowColumns).AddRow(userID.String(), balance, coins, "KES", time.Now())
}

var walletTxRowColumns = []string{
	"id", "user_id", "type", "amount", "currency", "status", "description", "reference_id",
	"payment_method_id", "counterparty_id", "idempotency_key", "created_at",
}

func walletTxRow(userID uuid.UUID, txType, amount string) *sqlmock.Rows {
	return sqlmock.NewRows(walletTxRowColumns).AddRow(
		uuid.NewString(), userID.String(), txType, amount, "KES", "completed", nil, nil, nil, nil, nil, time.Now(),
	)
}
