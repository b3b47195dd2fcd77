package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/deevah-backend/internal/dto"
	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
	"github.com/ignatzorin/deevah-backend/internal/service"
)

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) txResult(args mock.Arguments) (*models.WalletTransaction, error) {
	if tx, ok := args.Get(0).(*models.WalletTransaction); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWallet) GetBalance(ctx context.Context, actor models.Actor) (*models.WalletBalance, error) {
	args := m.Called(ctx, actor)
	if b, ok := args.Get(0).(*models.WalletBalance); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWallet) Deposit(ctx context.Context, actor models.Actor, amount decimal.Decimal, opts service.OperationOptions) (*models.WalletTransaction, error) {
	return m.txResult(m.Called(ctx, actor, amount, opts))
}

func (m *mockWallet) Withdraw(ctx context.Context, actor models.Actor, amount decimal.Decimal, opts service.OperationOptions) (*models.WalletTransaction, error) {
	return m.txResult(m.Called(ctx, actor, amount, opts))
}

func (m *mockWallet) Tip(ctx context.Context, actor models.Actor, artistID uuid.UUID, amount decimal.Decimal, opts service.OperationOptions) (*models.WalletTransaction, error) {
	return m.txResult(m.Called(ctx, actor, artistID, amount, opts))
}

func (m *mockWallet) EarnGlowCoins(ctx context.Context, actor models.Actor, amount int64, opts service.OperationOptions) (*models.WalletTransaction, error) {
	return m.txResult(m.Called(ctx, actor, amount, opts))
}

func (m *mockWallet) SpendGlowCoins(ctx context.Context, actor models.Actor, amount int64, opts service.OperationOptions) (*models.WalletTransaction, error) {
	return m.txResult(m.Called(ctx, actor, amount, opts))
}

func (m *mockWallet) ListTransactions(ctx context.Context, actor models.Actor, limit, offset int) ([]models.WalletTransaction, error) {
	args := m.Called(ctx, actor, limit, offset)
	txs, _ := args.Get(0).([]models.WalletTransaction)
	return txs, args.Error(1)
}

func (m *mockWallet) Reconcile(ctx context.Context, actor models.Actor) (*models.ReconcileReport, error) {
	args := m.Called(ctx, actor)
	if r, ok := args.Get(0).(*models.ReconcileReport); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWallet) AddPaymentMethod(ctx context.Context, actor models.Actor, in models.AddPaymentMethodInput) (*models.PaymentMethod, error) {
	args := m.Called(ctx, actor, in)
	if pm, ok := args.Get(0).(*models.PaymentMethod); ok {
		return pm, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWallet) RemovePaymentMethod(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockWallet) ListPaymentMethods(ctx context.Context, actor models.Actor) ([]models.PaymentMethod, error) {
	args := m.Called(ctx, actor)
	methods, _ := args.Get(0).([]models.PaymentMethod)
	return methods, args.Error(1)
}

func TestWalletHandler_Balance_Unauthorized(t *testing.T) {
	r := newTestRouter(uuid.Nil, "")
	handler := NewWalletHandler(new(mockWallet))
	r.GET("/wallet/balance", handler.Balance)

	w := doJSON(r, http.MethodGet, "/wallet/balance", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWalletHandler_Deposit_PassesIdempotencyKey(t *testing.T) {
	userID := uuid.New()
	methodID := uuid.New()
	wallet := new(mockWallet)
	r := newTestRouter(userID, "client")
	handler := NewWalletHandler(wallet)
	r.POST("/wallet/deposit", handler.Deposit)

	wallet.On("Deposit", mock.Anything, mock.Anything, mock.MatchedBy(func(a decimal.Decimal) bool {
		return a.Equal(decimal.NewFromInt(500))
	}), service.OperationOptions{
		PaymentMethodID: &methodID,
		Description:     "top up",
		IdempotencyKey:  "dep-1",
	}).Return(&models.WalletTransaction{ID: uuid.New(), Type: "deposit", Amount: decimal.NewFromInt(500)}, nil)

	w := doJSON(r, "POST", "/wallet/deposit", dto.MoneyRequest{
		Amount:          decimal.NewFromInt(500),
		PaymentMethodID: &methodID,
		Description:     "top up",
	}, IdempotencyKeyHeader, "dep-1")

	assert.Equal(t, http.StatusCreated, w.Code)
	wallet.AssertExpectations(t)
}

func TestWalletHandler_Withdraw_InsufficientFunds(t *testing.T) {
	wallet := new(mockWallet)
	r := newTestRouter(uuid.New(), "client")
	handler := NewWalletHandler(wallet)
	r.POST("/wallet/withdraw", handler.Withdraw)

	wallet.On("Withdraw", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, apperror.ErrInsufficientFunds)

	w := doJSON(r, "POST", "/wallet/withdraw", dto.MoneyRequest{Amount: decimal.NewFromInt(10)})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INSUFFICIENT_FUNDS", decodeError(t, w).Code)
}

func TestWalletHandler_Tip_MapsBookingReference(t *testing.T) {
	artistID := uuid.New()
	bookingID := uuid.New()
	wallet := new(mockWallet)
	r := newTestRouter(uuid.New(), "client")
	handler := NewWalletHandler(wallet)
	r.POST("/wallet/tip", handler.Tip)

	wallet.On("Tip", mock.Anything, mock.Anything, artistID, mock.Anything, mock.MatchedBy(func(o service.OperationOptions) bool {
		return o.ReferenceID != nil && *o.ReferenceID == bookingID
	})).Return(&models.WalletTransaction{ID: uuid.New(), Type: "tip"}, nil)

	w := doJSON(r, "POST", "/wallet/tip", dto.TipRequest{
		ArtistID:  artistID,
		Amount:    decimal.NewFromInt(50),
		BookingID: &bookingID,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	wallet.AssertExpectations(t)
}

func TestWalletHandler_GlowCoins_ZeroAmountRejected(t *testing.T) {
	r := newTestRouter(uuid.New(), "client")
	handler := NewWalletHandler(new(mockWallet))
	r.POST("/wallet/glow-coins/earn", handler.EarnGlowCoins)

	w := doJSON(r, "POST", "/wallet/glow-coins/earn", map[string]int{"amount": 0})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletHandler_SpendGlowCoins(t *testing.T) {
	wallet := new(mockWallet)
	r := newTestRouter(uuid.New(), "client")
	handler := NewWalletHandler(wallet)
	r.POST("/wallet/glow-coins/spend", handler.SpendGlowCoins)

	wallet.On("SpendGlowCoins", mock.Anything, mock.Anything, int64(25), mock.Anything).
		Return(&models.WalletTransaction{ID: uuid.New(), Type: "glow_spend"}, nil)

	w := doJSON(r, "POST", "/wallet/glow-coins/spend", dto.GlowCoinsRequest{Amount: 25})

	assert.Equal(t, http.StatusCreated, w.Code)
	wallet.AssertExpectations(t)
}

func TestWalletHandler_Transactions_ClampsPagination(t *testing.T) {
	wallet := new(mockWallet)
	r := newTestRouter(uuid.New(), "client")
	handler := NewWalletHandler(wallet)
	r.GET("/wallet/transactions", handler.Transactions)

	wallet.On("ListTransactions", mock.Anything, mock.Anything, 100, 0).Return([]models.WalletTransaction{}, nil)

	w := doJSON(r, http.MethodGet, "/wallet/transactions?limit=500&offset=-3", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 100, resp.Limit)
	assert.Equal(t, 0, resp.Offset)
	wallet.AssertExpectations(t)
}

func TestWalletHandler_RemovePaymentMethod(t *testing.T) {
	methodID := uuid.New()
	wallet := new(mockWallet)
	r := newTestRouter(uuid.New(), "client")
	handler := NewWalletHandler(wallet)
	r.DELETE("/wallet/payment-methods/:id", handler.RemovePaymentMethod)

	wallet.On("RemovePaymentMethod", mock.Anything, mock.Anything, methodID).Return(nil).Once()
	wallet.On("RemovePaymentMethod", mock.Anything, mock.Anything, mock.Anything).Return(apperror.ErrPaymentMethodNotFound)

	w := doJSON(r, http.MethodDelete, "/wallet/payment-methods/"+methodID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodDelete, "/wallet/payment-methods/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
