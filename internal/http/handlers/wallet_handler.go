package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/deevah-backend/internal/dto"
	"github.com/ignatzorin/deevah-backend/internal/http/handlers/common"
	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/service"
)

// IdempotencyKeyHeader заголовок, по которому повтор запроса возвращает уже проведённую операцию.
const IdempotencyKeyHeader = "Idempotency-Key"

// WalletUseCases описывает операции кошелька.
type WalletUseCases interface {
	GetBalance(ctx context.Context, actor models.Actor) (*models.WalletBalance, error)
	Deposit(ctx context.Context, actor models.Actor, amount decimal.Decimal, opts service.OperationOptions) (*models.WalletTransaction, error)
	Withdraw(ctx context.Context, actor models.Actor, amount decimal.Decimal, opts service.OperationOptions) (*models.WalletTransaction, error)
	Tip(ctx context.Context, actor models.Actor, artistID uuid.UUID, amount decimal.Decimal, opts service.OperationOptions) (*models.WalletTransaction, error)
	EarnGlowCoins(ctx context.Context, actor models.Actor, amount int64, opts service.OperationOptions) (*models.WalletTransaction, error)
	SpendGlowCoins(ctx context.Context, actor models.Actor, amount int64, opts service.OperationOptions) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, actor models.Actor, limit, offset int) ([]models.WalletTransaction, error)
	Reconcile(ctx context.Context, actor models.Actor) (*models.ReconcileReport, error)
	AddPaymentMethod(ctx context.Context, actor models.Actor, in models.AddPaymentMethodInput) (*models.PaymentMethod, error)
	RemovePaymentMethod(ctx context.Context, actor models.Actor, id uuid.UUID) error
	ListPaymentMethods(ctx context.Context, actor models.Actor) ([]models.PaymentMethod, error)
}

// WalletHandler обслуживает маршруты кошелька.
type WalletHandler struct {
	wallet WalletUseCases
}

// NewWalletHandler создаёт хэндлер.
func NewWalletHandler(wallet WalletUseCases) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

// Balance обрабатывает GET /wallet/balance.
func (h *WalletHandler) Balance(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	balance, err := h.wallet.GetBalance(c.Request.Context(), actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// Deposit обрабатывает POST /wallet/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	h.moneyOperation(c, h.wallet.Deposit)
}

// Withdraw обрабатывает POST /wallet/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	h.moneyOperation(c, h.wallet.Withdraw)
}

type moneyFunc func(ctx context.Context, actor models.Actor, amount decimal.Decimal, opts service.OperationOptions) (*models.WalletTransaction, error)

func (h *WalletHandler) moneyOperation(c *gin.Context, op moneyFunc) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	var req dto.MoneyRequest
	if !common.BindJSON(c, &req) {
		return
	}

	tx, err := op(c.Request.Context(), actor, req.Amount, service.OperationOptions{
		PaymentMethodID: req.PaymentMethodID,
		Description:     req.Description,
		IdempotencyKey:  c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}

// Tip обрабатывает POST /wallet/tip.
func (h *WalletHandler) Tip(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	var req dto.TipRequest
	if !common.BindJSON(c, &req) {
		return
	}

	tx, err := h.wallet.Tip(c.Request.Context(), actor, req.ArtistID, req.Amount, service.OperationOptions{
		ReferenceID:    req.BookingID,
		Description:    req.Description,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}

// EarnGlowCoins обрабатывает POST /wallet/glow-coins/earn.
func (h *WalletHandler) EarnGlowCoins(c *gin.Context) {
	h.glowOperation(c, h.wallet.EarnGlowCoins)
}

// SpendGlowCoins обрабатывает POST /wallet/glow-coins/spend.
func (h *WalletHandler) SpendGlowCoins(c *gin.Context) {
	h.glowOperation(c, h.wallet.SpendGlowCoins)
}

type glowFunc func(ctx context.Context, actor models.Actor, amount int64, opts service.OperationOptions) (*models.WalletTransaction, error)

func (h *WalletHandler) glowOperation(c *gin.Context, op glowFunc) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	var req dto.GlowCoinsRequest
	if !common.BindJSON(c, &req) {
		return
	}

	tx, err := op(c.Request.Context(), actor, req.Amount, service.OperationOptions{
		Description:    req.Description,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}

// Transactions обрабатывает GET /wallet/transactions.
func (h *WalletHandler) Transactions(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	txs, err := h.wallet.ListTransactions(c.Request.Context(), actor, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{Items: txs, Limit: limit, Offset: offset})
}

// Reconcile обрабатывает GET /wallet/reconcile.
func (h *WalletHandler) Reconcile(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	report, err := h.wallet.Reconcile(c.Request.Context(), actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ListPaymentMethods обрабатывает GET /wallet/payment-methods.
func (h *WalletHandler) ListPaymentMethods(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	methods, err := h.wallet.ListPaymentMethods(c.Request.Context(), actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, methods)
}

// AddPaymentMethod обрабатывает POST /wallet/payment-methods.
func (h *WalletHandler) AddPaymentMethod(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	var req models.AddPaymentMethodInput
	if !common.BindJSON(c, &req) {
		return
	}

	method, err := h.wallet.AddPaymentMethod(c.Request.Context(), actor, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, method)
}

// RemovePaymentMethod обрабатывает DELETE /wallet/payment-methods/:id.
func (h *WalletHandler) RemovePaymentMethod(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.wallet.RemovePaymentMethod(c.Request.Context(), actor, id); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
