package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/deevah-backend/internal/domain/valueobject"
	"github.com/ignatzorin/deevah-backend/internal/dto"
	"github.com/ignatzorin/deevah-backend/internal/http/handlers/common"
	"github.com/ignatzorin/deevah-backend/internal/models"
)

// BookingUseCases описывает операции жизненного цикла бронирования.
type BookingUseCases interface {
	CreateBooking(ctx context.Context, actor models.Actor, in models.CreateBookingInput) (*models.Booking, error)
	UpdateStatus(ctx context.Context, actor models.Actor, bookingID uuid.UUID, status string) (*models.Booking, error)
	GetBooking(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Booking, error)
	AllowedTransitions(ctx context.Context, actor models.Actor, id uuid.UUID) ([]valueobject.BookingStatus, error)
	ListBookings(ctx context.Context, actor models.Actor, view, status string) ([]models.Booking, error)
	TotalSpent(ctx context.Context, actor models.Actor) (decimal.Decimal, error)
}

// BookingHandler обслуживает маршруты бронирований.
type BookingHandler struct {
	bookings BookingUseCases
}

// NewBookingHandler создаёт хэндлер.
func NewBookingHandler(bookings BookingUseCases) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Create обрабатывает POST /bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	var req models.CreateBookingInput
	if !common.BindJSON(c, &req) {
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// List обрабатывает GET /bookings?view=client|provider&status=...
func (h *BookingHandler) List(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	bookings, err := h.bookings.ListBookings(c.Request.Context(), actor, c.Query("view"), c.Query("status"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// Get обрабатывает GET /bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	booking, err := h.bookings.GetBooking(c.Request.Context(), actor, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// UpdateStatus обрабатывает PUT /bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateBookingStatusRequest
	if !common.BindJSON(c, &req) {
		return
	}

	booking, err := h.bookings.UpdateStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// Transitions обрабатывает GET /bookings/:id/transitions.
func (h *BookingHandler) Transitions(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	statuses, err := h.bookings.AllowedTransitions(c.Request.Context(), actor, id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	allowed := make([]string, 0, len(statuses))
	for _, s := range statuses {
		allowed = append(allowed, string(s))
	}
	c.JSON(http.StatusOK, dto.TransitionsResponse{Allowed: allowed})
}

// Spent обрабатывает GET /bookings/spent.
func (h *BookingHandler) Spent(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	total, err := h.bookings.TotalSpent(c.Request.Context(), actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TotalSpentResponse{TotalSpent: total})
}
