package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/deevah-backend/internal/http/handlers/common"
	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/service"
)

// CatalogUseCases описывает операции каталога.
type CatalogUseCases interface {
	ListServices(ctx context.Context, q service.CatalogQuery) ([]models.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	CreateService(ctx context.Context, actor models.Actor, in models.CreateServiceInput) (*models.Service, error)
	ListProducts(ctx context.Context, q service.CatalogQuery) ([]models.Product, error)
	ListRestaurants(ctx context.Context, q service.CatalogQuery) ([]models.Restaurant, error)
	ListMeals(ctx context.Context, restaurantID uuid.UUID, q service.CatalogQuery) ([]models.Meal, error)
}

// CatalogHandler отдаёт услуги, товары и рестораны с фильтром по настроению.
type CatalogHandler struct {
	catalog CatalogUseCases
}

func NewCatalogHandler(catalog CatalogUseCases) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// catalogQuery читает ?category=&mood=&limit=&offset=. Нулевой limit
// заменяется значением по умолчанию в сервисе.
func catalogQuery(c *gin.Context) service.CatalogQuery {
	return service.CatalogQuery{
		Category: c.Query("category"),
		Mood:     c.Query("mood"),
		Limit:    common.ParseIntQuery(c, "limit", 0),
		Offset:   common.ParseIntQuery(c, "offset", 0),
	}
}

// ListServices GET /catalog/services
func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.catalog.ListServices(c.Request.Context(), catalogQuery(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, services)
}

// GetService GET /catalog/services/:id
func (h *CatalogHandler) GetService(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	svc, err := h.catalog.GetService(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// CreateService POST /catalog/services
func (h *CatalogHandler) CreateService(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	var req models.CreateServiceInput
	if !common.BindJSON(c, &req) {
		return
	}

	svc, err := h.catalog.CreateService(c.Request.Context(), actor, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

// ListProducts GET /catalog/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context(), catalogQuery(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// ListRestaurants GET /catalog/restaurants
func (h *CatalogHandler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.catalog.ListRestaurants(c.Request.Context(), catalogQuery(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, restaurants)
}

// ListMeals GET /catalog/restaurants/:id/meals
func (h *CatalogHandler) ListMeals(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	meals, err := h.catalog.ListMeals(c.Request.Context(), id, catalogQuery(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, meals)
}
