package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
	"github.com/ignatzorin/deevah-backend/internal/repository/common"
)

const serviceColumns = `id, owner_id, name, description, category, price, duration_minutes, mood_tags, is_active, created_at`

// CatalogRepository отвечает за услуги, товары, рестораны и блюда.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// activeQuery дописывает к выборке фильтры категории и настроения и пагинацию.
func activeQuery(base string, args []interface{}, filter models.CatalogFilter) (string, []interface{}) {
	if filter.Category != nil {
		args = append(args, *filter.Category)
		base += fmt.Sprintf(" AND category = $%d", len(args))
	}
	base, args = moodClause(base, args, filter)
	base += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		base += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		base += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return base, args
}

// moodClause фильтрует по тегу настроения до LIMIT, чтобы страница не теряла строки.
func moodClause(base string, args []interface{}, filter models.CatalogFilter) (string, []interface{}) {
	if filter.Mood == nil {
		return base, args
	}
	args = append(args, *filter.Mood)
	return base + fmt.Sprintf(" AND $%d = ANY(mood_tags)", len(args)), args
}

// GetService возвращает активную услугу.
func (r *CatalogRepository) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	service, err := common.GetOne[models.Service](ctx, r.db, apperror.ErrServiceNotFound,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1 AND is_active = TRUE`, id)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("catalog repository: get service %w", err)
	}
	return service, err
}

// ListServices возвращает активные услуги.
func (r *CatalogRepository) ListServices(ctx context.Context, filter models.CatalogFilter) ([]models.Service, error) {
	query, args := activeQuery(`SELECT `+serviceColumns+` FROM services WHERE is_active = TRUE`, nil, filter)
	services := []models.Service{}
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, fmt.Errorf("catalog repository: list services %w", err)
	}
	return services, nil
}

// CreateService сохраняет услугу исполнителя.
func (r *CatalogRepository) CreateService(ctx context.Context, service *models.Service) error {
	query := `
		INSERT INTO services (owner_id, name, description, category, price, duration_minutes, mood_tags, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING id, is_active, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		service.OwnerID,
		service.Name,
		service.Description,
		service.Category,
		service.Price,
		service.DurationMinutes,
		pq.Array([]string(service.MoodTags)),
	).Scan(&service.ID, &service.IsActive, &service.CreatedAt); err != nil {
		return fmt.Errorf("catalog repository: create service %w", err)
	}
	return nil
}

// ListProducts возвращает активные товары.
func (r *CatalogRepository) ListProducts(ctx context.Context, filter models.CatalogFilter) ([]models.Product, error) {
	query, args := activeQuery(`
		SELECT id, owner_id, name, description, category, price, image_url, mood_tags, is_active, created_at
		FROM products WHERE is_active = TRUE`, nil, filter)
	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("catalog repository: list products %w", err)
	}
	return products, nil
}

// ListRestaurants возвращает активные рестораны. Категория сопоставляется с кухней.
func (r *CatalogRepository) ListRestaurants(ctx context.Context, filter models.CatalogFilter) ([]models.Restaurant, error) {
	query := `
		SELECT id, owner_id, name, cuisine, address, rating, delivery_time_minutes, mood_tags, is_active, created_at
		FROM restaurants WHERE is_active = TRUE`
	args := []interface{}{}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		query += " AND cuisine = $1"
	}
	query, args = moodClause(query, args, filter)
	query += " ORDER BY rating DESC, name"

	restaurants := []models.Restaurant{}
	if err := r.db.SelectContext(ctx, &restaurants, query, args...); err != nil {
		return nil, fmt.Errorf("catalog repository: list restaurants %w", err)
	}
	return restaurants, nil
}

// ListMeals возвращает активные блюда ресторана.
func (r *CatalogRepository) ListMeals(ctx context.Context, restaurantID uuid.UUID, filter models.CatalogFilter) ([]models.Meal, error) {
	query, args := activeQuery(`
		SELECT id, restaurant_id, name, description, category, price, mood_tags, is_active, created_at
		FROM meals WHERE is_active = TRUE AND restaurant_id = $1`, []interface{}{restaurantID}, filter)
	meals := []models.Meal{}
	if err := r.db.SelectContext(ctx, &meals, query, args...); err != nil {
		return nil, fmt.Errorf("catalog repository: list meals %w", err)
	}
	return meals, nil
}
