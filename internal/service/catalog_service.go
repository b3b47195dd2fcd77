package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/deevah-backend/internal/discovery"
	"github.com/ignatzorin/deevah-backend/internal/domain/valueobject"
	"github.com/ignatzorin/deevah-backend/internal/logger"
	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
	"github.com/ignatzorin/deevah-backend/internal/repository/common"
	"github.com/ignatzorin/deevah-backend/internal/validation"
)

const (
	defaultCatalogLimit = 50
	maxCatalogLimit     = 100
)

// CatalogRepository описывает хранилище каталога.
type CatalogRepository interface {
	GetService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	ListServices(ctx context.Context, filter models.CatalogFilter) ([]models.Service, error)
	CreateService(ctx context.Context, service *models.Service) error
	ListProducts(ctx context.Context, filter models.CatalogFilter) ([]models.Product, error)
	ListRestaurants(ctx context.Context, filter models.CatalogFilter) ([]models.Restaurant, error)
	ListMeals(ctx context.Context, restaurantID uuid.UUID, filter models.CatalogFilter) ([]models.Meal, error)
}

// CatalogQuery параметры выборки каталога.
type CatalogQuery struct {
	Category string
	Mood     string
	Limit    int
	Offset   int
}

// CatalogService отдаёт каталог услуг, товаров и ресторанов.
// Фильтр по настроению выполняет хранилище, FilterByMood повторно проверяет результат.
type CatalogService struct {
	repo CatalogRepository
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (q CatalogQuery) parse() (models.CatalogFilter, *valueobject.Mood, error) {
	mood, err := valueobject.ParseMood(q.Mood)
	if err != nil {
		return models.CatalogFilter{}, nil, err
	}

	limit, offset := common.Paginate(q.Limit, q.Offset, defaultCatalogLimit, maxCatalogLimit)
	filter := models.CatalogFilter{Limit: limit, Offset: offset}
	if category := strings.TrimSpace(q.Category); category != "" {
		filter.Category = &category
	}
	if mood != nil {
		tag := string(*mood)
		filter.Mood = &tag
	}
	return filter, mood, nil
}

// ListServices возвращает активные услуги.
func (s *CatalogService) ListServices(ctx context.Context, q CatalogQuery) ([]models.Service, error) {
	filter, mood, err := q.parse()
	if err != nil {
		return nil, err
	}
	services, err := s.repo.ListServices(ctx, filter)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить услуги")
	}
	return discovery.FilterByMood(services, mood), nil
}

// GetService возвращает активную услугу.
func (s *CatalogService) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	service, err := s.repo.GetService(ctx, id)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить услугу")
	}
	return service, nil
}

// CreateService добавляет услугу. Доступно мастерам и салонам.
func (s *CatalogService) CreateService(ctx context.Context, actor models.Actor, in models.CreateServiceInput) (*models.Service, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !models.IsProviderRole(actor.Role) {
		return nil, apperror.ErrForbidden
	}

	name := strings.TrimSpace(in.Name)
	if err := validationErr(validation.ValidateLength("название", name, 1, validation.MaxServiceNameLength)); err != nil {
		return nil, err
	}
	category := strings.TrimSpace(in.Category)
	if err := validationErr(validation.ValidateLength("категория", category, 1, validation.MaxCategoryLength)); err != nil {
		return nil, err
	}
	if err := validationErr(validation.ValidateOptional("описание", in.Description, validation.MaxDescriptionLength)); err != nil {
		return nil, err
	}
	price, err := valueobject.NewPrice(in.Price)
	if err != nil {
		return nil, err
	}
	if in.DurationMinutes <= 0 {
		return nil, apperror.Validation("длительность должна быть положительной")
	}

	tags := make([]string, 0, len(in.MoodTags))
	seen := make(map[string]bool, len(in.MoodTags))
	for _, raw := range in.MoodTags {
		mood, err := valueobject.ParseMood(raw)
		if err != nil {
			return nil, err
		}
		if mood == nil || seen[string(*mood)] {
			continue
		}
		seen[string(*mood)] = true
		tags = append(tags, string(*mood))
	}

	service := &models.Service{
		OwnerID:         actor.UserID,
		Name:            name,
		Description:     in.Description,
		Category:        category,
		Price:           price,
		DurationMinutes: in.DurationMinutes,
		MoodTags:        tags,
		IsActive:        true,
	}
	if err := s.repo.CreateService(ctx, service); err != nil {
		return nil, storageErr(err, "не удалось создать услугу")
	}

	logger.ForUser(actor.UserID).WithField("service_id", service.ID).Info("catalog service: услуга создана")
	return service, nil
}

// ListProducts возвращает активные товары.
func (s *CatalogService) ListProducts(ctx context.Context, q CatalogQuery) ([]models.Product, error) {
	filter, mood, err := q.parse()
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить товары")
	}
	return discovery.FilterByMood(products, mood), nil
}

// ListRestaurants возвращает активные рестораны. Category фильтрует по кухне.
func (s *CatalogService) ListRestaurants(ctx context.Context, q CatalogQuery) ([]models.Restaurant, error) {
	filter, mood, err := q.parse()
	if err != nil {
		return nil, err
	}
	restaurants, err := s.repo.ListRestaurants(ctx, filter)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить рестораны")
	}
	return discovery.FilterByMood(restaurants, mood), nil
}

// ListMeals возвращает меню ресторана.
func (s *CatalogService) ListMeals(ctx context.Context, restaurantID uuid.UUID, q CatalogQuery) ([]models.Meal, error) {
	filter, mood, err := q.parse()
	if err != nil {
		return nil, err
	}
	meals, err := s.repo.ListMeals(ctx, restaurantID, filter)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить меню")
	}
	return discovery.FilterByMood(meals, mood), nil
}
