package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/deevah-backend/internal/cache"
	"github.com/ignatzorin/deevah-backend/internal/domain/valueobject"
	"github.com/ignatzorin/deevah-backend/internal/logger"
	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
	"github.com/ignatzorin/deevah-backend/internal/validation"
	"github.com/ignatzorin/deevah-backend/internal/ws"
)

// BookingRepository описывает хранилище бронирований.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, decide func(current *models.Booking) error) (*models.Booking, error)
	List(ctx context.Context, userID uuid.UUID, filter models.BookingListFilter) ([]models.Booking, error)
	SumCompletedByClient(ctx context.Context, clientID uuid.UUID) (decimal.Decimal, error)
}

// ServiceLookup находит активную услугу каталога.
type ServiceLookup interface {
	GetService(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

// ReferralRewarder начисляет бонус пригласившему после первого завершённого бронирования.
type ReferralRewarder interface {
	RewardReferral(ctx context.Context, referredID uuid.UUID) (*models.WalletTransaction, error)
}

// BookingService управляет жизненным циклом бронирований.
type BookingService struct {
	repo     BookingRepository
	services ServiceLookup
	cache    cache.Cache
	cacheTTL time.Duration
	events   EventPublisher
	rewarder ReferralRewarder

	// versions растёт при каждом сбросе кэша пользователя. Список, прочитанный
	// до сброса, в кэш не попадает.
	versionMu sync.Mutex
	versions  map[uuid.UUID]uint64
}

// NewBookingService создаёт сервис бронирований.
func NewBookingService(repo BookingRepository, services ServiceLookup, c cache.Cache, cacheTTL time.Duration) *BookingService {
	return &BookingService{
		repo:     repo,
		services: services,
		cache:    c,
		cacheTTL: cacheTTL,
		versions: make(map[uuid.UUID]uint64),
	}
}

// SetEventPublisher подключает доставку событий участникам.
func (s *BookingService) SetEventPublisher(events EventPublisher) {
	s.events = events
}

// SetReferralRewarder подключает начисление реферальных бонусов.
func (s *BookingService) SetReferralRewarder(rewarder ReferralRewarder) {
	s.rewarder = rewarder
}

// CreateBooking создаёт бронирование в статусе pending.
// Итоговая сумма берётся из цены услуги и умножается на число гостей для групповой сессии.
func (s *BookingService) CreateBooking(ctx context.Context, actor models.Actor, in models.CreateBookingInput) (*models.Booking, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	if in.ServiceID == uuid.Nil {
		return nil, apperror.Validation("service_id обязателен")
	}
	if in.BookingDate == nil || in.BookingDate.IsZero() {
		return nil, apperror.Validation("дата бронирования обязательна")
	}

	location, err := valueobject.NewLocationType(in.LocationType)
	if err != nil {
		return nil, err
	}

	var mood *string
	if in.Mood != nil {
		parsed, err := valueobject.ParseMood(*in.Mood)
		if err != nil {
			return nil, err
		}
		if parsed != nil {
			value := string(*parsed)
			mood = &value
		}
	}

	var maxGuests *int
	if in.IsGroupSession {
		if in.MaxGuests == nil || *in.MaxGuests < 1 {
			return nil, apperror.Validation("для групповой сессии max_guests должен быть не меньше 1")
		}
		guests := *in.MaxGuests
		maxGuests = &guests
	}

	if err := validationErr(validation.ValidateOptional("примечание", in.Notes, validation.MaxNotesLength)); err != nil {
		return nil, err
	}
	if err := validationErr(validation.ValidateOptional("адрес", in.LocationDetails, validation.MaxDescriptionLength)); err != nil {
		return nil, err
	}

	service, err := s.services.GetService(ctx, in.ServiceID)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить услугу")
	}
	if service.OwnerID == actor.UserID {
		return nil, apperror.Validation("нельзя забронировать собственную услугу")
	}

	total := service.Price
	if maxGuests != nil {
		total = valueobject.GroupTotal(service.Price, *maxGuests)
	}

	providerID := service.OwnerID
	booking := &models.Booking{
		ClientID:        actor.UserID,
		ProviderID:      &providerID,
		ServiceID:       service.ID,
		BookingDate:     in.BookingDate.UTC(),
		LocationType:    string(location),
		LocationDetails: in.LocationDetails,
		TotalAmount:     total,
		Mood:            mood,
		IsGroupSession:  in.IsGroupSession,
		MaxGuests:       maxGuests,
		Notes:           in.Notes,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, storageErr(err, "не удалось создать бронирование")
	}

	s.invalidate(ctx, booking)
	s.publish(providerID, ws.EventBookingCreated, bookingEvent(booking, ""))

	logger.ForUser(actor.UserID).WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"service_id": booking.ServiceID,
		"total":      booking.TotalAmount.String(),
	}).Info("booking service: бронирование создано")

	return booking, nil
}

// resolveParty определяет сторону актора. claim=true означает, что исполнитель
// принимает бронирование без назначенного исполнителя.
func resolveParty(actor models.Actor, booking *models.Booking, next valueobject.BookingStatus) (valueobject.Party, bool, error) {
	switch {
	case booking.ClientID == actor.UserID:
		return valueobject.PartyClient, false, nil
	case booking.ProviderID != nil && *booking.ProviderID == actor.UserID:
		return valueobject.PartyProvider, false, nil
	case booking.ProviderID == nil && models.IsProviderRole(actor.Role) &&
		booking.Status == string(valueobject.BookingStatusPending) &&
		next == valueobject.BookingStatusAccepted:
		return valueobject.PartyProvider, true, nil
	}
	return "", false, apperror.ErrForbidden
}

// UpdateStatus переводит бронирование в новый статус по таблице переходов.
// Проверка и запись выполняются под блокировкой строки бронирования.
func (s *BookingService) UpdateStatus(ctx context.Context, actor models.Actor, bookingID uuid.UUID, status string) (*models.Booking, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	next, err := valueobject.NewBookingStatus(status)
	if err != nil {
		return nil, err
	}

	var (
		previous string
		party    valueobject.Party
	)
	updated, err := s.repo.UpdateStatus(ctx, bookingID, func(current *models.Booking) error {
		var claim bool
		var err error
		party, claim, err = resolveParty(actor, current, next)
		if err != nil {
			return err
		}
		if err := valueobject.BookingStatus(current.Status).CheckTransition(next, party); err != nil {
			return err
		}

		previous = current.Status
		current.Status = string(next)
		if claim {
			providerID := actor.UserID
			current.ProviderID = &providerID
		}
		return nil
	})
	if err != nil {
		return nil, storageErr(err, "не удалось обновить статус бронирования")
	}

	s.invalidate(ctx, updated)

	notify := updated.ClientID
	if party == valueobject.PartyClient {
		if updated.ProviderID == nil {
			notify = uuid.Nil
		} else {
			notify = *updated.ProviderID
		}
	}
	if notify != uuid.Nil {
		s.publish(notify, ws.EventBookingStatusChanged, bookingEvent(updated, previous))
	}

	logger.ForUser(actor.UserID).WithFields(logrus.Fields{
		"booking_id": updated.ID,
		"from":       previous,
		"to":         updated.Status,
		"party":      party,
	}).Info("booking service: статус изменён")

	if next == valueobject.BookingStatusCompleted {
		s.rewardReferral(ctx, updated.ClientID)
	}

	return updated, nil
}

func (s *BookingService) rewardReferral(ctx context.Context, clientID uuid.UUID) {
	if s.rewarder == nil {
		return
	}
	credited, err := s.rewarder.RewardReferral(ctx, clientID)
	if err != nil {
		logger.ForUser(clientID).WithField("error", err.Error()).
			Error("booking service: не удалось начислить реферальный бонус")
		return
	}
	if credited != nil {
		s.publish(credited.UserID, ws.EventReferralRewarded, map[string]interface{}{
			"referred_id": clientID,
			"amount":      credited.Amount,
		})
	}
}

// GetBooking возвращает бронирование участнику.
func (s *BookingService) GetBooking(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Booking, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить бронирование")
	}
	if !booking.IsParty(actor.UserID) {
		return nil, apperror.ErrForbidden
	}
	return booking, nil
}

// AllowedTransitions возвращает статусы, доступные актору для бронирования.
func (s *BookingService) AllowedTransitions(ctx context.Context, actor models.Actor, id uuid.UUID) ([]valueobject.BookingStatus, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить бронирование")
	}

	party, _, err := resolveParty(actor, booking, valueobject.BookingStatusAccepted)
	if err != nil {
		return nil, err
	}

	current := valueobject.BookingStatus(booking.Status)
	if booking.ProviderID == nil && party == valueobject.PartyProvider {
		// Непринятое бронирование исполнитель может только принять.
		return []valueobject.BookingStatus{valueobject.BookingStatusAccepted}, nil
	}
	return current.AllowedTransitions(party), nil
}

// ListBookings возвращает бронирования актора как клиента или как исполнителя.
func (s *BookingService) ListBookings(ctx context.Context, actor models.Actor, view, status string) ([]models.Booking, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	if view == "" {
		view = models.BookingViewClient
	}
	if view != models.BookingViewClient && view != models.BookingViewProvider {
		return nil, apperror.Validation("view должен быть client или provider")
	}

	filter := models.BookingListFilter{View: view}
	if status != "" {
		parsed, err := valueobject.NewBookingStatus(status)
		if err != nil {
			return nil, err
		}
		value := string(parsed)
		filter.Status = &value
	}

	key := cache.BookingsKey(actor.UserID, view, status)
	var cached []models.Booking
	if s.cache != nil {
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.ForUser(actor.UserID).WithField("error", err.Error()).Warn("booking service: ошибка чтения кэша")
		} else if found {
			return cached, nil
		}
	}

	version := s.cacheVersion(actor.UserID)
	bookings, err := s.repo.List(ctx, actor.UserID, filter)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить бронирования")
	}

	if s.cache != nil {
		s.storeList(ctx, actor.UserID, version, key, bookings)
	}
	return bookings, nil
}

func (s *BookingService) cacheVersion(userID uuid.UUID) uint64 {
	s.versionMu.Lock()
	defer s.versionMu.Unlock()
	return s.versions[userID]
}

// storeList кладёт список в кэш, только если с момента чтения кэш пользователя
// не сбрасывался. Запись идёт под versionMu: сброс, начавшийся позже,
// удалит её вместе с остальными ключами пользователя.
func (s *BookingService) storeList(ctx context.Context, userID uuid.UUID, version uint64, key string, bookings []models.Booking) {
	s.versionMu.Lock()
	defer s.versionMu.Unlock()
	if s.versions[userID] != version {
		return
	}
	if err := s.cache.Set(ctx, key, bookings, s.cacheTTL); err != nil {
		logger.ForUser(userID).WithField("error", err.Error()).Warn("booking service: ошибка записи кэша")
	}
}

// TotalSpent возвращает сумму завершённых бронирований клиента.
func (s *BookingService) TotalSpent(ctx context.Context, actor models.Actor) (decimal.Decimal, error) {
	if err := requireActor(actor); err != nil {
		return decimal.Zero, err
	}

	total, err := s.repo.SumCompletedByClient(ctx, actor.UserID)
	if err != nil {
		return decimal.Zero, storageErr(err, "не удалось посчитать сумму бронирований")
	}
	return total, nil
}

func (s *BookingService) invalidate(ctx context.Context, booking *models.Booking) {
	if s.cache == nil {
		return
	}
	users := []uuid.UUID{booking.ClientID}
	if booking.ProviderID != nil {
		users = append(users, *booking.ProviderID)
	}
	s.versionMu.Lock()
	for _, userID := range users {
		s.versions[userID]++
	}
	s.versionMu.Unlock()

	for _, userID := range users {
		if err := s.cache.InvalidateByPrefix(ctx, cache.BookingsPrefix(userID)); err != nil {
			logger.ForUser(userID).WithField("error", err.Error()).Warn("booking service: не удалось сбросить кэш")
		}
	}
}

func (s *BookingService) publish(userID uuid.UUID, event string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.BroadcastToUser(userID, event, data); err != nil {
		logger.ForUser(userID).WithFields(logrus.Fields{
			"event": event,
			"error": err.Error(),
		}).Warn("booking service: не удалось отправить событие")
	}
}

func bookingEvent(booking *models.Booking, previous string) map[string]interface{} {
	data := map[string]interface{}{
		"booking_id": booking.ID,
		"status":     booking.Status,
		"service_id": booking.ServiceID,
	}
	if previous != "" {
		data["previous_status"] = previous
	}
	return data
}
