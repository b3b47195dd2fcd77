package valueobject

import "github.com/ignatzorin/deevah-backend/internal/pkg/apperror"

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAccepted   BookingStatus = "accepted"
	BookingStatusRejected   BookingStatus = "rejected"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// AllBookingStatuses перечисляет статусы в порядке жизненного цикла.
var AllBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusAccepted,
	BookingStatusRejected,
	BookingStatusInProgress,
	BookingStatusCompleted,
	BookingStatusCancelled,
}

// Party сторона бронирования, от имени которой выполняется переход.
type Party string

const (
	PartyClient   Party = "client"
	PartyProvider Party = "provider"
)

// bookingTransitions: (текущий статус, новый статус) → стороны, которым переход разрешён.
var bookingTransitions = map[BookingStatus]map[BookingStatus][]Party{
	BookingStatusPending: {
		BookingStatusAccepted:  {PartyProvider},
		BookingStatusRejected:  {PartyProvider},
		BookingStatusCancelled: {PartyClient, PartyProvider},
	},
	BookingStatusAccepted: {
		BookingStatusInProgress: {PartyProvider},
		BookingStatusCancelled:  {PartyClient, PartyProvider},
	},
	BookingStatusInProgress: {
		BookingStatusCompleted: {PartyProvider},
		BookingStatusCancelled: {PartyClient, PartyProvider},
	},
	BookingStatusCompleted: {},
	BookingStatusRejected:  {},
	BookingStatusCancelled: {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// IsTerminal сообщает, что из статуса нет переходов.
func (s BookingStatus) IsTerminal() bool {
	return s.IsValid() && len(bookingTransitions[s]) == 0
}

// CanTransitionTo проверяет переход для указанной стороны.
func (s BookingStatus) CanTransitionTo(next BookingStatus, party Party) bool {
	for _, allowed := range bookingTransitions[s][next] {
		if allowed == party {
			return true
		}
	}
	return false
}

// AllowedTransitions возвращает статусы, в которые сторона может перевести бронирование.
func (s BookingStatus) AllowedTransitions(party Party) []BookingStatus {
	result := make([]BookingStatus, 0, 3)
	for _, next := range AllBookingStatuses {
		if s.CanTransitionTo(next, party) {
			result = append(result, next)
		}
	}
	return result
}

// CheckTransition возвращает *apperror.InvalidTransitionError, если переход запрещён.
func (s BookingStatus) CheckTransition(next BookingStatus, party Party) error {
	if !s.CanTransitionTo(next, party) {
		return &apperror.InvalidTransitionError{From: string(s), To: string(next), Party: string(party)}
	}
	return nil
}

func NewBookingStatus(status string) (BookingStatus, error) {
	s := BookingStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус бронирования")
	}
	return s, nil
}
