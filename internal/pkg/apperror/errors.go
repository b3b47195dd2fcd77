package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError     ErrorCode = "DATABASE_ERROR"
	ErrCodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду и сообщению, чтобы errors.Is работал с копиями sentinel-ошибок.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation короткий конструктор для ошибок валидации.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// Database оборачивает ошибку хранилища. Причина не попадает в ответ клиенту.
func Database(err error, message string) *AppError {
	return Wrap(err, ErrCodeDatabaseError, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidTransition:
		return http.StatusConflict
	case ErrCodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// InvalidTransitionError возвращается, когда переход статуса бронирования запрещён таблицей переходов.
type InvalidTransitionError struct {
	From  string
	To    string
	Party string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: переход %s → %s недоступен для %s", ErrCodeInvalidTransition, e.From, e.To, e.Party)
}

// Resolve приводит любую ошибку к коду, HTTP статусу и безопасному сообщению для клиента.
func Resolve(err error) (ErrorCode, int, string) {
	var transitionErr *InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return ErrCodeInvalidTransition, http.StatusConflict,
			fmt.Sprintf("переход %s → %s недоступен", transitionErr.From, transitionErr.To)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = codeToHTTPStatus(appErr.Code)
		}
		if status >= http.StatusInternalServerError {
			return appErr.Code, status, "внутренняя ошибка сервера"
		}
		return appErr.Code, status, appErr.Message
	}

	return ErrCodeInternal, http.StatusInternalServerError, "внутренняя ошибка сервера"
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsUnauthorized(err error) bool {
	return hasCode(err, ErrCodeUnauthorized)
}

func IsInsufficientFunds(err error) bool {
	return hasCode(err, ErrCodeInsufficientFunds)
}

func IsInvalidTransition(err error) bool {
	var transitionErr *InvalidTransitionError
	return errors.As(err, &transitionErr)
}

var (
	ErrBookingNotFound       = New(ErrCodeNotFound, "бронирование не найдено")
	ErrServiceNotFound       = New(ErrCodeNotFound, "услуга не найдена")
	ErrPostNotFound          = New(ErrCodeNotFound, "публикация не найдена")
	ErrPaymentMethodNotFound = New(ErrCodeNotFound, "способ оплаты не найден")
	ErrUserNotFound          = New(ErrCodeNotFound, "пользователь не найден")
	ErrAuthRequired          = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden             = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials    = New(ErrCodeUnauthorized, "неверные учетные данные")
	ErrInsufficientFunds     = New(ErrCodeInsufficientFunds, "недостаточно средств на балансе")
	ErrInsufficientCoins     = New(ErrCodeInsufficientFunds, "недостаточно GlowCoins")
	ErrIdempotencyKeyReused  = New(ErrCodeConflict, "ключ идемпотентности уже использован для другой операции")
)
