package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/deevah-backend/internal/dto"
	"github.com/ignatzorin/deevah-backend/internal/http/middleware"
	"github.com/ignatzorin/deevah-backend/internal/logger"
	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
)

var (
	// ErrUserNotFound is returned when user is not found in context
	ErrUserNotFound = errors.New("пользователь не найден в контексте")

	// ErrInvalidUUID is returned when UUID parsing fails
	ErrInvalidUUID = errors.New("неверный формат UUID")
)

// CurrentActor returns the authenticated caller set by AuthMiddleware.
func CurrentActor(c *gin.Context) (models.Actor, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return models.Actor{}, ErrUserNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return models.Actor{}, ErrUserNotFound
	}

	role, _ := c.Get(middleware.ContextRoleKey)
	roleStr, _ := role.(string)
	return models.Actor{UserID: userID, Role: roleStr}, nil
}

// OptionalActor returns the caller if present, otherwise an anonymous actor.
func OptionalActor(c *gin.Context) models.Actor {
	actor, _ := CurrentActor(c)
	return actor
}

// RequireActor extracts the caller or writes 401 and returns false.
func RequireActor(c *gin.Context) (models.Actor, bool) {
	actor, err := CurrentActor(c)
	if err != nil {
		RespondAppError(c, apperror.ErrAuthRequired)
		return models.Actor{}, false
	}
	return actor, true
}

// ParseUUIDParam parses UUID from URL parameter
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("параметр %s отсутствует", paramName)
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}

	return parsed, nil
}

// BindJSON binds the request body or writes a 400 response and returns false.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		RespondError(c, http.StatusBadRequest, string(apperror.ErrCodeValidation), "некорректное тело запроса")
		return false
	}
	return true
}

// RespondError sends a standardized error response
func RespondError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.ErrorResponse{Error: message, Code: code})
}

// RespondAppError maps a service error to its HTTP status. Internal causes are
// logged and never returned to the client.
func RespondAppError(c *gin.Context, err error) {
	code, status, message := apperror.Resolve(err)
	if status >= http.StatusInternalServerError {
		logger.Log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("request failed")
	}
	RespondError(c, status, string(code), message)
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "некорректный запрос"
	}
	RespondError(c, http.StatusBadRequest, string(apperror.ErrCodeBadRequest), message)
}

// ParseIntQuery safely reads an integer query parameter with a fallback value
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPagination extracts limit and offset from query parameters with defaults
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
