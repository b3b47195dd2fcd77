package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/deevah-backend/internal/dto"
	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// AccessTokenParser разбирает access токен в вызывающего пользователя.
type AccessTokenParser interface {
	ParseAccess(token string) (models.Actor, error)
}

// AuthMiddleware проверяет JWT access токен.
func AuthMiddleware(tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "требуется авторизация")
			return
		}

		actor, err := tokens.ParseAccess(raw)
		if err != nil || actor.UserID == uuid.Nil {
			abortUnauthorized(c, "токен невалиден")
			return
		}

		setActor(c, actor)
		c.Next()
	}
}

// OptionalAuth выставляет пользователя, если передан валидный токен,
// и пропускает анонимный запрос без ошибки.
func OptionalAuth(tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if actor, err := tokens.ParseAccess(raw); err == nil && actor.UserID != uuid.Nil {
				setActor(c, actor)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

func setActor(c *gin.Context, actor models.Actor) {
	c.Set(ContextUserIDKey, actor.UserID)
	c.Set(ContextRoleKey, actor.Role)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error: message,
		Code:  string(apperror.ErrCodeUnauthorized),
	})
}
