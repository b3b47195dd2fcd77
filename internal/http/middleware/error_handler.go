package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/deevah-backend/internal/dto"
	"github.com/ignatzorin/deevah-backend/internal/logger"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Паника и ошибки, добавленные через c.Error, превращаются в JSON ответ,
// внутренние причины только логируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Log.WithFields(logrus.Fields{
					"panic":  rec,
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("panic recovered")

				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
						Error: "внутренняя ошибка сервера",
						Code:  string(apperror.ErrCodeInternal),
					})
				}
			}
		}()

		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		code, status, message := apperror.Resolve(err)
		if status >= http.StatusInternalServerError {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("request error")
		}

		c.JSON(status, dto.ErrorResponse{Error: message, Code: string(code)})
	}
}
