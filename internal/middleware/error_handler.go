package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"skill_swap/pkg/errors"
	"skill_swap/pkg/logger"
)

// ErrorHandler переводит ошибки, накопленные обработчиком, в JSON-ответ.
// Внутренние ошибки логируются, клиенту уходит только статус.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		statusCode := errors.HTTPStatusFromError(err.Err)
		if statusCode >= http.StatusInternalServerError {
			log.Error("Unhandled request error", "error", err.Err, "path", c.Request.URL.Path)
			c.JSON(statusCode, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(statusCode, gin.H{"error": err.Error()})
	}
}
