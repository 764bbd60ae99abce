package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"skill_swap/pkg/logger"
)

// RequestLogger пишет структурированную запись на каждый запрос.
// Идентификатор ресурса и пользователь добавляются, когда маршрут их знает.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, "resource_id", id)
		}
		if value, ok := c.Get("user_id"); ok {
			if userID, ok := value.(uuid.UUID); ok {
				fields = append(fields, "user_id", userID)
			}
		}

		if c.Writer.Status() >= 500 {
			log.Error("Request failed", fields...)
			return
		}
		log.Info("Request handled", fields...)
	}
}
