package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"spokesbot/internal/platform/mysql"
	"spokesbot/internal/transport/http/response"
)

type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
	amqp  *amqp.Connection
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client, conn *amqp.Connection) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb, amqp: conn}
}

// Health pings every backing service. Any failed dependency turns the
// overall status to degraded with a 503.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{
		"mysql":    h.checkMySQL(ctx),
		"redis":    h.checkRedis(ctx),
		"rabbitmq": h.checkRabbitMQ(),
	}

	status := "ok"
	httpStatus := http.StatusOK
	for _, v := range checks {
		if v != "ok" && v != "disabled" {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(httpStatus, response.APIResponse{
		Code:    response.CodeOK,
		Message: status,
		Data:    checks,
	})
}

func (h *HealthHandler) checkMySQL(ctx context.Context) string {
	if h.db == nil {
		return "disabled"
	}
	if err := mysql.Ping(ctx, h.db); err != nil {
		return err.Error()
	}
	return "ok"
}

func (h *HealthHandler) checkRedis(ctx context.Context) string {
	if h.redis == nil {
		return "disabled"
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return err.Error()
	}
	return "ok"
}

func (h *HealthHandler) checkRabbitMQ() string {
	if h.amqp == nil {
		return "disabled"
	}
	if h.amqp.IsClosed() {
		return "connection closed"
	}
	return "ok"
}
