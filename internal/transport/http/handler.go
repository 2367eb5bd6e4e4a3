package rest

import (
	"context"
	"time"

	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/gin-gonic/gin"
)

// Handler — HTTP-обработчики каталога и заказов поверх портов сервисов.
type Handler struct {
	orders     ports.OrderService
	catalog    ports.CatalogService
	log        ports.Logger
	reqTimeout time.Duration // 0 — без собственного таймаута
}

func NewHandler(orders ports.OrderService, catalog ports.CatalogService, log ports.Logger, reqTimeout time.Duration) *Handler {
	return &Handler{orders: orders, catalog: catalog, log: log, reqTimeout: reqTimeout}
}

// ctx — контекст запроса, ограниченный таймаутом обработчика.
func (h *Handler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.reqTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.reqTimeout)
}
