package rest

import (
	"net/http"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/pkg/httpx"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter — gin.Engine со служебными маршрутами и API v1.
// Пустой otelServiceName отключает трассировку запросов.
func NewRouter(h *Handler, otelServiceName string) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	if otelServiceName != "" {
		r.Use(otelgin.Middleware(otelServiceName))
	}
	r.Use(httpx.RequestIDMiddleware())
	r.Use(httpx.RequestLogger(h.log))

	r.NoRoute(func(c *gin.Context) {
		abortWith(c, http.StatusNotFound, domain.KindNotFound, msgRouteNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		abortWith(c, http.StatusMethodNotAllowed, domain.KindBadRequest, msgMethodNotAllowed)
	})

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1", identify())

	// Чтение каталога публичное.
	api.GET("/records", h.findRecords)
	api.GET("/records/:id", h.findRecord)

	auth := api.Group("", requireRequester())
	auth.POST("/records", h.createRecord)
	auth.PUT("/records/:id", h.updateRecord)
	auth.DELETE("/records/:id", h.deleteRecord)

	auth.POST("/orders", h.createOrder)
	auth.GET("/orders", h.findOrders)
	auth.GET("/orders/:id", h.findOrder)
	auth.PATCH("/orders/:id", h.updateOrder)
	auth.DELETE("/orders/:id", h.removeOrder)

	return r
}
