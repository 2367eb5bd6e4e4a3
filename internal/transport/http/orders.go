package rest

import (
	"net/http"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/pkg/httpx"
	"github.com/gin-gonic/gin"
)

func (h *Handler) createOrder(c *gin.Context) {
	var in domain.CreateOrderInput
	if err := decodeStrict(c, &in); err != nil {
		h.respondError(c, "CreateOrder", err)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	order, err := h.orders.CreateOrder(ctx, mustRequester(c), in)
	if err != nil {
		h.respondError(c, "CreateOrder", err)
		return
	}
	respond(c, http.StatusCreated, msgOrderCreated, order)
}

func (h *Handler) findOrders(c *gin.Context) {
	page, limit := httpx.ParsePageLimit(c, domain.DefaultLimit, domain.MaxLimit)

	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.orders.FindOrders(ctx, mustRequester(c), page, limit)
	if err != nil {
		h.respondError(c, "FindOrders", err)
		return
	}
	respond(c, http.StatusOK, msgOrdersList, res)
}

func (h *Handler) findOrder(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	order, err := h.orders.FindOrder(ctx, mustRequester(c), c.Param("id"))
	if err != nil {
		h.respondError(c, "FindOrder", err)
		return
	}
	respond(c, http.StatusOK, msgOrderRetrieved, order)
}

// updateOrder — recordId и totalPrice в теле отклоняются как неизвестные поля.
func (h *Handler) updateOrder(c *gin.Context) {
	id := c.Param("id")
	var patch domain.OrderPatch
	if err := decodeStrict(c, &patch); err != nil {
		h.respondError(c, "UpdateOrder", err)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	order, err := h.orders.UpdateOrder(ctx, mustRequester(c), id, patch)
	if err != nil {
		h.respondError(c, "UpdateOrder", err)
		return
	}
	respond(c, http.StatusOK, msgOrderUpdated, order)
}

func (h *Handler) removeOrder(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.orders.RemoveOrder(ctx, mustRequester(c), c.Param("id")); err != nil {
		h.respondError(c, "RemoveOrder", err)
		return
	}
	respond(c, http.StatusOK, msgOrderDeleted, nil)
}
