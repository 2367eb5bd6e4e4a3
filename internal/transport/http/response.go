package rest

import (
	"errors"
	"net/http"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/gin-gonic/gin"
)

// Тексты успешных ответов.
const (
	msgRecordCreated   = "Record created successfully"
	msgRecordUpdated   = "Record updated successfully"
	msgRecordDeleted   = "Record deleted successfully"
	msgRecordRetrieved = "Record retrieved successfully"
	msgRecordsList     = "Records retrieved successfully"

	msgOrderCreated   = "Order created successfully"
	msgOrderUpdated   = "Order updated successfully"
	msgOrderDeleted   = "Order deleted successfully"
	msgOrderRetrieved = "Order retrieved successfully"
	msgOrdersList     = "Orders retrieved successfully"

	msgInternal         = "Oops! The problem is not on your side. Hang on, we will fix this soon"
	msgMissingRequester = "Unauthorized: X-User-Email header is required"
	msgRouteNotFound    = "route not found"
	msgMethodNotAllowed = "method not allowed"
)

// envelope — единый формат ответа API.
type envelope struct {
	Status  int        `json:"status"`
	Message string     `json:"message"`
	Data    any        `json:"data"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Kind    domain.Kind    `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Status: status, Message: message, Data: data})
}

func abortWith(c *gin.Context, status int, kind domain.Kind, message string) {
	c.AbortWithStatusJSON(status, envelope{Status: status, Message: message, Error: &errorBody{Kind: kind}})
}

// statusOf — HTTP-код по классу доменной ошибки.
func statusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict, domain.KindInsufficientStock:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusForbidden
	case domain.KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError — доменная ошибка в конверт; внутренняя причина только в лог.
func (h *Handler) respondError(c *gin.Context, op string, err error) {
	kind := domain.KindOf(err)
	status := statusOf(kind)

	body := &errorBody{Kind: kind}
	message := msgInternal
	var de *domain.Error
	if errors.As(err, &de) && kind != domain.KindInternal {
		message = de.Message
		body.Details = de.Details
	}

	if status >= http.StatusInternalServerError {
		h.log.Errorf(c.Request.Context(), "%s failed err=%v", op, err)
	} else {
		h.log.Warnf(c.Request.Context(), "%s rejected kind=%s err=%v", op, kind, err)
	}
	c.JSON(status, envelope{Status: status, Message: message, Error: body})
}
