package rest

import (
	"net/http"
	"strings"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/pkg/ctxmeta"
	"github.com/gin-gonic/gin"
)

// Заголовки, которыми доверенный шлюз передаёт инициатора запроса.
const (
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

const requesterKey = "requester"

// identify — читает инициатора из заголовков (если он есть) в gin.Context и в контекст логов.
func identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.GetHeader(HeaderUserEmail))
		if email != "" {
			c.Set(requesterKey, domain.Requester{Email: email, Role: domain.ParseRole(c.GetHeader(HeaderUserRole))})
			c.Request = c.Request.WithContext(ctxmeta.WithUser(c.Request.Context(), email))
		}
		c.Next()
	}
}

// requireRequester — без инициатора запрос отклоняется с 401.
func requireRequester() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requesterFrom(c); !ok {
			abortWith(c, http.StatusUnauthorized, domain.KindUnauthorized, msgMissingRequester)
			return
		}
		c.Next()
	}
}

func requesterFrom(c *gin.Context) (domain.Requester, bool) {
	v, ok := c.Get(requesterKey)
	if !ok {
		return domain.Requester{}, false
	}
	req, ok := v.(domain.Requester)
	return req, ok
}

// mustRequester — инициатор на маршрутах за requireRequester.
func mustRequester(c *gin.Context) domain.Requester {
	req, _ := requesterFrom(c)
	return req
}
