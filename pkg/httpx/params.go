package httpx

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClampInt — ограничение значения v в диапазоне [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParsePageLimit — читает page/limit из query: page >= 1, limit в [1, maxLimit].
// Нечисловые значения заменяются дефолтами.
func ParsePageLimit(c *gin.Context, defaultLimit, maxLimit int) (page, limit int) {
	page, limit = 1, ClampInt(defaultLimit, 1, maxLimit)
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("page"))); err == nil {
		page = max(v, 1)
	}
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("limit"))); err == nil {
		limit = ClampInt(v, 1, maxLimit)
	}
	return page, limit
}

// QueryTrim — значение query-параметра без пробелов по краям.
func QueryTrim(c *gin.Context, key string) string {
	return strings.TrimSpace(c.Query(key))
}
