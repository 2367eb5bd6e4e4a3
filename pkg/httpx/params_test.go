package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Gunvolt24/record_shop/pkg/httpx"
)

func queryContext(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/records?"+rawQuery, http.NoBody)
	return c
}

func TestClampInt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, httpx.ClampInt(-3, 1, 100))
	assert.Equal(t, 100, httpx.ClampInt(250, 1, 100))
	assert.Equal(t, 42, httpx.ClampInt(42, 1, 100))
	assert.Equal(t, 1, httpx.ClampInt(1, 1, 100))
}

func TestParsePageLimit(t *testing.T) {
	t.Parallel()

	// query → page, limit при default=10, max=100
	cases := map[string][2]int{
		"":                     {1, 10},
		"page=3&limit=25":      {3, 25},
		"page=%204%20&limit=5": {4, 5},
		"page=0":               {1, 10},
		"page=-4&limit=0":      {1, 1},
		"limit=999":            {1, 100},
		"page=two&limit=foo":   {1, 10},
	}
	for q, want := range cases {
		page, limit := httpx.ParsePageLimit(queryContext(q), 10, 100)
		assert.Equal(t, want, [2]int{page, limit}, "query %q", q)
	}

	_, limit := httpx.ParsePageLimit(queryContext(""), 500, 100)
	assert.Equal(t, 100, limit, "default above max must be clamped")
}

func TestQueryTrim(t *testing.T) {
	t.Parallel()

	c := queryContext("artist=%20%20Miles%20Davis%20")
	assert.Equal(t, "Miles Davis", httpx.QueryTrim(c, "artist"))
	assert.Empty(t, httpx.QueryTrim(c, "album"))
}
