package httpx_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/record_shop/pkg/ctxmeta"
	"github.com/Gunvolt24/record_shop/pkg/httpx"
)

// lineLogger — запоминает Infof-строки вместе с request id из контекста.
type lineLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineLogger) Infof(ctx context.Context, format string, args ...any) {
	rid, _ := ctxmeta.RequestIDFromContext(ctx)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, rid+" "+fmt.Sprintf(format, args...))
}
func (*lineLogger) Warnf(context.Context, string, ...any)  {}
func (*lineLogger) Errorf(context.Context, string, ...any) {}

func newEngine(log *lineLogger) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.Use(httpx.RequestIDMiddleware(), httpx.RequestLogger(log))
	r.GET("/api/v1/records/:id", func(c *gin.Context) {
		seen, _ = ctxmeta.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r, &seen
}

func TestRequestID(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		wantSame bool
	}{
		{"generated when missing", "", false},
		{"client id kept", "custom-id-42", true},
		{"oversized replaced", strings.Repeat("x", 500), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, seen := newEngine(&lineLogger{})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/records/r-1", http.NoBody)
			if tc.header != "" {
				req.Header.Set(httpx.HeaderRequestID, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			rid := w.Header().Get(httpx.HeaderRequestID)
			require.NotEmpty(t, rid)
			assert.Equal(t, rid, *seen, "context and response header must agree")
			if tc.wantSame {
				assert.Equal(t, tc.header, rid)
				return
			}
			_, err := uuid.Parse(rid)
			assert.NoError(t, err, "generated id must be a UUID, got %q", rid)
		})
	}
}

func TestRequestLogger_SkipsServiceRoutes(t *testing.T) {
	log := &lineLogger{}
	r, _ := newEngine(log)

	for _, path := range []string{"/ping", "/api/v1/records/r-9", "/nope"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		req.Header.Set(httpx.HeaderRequestID, "rid-"+strings.TrimPrefix(path, "/"))
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, log.lines, 2)
	assert.Contains(t, log.lines[0], "path=/api/v1/records/r-9 status=204")
	assert.True(t, strings.HasPrefix(log.lines[0], "rid-api/v1/records/r-9 "), "request id must reach the logger: %q", log.lines[0])
	assert.Contains(t, log.lines[1], "path=/nope status=404")
}
