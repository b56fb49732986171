package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/menu-backend/internal/config"
	"github.com/your-org/menu-backend/internal/infrastructure/cache"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSessionMintsCookieWhenMissing(t *testing.T) {
	r := gin.New()
	r.Use(Session(false))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetSessionID(c)) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Body.String())
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, rec.Body.String(), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSessionReusesCookieAndHeader(t *testing.T) {
	r := gin.New()
	r.Use(Session(false))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetSessionID(c)) })

	fromCookie := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: fromCookie})
	assert.Equal(t, fromCookie, serve(r, req).Body.String())

	fromHeader := uuid.New().String()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: fromCookie})
	req.Header.Set(SessionHeader, fromHeader)
	assert.Equal(t, fromHeader, serve(r, req).Body.String())
}

func TestSessionReplacesMalformedID(t *testing.T) {
	r := gin.New()
	r.Use(Session(false))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetSessionID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "../../etc"})

	got := serve(r, req).Body.String()
	assert.NotEqual(t, "../../etc", got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
}

func TestRequestIDPropagatesOrGenerates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := serve(r, req)
	assert.Equal(t, "abc-123", rec.Body.String())
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestSizeLimitRejectsLargeBodies(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimit(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	cfg := &config.Config{Security: config.SecurityConfig{
		CORSAllowedOrigins: []string{"https://menu.example", "*.shop.example"},
		CORSAllowedMethods: []string{"GET", "POST"},
		CORSAllowedHeaders: []string{"Content-Type"},
	}}

	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://menu.example", true},
		{"https://a.shop.example", true},
		{"https://evilshop.example", false},
		{"https://other.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", tt.origin)
			rec := serve(r, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://menu.example")
	rec := serve(r, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), SessionHeader)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) Hit(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[key]++
	return f.counts[key], nil
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := gin.New()
	r.Use(RateLimit(2, &fakeLimiter{}, logger))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitFailsOpen(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RateLimit(1, &fakeLimiter{err: errors.New("connection refused")}, logger))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
	assert.Len(t, hook.AllEntries(), 3)
}

func TestRateLimitDisabledWithoutLimiter(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := gin.New()
	r.Use(RateLimit(1, nil, logger))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestTimeoutSetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusGatewayTimeout, serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/fast", nil)).Code)
}

func TestResponseCacheServesHitsPerSession(t *testing.T) {
	c := cache.New()
	calls := 0

	r := gin.New()
	r.Use(Session(false))
	r.GET("/cart", ResponseCache(c, time.Minute), func(ctx *gin.Context) {
		calls++
		ctx.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	sessionA := uuid.New().String()
	sessionB := uuid.New().String()
	get := func(session string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set(SessionHeader, session)
		return serve(r, req)
	}

	first := get(sessionA)
	assert.Equal(t, "MISS", first.Header().Get(CacheStatusHeader))

	second := get(sessionA)
	assert.Equal(t, "HIT", second.Header().Get(CacheStatusHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	assert.Equal(t, "MISS", get(sessionB).Header().Get(CacheStatusHeader))
	assert.Equal(t, 2, calls)

	InvalidateSession(c, sessionA)
	assert.Equal(t, "MISS", get(sessionA).Header().Get(CacheStatusHeader))
	assert.Equal(t, 3, calls)
	assert.Equal(t, "HIT", get(sessionB).Header().Get(CacheStatusHeader))
}

func TestResponseCacheSkipsErrorsAndNilCache(t *testing.T) {
	c := cache.New()
	r := gin.New()
	r.Use(Session(false))
	r.GET("/fail", ResponseCache(c, time.Minute), func(ctx *gin.Context) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})
	r.GET("/nocache", ResponseCache(nil, time.Minute), func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, 0, c.Len())

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/nocache", nil))
	assert.Empty(t, rec.Header().Get(CacheStatusHeader))
}

func TestSessionNormalizesUUIDSpellings(t *testing.T) {
	r := gin.New()
	r.Use(Session(false))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetSessionID(c)) })

	id := uuid.New()
	for _, spelling := range []string{
		"{" + id.String() + "}",
		"urn:uuid:" + id.String(),
		strings.ReplaceAll(id.String(), "-", ""),
		strings.ToUpper(id.String()),
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: spelling})
		rec := serve(r, req)

		assert.Equal(t, id.String(), rec.Body.String(), spelling)
		assert.Equal(t, id.String(), rec.Result().Cookies()[0].Value)
	}
}
