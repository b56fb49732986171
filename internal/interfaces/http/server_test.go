package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/menu-backend/internal/config"
	"github.com/your-org/menu-backend/internal/domain/upload"
	"github.com/your-org/menu-backend/internal/infrastructure/cache"
	"github.com/your-org/menu-backend/internal/infrastructure/storage"
	"github.com/your-org/menu-backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type downStorage struct {
	*storage.Memory
}

func (downStorage) Ping(context.Context) error {
	return errors.New("connection refused")
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "Menu Backend", Version: "test", Environment: "test"},
		Server:  config.ServerConfig{Port: "0", RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20},
		Storage: config.StorageConfig{Driver: config.StorageMemory, KeyPrefix: "menu:"},
		Security: config.SecurityConfig{
			RateLimitPerMinute: 100,
			CORSAllowedOrigins: []string{"http://localhost:3000"},
			CORSAllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			CORSAllowedHeaders: []string{"Content-Type"},
		},
		Cache:     config.CacheConfig{Enabled: true, TTL: time.Minute},
		ImageHost: config.ImageHostConfig{FieldName: "image", MaxSize: 1 << 20},
		Logging:   config.LoggingConfig{Level: "info", Format: "json"},
	}
}

func newTestServer(t *testing.T, st storage.Storage) (*Server, *prometheus.Registry) {
	t.Helper()
	cfg := testConfig()
	logger, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()

	s := NewServer(cfg, Dependencies{
		Storage:  st,
		Cache:    cache.New(cache.WithDefaultTTL(cfg.Cache.TTL)),
		Uploader: upload.NewService(cfg.ImageHost, logger),
		Registry: reg,
		Logger:   logger,
	})
	return s, reg
}

func request(s *Server, method, path, body, session string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set(middleware.SessionHeader, session)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t, storage.NewMemory())

	rec := request(s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestHealthCheckReportsStorageFailure(t *testing.T) {
	s, _ := newTestServer(t, downStorage{storage.NewMemory()})

	rec := request(s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "storage ping failed")
}

func TestReadinessCheck(t *testing.T) {
	s, _ := newTestServer(t, storage.NewMemory())

	rec := request(s, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)
}

func TestCartRoundTripThroughRouter(t *testing.T) {
	st := storage.NewMemory()
	s, _ := newTestServer(t, st)

	rec := request(s, http.MethodGet, "/api/v1/cart", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	session := rec.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, session)

	rec = request(s, http.MethodPost, "/api/v1/cart/items", `{"dish":{"id":"7"},"totalPrice":12.5}`, session)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	raw, err := st.Get(context.Background(), "menu:cart:session:"+session)
	require.NoError(t, err)
	assert.Contains(t, raw, `"totalPrice":12.5`)

	rec = request(s, http.MethodGet, "/api/v1/cart", "", session)
	assert.Equal(t, "MISS", rec.Header().Get(middleware.CacheStatusHeader))
	assert.Contains(t, rec.Body.String(), `"items_count":1`)
}

func TestUploadWithoutAPIKeyIsUnavailable(t *testing.T) {
	s, _ := newTestServer(t, storage.NewMemory())

	body := "--x\r\nContent-Disposition: form-data; name=\"image\"; filename=\"a.png\"\r\nContent-Type: image/png\r\n\r\nabc\r\n--x--\r\n"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/image", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpointExposesRequestCounts(t *testing.T) {
	s, reg := newTestServer(t, storage.NewMemory())

	request(s, http.MethodGet, "/health", "", "")

	rec := request(s, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestStopBeforeStartIsNoop(t *testing.T) {
	s, _ := newTestServer(t, storage.NewMemory())
	assert.NoError(t, s.Stop(context.Background()))
}
