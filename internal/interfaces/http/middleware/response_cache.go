package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/menu-backend/internal/infrastructure/cache"
)

// CacheStatusHeader reports HIT or MISS for cacheable responses
const CacheStatusHeader = "X-Cache"

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// SessionCachePrefix is the prefix under which all cached responses of a
// session live.
func SessionCachePrefix(sessionID string) string {
	return "resp:" + sessionID + ":"
}

// CacheKey builds the response cache key for a session and request path
func CacheKey(sessionID, path string) string {
	return SessionCachePrefix(sessionID) + path
}

// InvalidateSession drops every cached response for the session
func InvalidateSession(store *cache.Cache, sessionID string) {
	if store == nil || sessionID == "" {
		return
	}
	store.DeletePrefix(SessionCachePrefix(sessionID))
}

// ResponseCache serves successful GET responses from the TTL cache, keyed by
// session and path. A nil cache disables it.
func ResponseCache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		sessionID := GetSessionID(c)
		key := CacheKey(sessionID, c.Request.URL.Path)
		if v, ok := store.Get(key); ok {
			if resp, ok := v.(cachedResponse); ok {
				c.Header(CacheStatusHeader, "HIT")
				c.Data(resp.status, resp.contentType, resp.body)
				c.Abort()
				return
			}
		}

		// A mutation finishing while the handler runs invalidates the session
		// before this response is stored; the generation check drops it then.
		prefix := SessionCachePrefix(sessionID)
		gen := store.Generation(prefix)

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Header(CacheStatusHeader, "MISS")

		c.Next()

		if recorder.Status() == http.StatusOK {
			store.SetIfGeneration(prefix, gen, key, cachedResponse{
				status:      http.StatusOK,
				contentType: recorder.Header().Get("Content-Type"),
				body:        append([]byte(nil), recorder.body.Bytes()...),
			}, ttl)
		}
	}
}
