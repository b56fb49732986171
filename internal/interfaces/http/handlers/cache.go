package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/menu-backend/internal/infrastructure/cache"
)

// CacheHandler exposes maintenance of the response cache
type CacheHandler struct {
	cache  *cache.Cache
	logger logrus.FieldLogger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(respCache *cache.Cache, logger logrus.FieldLogger) *CacheHandler {
	return &CacheHandler{cache: respCache, logger: logger}
}

// ClearCache handles DELETE /cache
func (h *CacheHandler) ClearCache(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{
			"message": "Cache is disabled",
			"data":    gin.H{"cleared": 0},
		})
		return
	}

	cleared := h.cache.Len()
	h.cache.Clear()
	h.logger.WithField("entries", cleared).Info("Response cache cleared")

	c.JSON(http.StatusOK, gin.H{
		"message": "Cache cleared successfully",
		"data":    gin.H{"cleared": cleared},
	})
}
