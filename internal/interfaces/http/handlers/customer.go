// internal/interfaces/http/handlers/customer.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/menu-backend/internal/domain/customer"
	"github.com/your-org/menu-backend/internal/infrastructure/cache"
	"github.com/your-org/menu-backend/internal/infrastructure/storage"
	"github.com/your-org/menu-backend/internal/interfaces/http/middleware"
)

// CustomerHandler handles customer profile endpoints
type CustomerHandler struct {
	storage storage.Storage
	keys    KeySpace
	locks   *SessionLocks
	cache   *cache.Cache
	logger  logrus.FieldLogger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(st storage.Storage, keys KeySpace, locks *SessionLocks, respCache *cache.Cache, logger logrus.FieldLogger) *CustomerHandler {
	return &CustomerHandler{
		storage: st,
		keys:    keys,
		locks:   locks,
		cache:   respCache,
		logger:  logger,
	}
}

// GetCustomer handles GET /customer
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	unlock := h.locks.Lock(sessionID)
	store := h.open(c, sessionID)
	profile := store.Customer()
	store.Close()
	unlock()

	c.JSON(http.StatusOK, gin.H{
		"message": "Customer retrieved successfully",
		"data":    profile,
	})
}

// ReplaceCustomer handles PUT /customer
func (h *CustomerHandler) ReplaceCustomer(c *gin.Context) {
	var req customer.Profile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	h.save(c, func(customer.Profile) customer.Profile { return req })
}

// UpdateCustomer handles PATCH /customer
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var req customer.Patch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	h.save(c, func(current customer.Profile) customer.Profile { return current.Apply(req) })
}

// ClearCustomer handles DELETE /customer
func (h *CustomerHandler) ClearCustomer(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	unlock := h.locks.Lock(sessionID)
	defer unlock()

	store := h.open(c, sessionID)
	defer store.Close()

	store.ClearCustomer(c.Request.Context())
	middleware.InvalidateSession(h.cache, sessionID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Customer cleared successfully",
		"data":    store.Customer(),
	})
}

func (h *CustomerHandler) save(c *gin.Context, change func(customer.Profile) customer.Profile) {
	sessionID := middleware.GetSessionID(c)
	unlock := h.locks.Lock(sessionID)
	defer unlock()

	store := h.open(c, sessionID)
	defer store.Close()

	if err := store.SetCustomer(c.Request.Context(), change(store.Customer())); err != nil {
		if errors.Is(err, customer.ErrInvalidDeliveryMethod) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		h.logger.WithError(err).Error("Customer update failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update customer",
		})
		return
	}
	middleware.InvalidateSession(h.cache, sessionID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Customer updated successfully",
		"data":    store.Customer(),
	})
}

func (h *CustomerHandler) open(c *gin.Context, sessionID string) *customer.Store {
	return customer.NewStore(c.Request.Context(), h.storage, h.keys.CustomerKey(sessionID),
		customer.WithLogger(h.logger.WithField("session_id", sessionID)))
}
