// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/menu-backend/internal/domain/cart"
	"github.com/your-org/menu-backend/internal/infrastructure/cache"
	"github.com/your-org/menu-backend/internal/infrastructure/storage"
	"github.com/your-org/menu-backend/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	storage storage.Storage
	keys    KeySpace
	locks   *SessionLocks
	cache   *cache.Cache
	logger  logrus.FieldLogger
}

// CartResponse is the cart as returned by the API
type CartResponse struct {
	Items      []cart.CartItem `json:"items"`
	Total      decimal.Decimal `json:"total"`
	ItemsCount int             `json:"items_count"`
}

// UpdateQuantityRequest carries the quantity change of one line
type UpdateQuantityRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

// NewCartHandler creates a new cart handler
func NewCartHandler(st storage.Storage, keys KeySpace, locks *SessionLocks, respCache *cache.Cache, logger logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		storage: st,
		keys:    keys,
		locks:   locks,
		cache:   respCache,
		logger:  logger,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	unlock := h.locks.Lock(sessionID)
	store := h.open(c, sessionID)
	unlock()

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    toCartResponse(store),
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req cart.CartItem
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sessionID := middleware.GetSessionID(c)
	unlock := h.locks.Lock(sessionID)
	defer unlock()

	store := h.open(c, sessionID)
	item, err := store.AddItem(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	middleware.InvalidateSession(h.cache, sessionID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Item added to cart successfully",
		"data": gin.H{
			"item": item,
			"cart": toCartResponse(store),
		},
	})
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	itemID := c.Param("id")

	var req cart.CartItem
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sessionID := middleware.GetSessionID(c)
	unlock := h.locks.Lock(sessionID)
	defer unlock()

	store := h.open(c, sessionID)
	if _, ok := store.Item(itemID); !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Cart item not found",
		})
		return
	}

	if err := store.UpdateItem(c.Request.Context(), itemID, req); err != nil {
		h.writeError(c, err)
		return
	}
	middleware.InvalidateSession(h.cache, sessionID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    toCartResponse(store),
	})
}

// UpdateQuantity handles PATCH /cart/items/:id/quantity
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	itemID := c.Param("id")

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sessionID := middleware.GetSessionID(c)
	unlock := h.locks.Lock(sessionID)
	defer unlock()

	store := h.open(c, sessionID)
	if _, ok := store.Item(itemID); !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Cart item not found",
		})
		return
	}

	store.UpdateQuantity(c.Request.Context(), itemID, *req.Delta)
	middleware.InvalidateSession(h.cache, sessionID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item quantity updated successfully",
		"data":    toCartResponse(store),
	})
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	itemID := c.Param("id")

	sessionID := middleware.GetSessionID(c)
	unlock := h.locks.Lock(sessionID)
	defer unlock()

	store := h.open(c, sessionID)
	if _, ok := store.Item(itemID); !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Cart item not found",
		})
		return
	}

	store.RemoveItem(c.Request.Context(), itemID)
	middleware.InvalidateSession(h.cache, sessionID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    toCartResponse(store),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	unlock := h.locks.Lock(sessionID)
	defer unlock()

	store := h.open(c, sessionID)
	store.ClearCart(c.Request.Context())
	middleware.InvalidateSession(h.cache, sessionID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
		"data":    toCartResponse(store),
	})
}

func (h *CartHandler) open(c *gin.Context, sessionID string) *cart.Store {
	return cart.NewStore(c.Request.Context(), h.storage, h.keys.CartKey(sessionID),
		cart.WithLogger(h.logger.WithField("session_id", sessionID)))
}

func (h *CartHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, cart.ErrInvalidItem) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.logger.WithError(err).Error("Cart operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to update cart",
	})
}

func toCartResponse(store *cart.Store) CartResponse {
	return CartResponse{
		Items:      store.Items(),
		Total:      store.Total(),
		ItemsCount: store.ItemsCount(),
	}
}
