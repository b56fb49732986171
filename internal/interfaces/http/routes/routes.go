// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/menu-backend/internal/interfaces/http/handlers"
)

// Handlers groups the API handlers mounted under /api/v1
type Handlers struct {
	Cart     *handlers.CartHandler
	Customer *handlers.CustomerHandler
	Upload   *handlers.UploadHandler
	Cache    *handlers.CacheHandler
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, h *handlers.CartHandler, cached gin.HandlerFunc) {
	cart := rg.Group("/cart")
	{
		cart.GET("", cached, h.GetCart)
		cart.POST("/items", h.AddToCart)
		cart.PUT("/items/:id", h.UpdateCartItem)
		cart.PATCH("/items/:id/quantity", h.UpdateQuantity)
		cart.DELETE("/items/:id", h.RemoveFromCart)
		cart.DELETE("", h.ClearCart)
	}
}

// SetupCustomerRoutes sets up customer profile routes
func SetupCustomerRoutes(rg *gin.RouterGroup, h *handlers.CustomerHandler, cached gin.HandlerFunc) {
	customer := rg.Group("/customer")
	{
		customer.GET("", cached, h.GetCustomer)
		customer.PUT("", h.ReplaceCustomer)
		customer.PATCH("", h.UpdateCustomer)
		customer.DELETE("", h.ClearCustomer)
	}
}

// SetupUploadRoutes sets up upload related routes
func SetupUploadRoutes(rg *gin.RouterGroup, h *handlers.UploadHandler) {
	uploads := rg.Group("/uploads")
	{
		uploads.POST("/image", h.UploadImage)
	}
}

// SetupCacheRoutes sets up cache maintenance routes
func SetupCacheRoutes(rg *gin.RouterGroup, h *handlers.CacheHandler) {
	rg.DELETE("/cache", h.ClearCache)
}

// SetupRoutes sets up all API routes. Every route runs inside a session.
func SetupRoutes(rg *gin.RouterGroup, h Handlers, session, cached gin.HandlerFunc) {
	rg.Use(session)

	SetupCartRoutes(rg, h.Cart, cached)
	SetupCustomerRoutes(rg, h.Customer, cached)
	SetupUploadRoutes(rg, h.Upload)
	SetupCacheRoutes(rg, h.Cache)
}
