package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/loyalty/backend/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers wired into the router
type Handlers struct {
	Customer *handler.CustomerHandler
	Loyalty  *handler.LoyaltyHandler
	Sync     *handler.SyncHandler
}

// New builds the gin engine with middleware and all API routes
func New(h Handlers, logger *zap.Logger, env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	{
		customers := v1.Group("/customers")
		{
			customers.GET("", h.Customer.List)
			customers.POST("", h.Customer.Create)
			customers.GET("/:id", h.Customer.Get)
			customers.POST("/:id/deactivate", h.Customer.Deactivate)
			customers.GET("/:id/orders", h.Customer.ListOrders)
			customers.GET("/:id/queue", h.Loyalty.GetQueue)
			customers.POST("/:id/queue/bundle", h.Loyalty.FormBundle)
			customers.GET("/:id/wallet", h.Loyalty.GetWallet)
			customers.GET("/:id/wallet/transactions", h.Loyalty.GetWalletTransactions)
			customers.GET("/:id/discount-groups", h.Loyalty.ListGroups)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("/:id", h.Customer.GetOrder)
			orders.DELETE("/:id/items/:itemId", h.Customer.RemoveOrderItem)
		}

		groups := v1.Group("/discount-groups")
		{
			groups.POST("", h.Loyalty.CreateGroup)
			groups.GET("/:id", h.Loyalty.GetGroup)
			groups.PUT("/:id", h.Loyalty.UpdateGroup)
			groups.DELETE("/:id", h.Loyalty.DeleteGroup)
			groups.POST("/:id/redeem", h.Loyalty.RedeemGroup)
		}

		loyalty := v1.Group("/loyalty")
		{
			loyalty.GET("/settings", h.Loyalty.GetSettings)
			loyalty.PUT("/settings", h.Loyalty.UpdateSettings)
		}

		sync := v1.Group("/sync")
		{
			sync.POST("/full", h.Sync.StartFull)
			sync.POST("/incremental", h.Sync.StartIncremental)
			sync.POST("/customers/:wawiId", h.Sync.SyncCustomer)
			sync.GET("/status", h.Sync.Status)
		}
	}

	return engine
}

// requestLogger logs each request with latency and status
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("Request", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("Request", fields...)
		default:
			log.Info("Request", fields...)
		}
	}
}
