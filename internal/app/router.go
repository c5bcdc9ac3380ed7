package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"shiptrack/internal/handler"
	"shiptrack/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	OrderHandler    *handler.OrderHandler
	RouteHandler    *handler.RouteHandler
	ReportHandler   *handler.ReportHandler
	EventsHandler   *handler.EventsHandler
	DispatchHandler *handler.DispatchHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Order routes.
		orders := v1.Group("/orders")
		{
			orders.POST("", deps.OrderHandler.CreateOrder)
			orders.GET("", deps.OrderHandler.ListOrders)
			orders.POST("/ship-batch", deps.OrderHandler.ShipBatch)
			orders.GET("/:id", deps.OrderHandler.GetOrder)
			orders.POST("/:id/ship", deps.OrderHandler.ShipOrder)
			orders.POST("/:id/cancel", deps.OrderHandler.CancelOrder)
			orders.POST("/:id/advance", deps.OrderHandler.AdvanceOrder)
			orders.GET("/:id/track", deps.OrderHandler.TrackOrder)
			orders.GET("/:id/timeline", deps.OrderHandler.GetTimeline)
			orders.GET("/:id/route", deps.RouteHandler.GetRouteByOrder)
			orders.GET("/:id/report", deps.ReportHandler.GetDeliveryReport)
		}

		// Event streams, keyed by order number.
		events := v1.Group("/events")
		{
			events.GET("", deps.EventsHandler.StreamAllEvents)
			events.GET("/:orderNo", deps.EventsHandler.StreamOrderEvents)
		}

		// Dispatch dashboard routes.
		dispatch := v1.Group("/dispatch")
		{
			dispatch.GET("/nearby", deps.DispatchHandler.NearbyOrders)
		}

		// Carrier registry.
		v1.GET("/carriers", deps.OrderHandler.ListCarriers)
	}

	return router
}
