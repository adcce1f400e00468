package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"freight/internal/handler"
	"freight/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	BookingHandler        *handler.BookingHandler
	FareHandler           *handler.FareHandler
	RecommendationHandler *handler.RecommendationHandler
	RouteHandler          *handler.RouteHandler
	BackloadHandler       *handler.BackloadHandler
	AdminHandler          *handler.AdminHandler
	RedisClient           *redis.Client
	NewRelicApp           *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

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
		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("", deps.BookingHandler.ListBookings)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.POST("/:id/transition", deps.BookingHandler.TransitionBooking)
			bookings.POST("/:id/cancel", deps.BookingHandler.CancelBooking)
			bookings.POST("/:id/reassign", deps.BookingHandler.ReassignDriver)
			bookings.GET("/:id/fee", deps.BookingHandler.GetCancellationFee)
		}

		// Cancellation fee settlement.
		v1.POST("/fees/:id/settle", deps.BookingHandler.SettleFee)

		// Fare quote.
		v1.POST("/fares/quote", deps.FareHandler.QuoteFare)

		// Driver-scoped routes.
		drivers := v1.Group("/drivers")
		{
			drivers.GET("/:id/recommendations", deps.RecommendationHandler.GetRecommendations)
			drivers.GET("/:id/backloads", deps.BackloadHandler.ListByDriver)
		}

		// Backload opportunities.
		v1.GET("/backloads", deps.BackloadHandler.ListAvailable)

		// Route utilization.
		routes := v1.Group("/routes")
		{
			routes.GET("/utilization", deps.RouteHandler.GetRouteUtilization)
			routes.POST("/aggregate", deps.RouteHandler.TriggerAggregation)
		}

		// Admin configuration.
		admin := v1.Group("/admin")
		{
			admin.POST("/surge-rules", deps.AdminHandler.CreateSurgeRule)
			admin.POST("/surge-rules/:id/activate", deps.AdminHandler.SetSurgeRuleActive(true))
			admin.POST("/surge-rules/:id/deactivate", deps.AdminHandler.SetSurgeRuleActive(false))
			admin.PUT("/fee-config", deps.AdminHandler.UpdateFeeConfig)
			admin.PUT("/discount-config", deps.AdminHandler.UpdateDiscountConfig)
		}
	}

	return router
}
