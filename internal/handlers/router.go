package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking/internal/middleware"
	"github.com/voyago/travel-booking/internal/services"
)

func newEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Client-ID"}
	r.Use(cors.New(config))
	return r
}

// NewBookingRouter serves one domain booking service.
func NewBookingRouter(store *services.BookingStore, limiter *services.RateLimiter, jwtSecret string, log *zap.Logger) *gin.Engine {
	r := newEngine(log)
	slug := store.Item().Slug()
	name := slug + "-booking-service"

	r.GET("/", ServiceInfo(name))
	r.GET("/health", Health(name, store))

	protected := r.Group("/")
	protected.Use(middleware.RateLimit(limiter, log))
	protected.Use(middleware.AuthMiddleware(jwtSecret))
	{
		protected.POST("/"+slug+"/book", BookItem(store))

		bookings := protected.Group("/" + slug + "s")
		{
			bookings.GET("/booking/:booking_id", GetBooking(store))
			bookings.DELETE("/delete", DeleteBooking(store))
			bookings.GET("/bookings", ListBookings(store))
		}
	}
	return r
}

// NewTripRouter serves the trip service.
func NewTripRouter(trips *services.TripStore, sagas *services.SagaStore, booker *services.TripBooker, hub *services.Hub, limiter *services.RateLimiter, jwtSecret string, log *zap.Logger) *gin.Engine {
	r := newEngine(log)
	const name = "trip-service"

	r.GET("/", ServiceInfo(name))
	r.GET("/health", Health(name, trips))

	r.GET("/ws", middleware.AuthMiddleware(jwtSecret), WebSocketHandler(hub))

	protected := r.Group("/trips")
	protected.Use(middleware.RateLimit(limiter, log))
	protected.Use(middleware.AuthMiddleware(jwtSecret))
	{
		protected.POST("/create", CreateTrip(trips))
		protected.GET("", ListTrips(trips))
		protected.GET("/:tripId", GetTrip(trips))
		protected.POST("/update/:tripId", UpdateTrip(trips))
		protected.DELETE("/delete/:tripId", DeleteTrip(trips))
		protected.POST("/book/:tripId", BookTrip(booker))
		protected.GET("/:tripId/bookings/:sagaId", GetTripBooking(sagas))
	}
	return r
}
