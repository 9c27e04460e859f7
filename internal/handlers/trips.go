package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voyago/travel-booking/internal/apperr"
	"github.com/voyago/travel-booking/internal/middleware"
	"github.com/voyago/travel-booking/internal/models"
	"github.com/voyago/travel-booking/internal/services"
)

// CreateTrip handles POST /trips/create.
func CreateTrip(store *services.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		var input models.TripInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}

		trip, err := store.Create(c.Request.Context(), user.UserID, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, trip)
	}
}

func GetTrip(store *services.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		trip, err := store.Get(c.Request.Context(), user.UserID, c.Param("tripId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, trip)
	}
}

func ListTrips(store *services.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		trips, err := store.List(c.Request.Context(), user.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"trips": trips, "count": len(trips)})
	}
}

// UpdateTrip handles POST /trips/update/:tripId.
func UpdateTrip(store *services.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		var input models.TripInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}

		trip, err := store.Update(c.Request.Context(), user.UserID, c.Param("tripId"), input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, trip)
	}
}

func DeleteTrip(store *services.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		if err := store.Delete(c.Request.Context(), user.UserID, c.Param("tripId")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Trip deleted successfully", "trip_id": c.Param("tripId")})
	}
}

// BookTrip handles POST /trips/book/:tripId.
func BookTrip(booker *services.TripBooker) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		var input services.TripBookingRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}

		result, err := booker.Book(c.Request.Context(), user, c.Param("tripId"), input, middleware.BearerToken(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// GetTripBooking handles GET /trips/:tripId/bookings/:sagaId and shows the saga log.
func GetTripBooking(sagas *services.SagaStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		saga, err := sagas.Get(c.Request.Context(), c.Param("sagaId"))
		if err != nil {
			respondError(c, err)
			return
		}
		if saga.UserID != user.UserID || saga.TripID != c.Param("tripId") {
			respondError(c, apperr.NotFound("Trip booking not found"))
			return
		}
		c.JSON(http.StatusOK, saga)
	}
}
