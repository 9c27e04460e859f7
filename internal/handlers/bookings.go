package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voyago/travel-booking/internal/middleware"
	"github.com/voyago/travel-booking/internal/models"
	"github.com/voyago/travel-booking/internal/services"
)

// BookItemRequest is the body of POST /<domain>/book. Only the field of the
// service's own domain is read.
type BookItemRequest struct {
	Car       *models.Car       `json:"car"`
	Hotel     *models.Hotel     `json:"hotel"`
	Flight    *models.Flight    `json:"flight"`
	Insurance *models.Insurance `json:"insurance"`
	Total     *float64          `json:"total" binding:"required,gte=0"`
	TripID    *string           `json:"trip_id"`
}

func (r *BookItemRequest) payload(item models.ItemType) interface{} {
	switch item {
	case models.ItemCar:
		if r.Car != nil {
			return r.Car
		}
	case models.ItemHotel:
		if r.Hotel != nil {
			return r.Hotel
		}
	case models.ItemFlight:
		if r.Flight != nil {
			return r.Flight
		}
	}
	return nil
}

// BookItem handles POST /<domain>/book.
func BookItem(store *services.BookingStore) gin.HandlerFunc {
	item := store.Item()
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		var input BookItemRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		payload := input.payload(item)
		if payload == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s details are required", item.Slug())})
			return
		}
		details, err := json.Marshal(payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking details"})
			return
		}

		booking, err := store.Create(c.Request.Context(), services.CreateBookingInput{
			UserID:    user.UserID,
			Details:   details,
			Total:     *input.Total,
			Insurance: input.Insurance,
			TripID:    input.TripID,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":           fmt.Sprintf("%s booked successfully", item),
			"booking_id":        booking.BookingID,
			"booking_reference": booking.BookingReference,
			"user":              user,
			item.Slug():         payload,
			"booking_timestamp": booking.BookingDate.Format(time.RFC3339),
		})
	}
}

// GetBooking handles GET /<domain>s/booking/:booking_id.
func GetBooking(store *services.BookingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		booking, err := store.Get(c.Request.Context(), user.UserID, c.Param("booking_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, booking)
	}
}

// DeleteBooking handles DELETE /<domain>s/delete with body {"<domain>id": "<id or reference>"}.
func DeleteBooking(store *services.BookingStore) gin.HandlerFunc {
	key := store.Item().Slug() + "id"
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		var input map[string]string
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		idOrRef := input[key]
		if idOrRef == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": key + " is required"})
			return
		}

		booking, err := store.Delete(c.Request.Context(), user.UserID, idOrRef)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":            fmt.Sprintf("%s booking deleted successfully", store.Item()),
			"deleted_booking_id": idOrRef,
			"booking_id":         booking.BookingID,
			"user_id":            user.UserID,
		})
	}
}

// ListBookings handles GET /<domain>s/bookings.
func ListBookings(store *services.BookingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		records, err := store.ListForUser(c.Request.Context(), user.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bookings": records, "count": len(records)})
	}
}
