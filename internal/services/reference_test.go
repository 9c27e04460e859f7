package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voyago/travel-booking/internal/models"
)

func TestNewBookingReference(t *testing.T) {
	at := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)

	tests := []struct {
		name   string
		item   models.ItemType
		userID string
		want   string
	}{
		{"car", models.ItemCar, "a1b2c3d4-e5f6-7890-abcd-ef0123456789", "CR20250309140507a1b2c3d4"},
		{"hotel", models.ItemHotel, "a1b2c3d4-e5f6-7890-abcd-ef0123456789", "HT20250309140507a1b2c3d4"},
		{"flight", models.ItemFlight, "a1b2c3d4-e5f6-7890-abcd-ef0123456789", "FL20250309140507a1b2c3d4"},
		{"short user id", models.ItemCar, "u42", "CR20250309140507u42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewBookingReference(tt.item, at, tt.userID))
		})
	}
}

func TestNewBookingReference_UsesUTC(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	at := time.Date(2025, 3, 9, 17, 5, 7, 0, nairobi)

	assert.Equal(t, "CR20250309140507user", NewBookingReference(models.ItemCar, at, "user"))
}
