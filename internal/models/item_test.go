package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemType(t *testing.T) {
	for _, raw := range []string{"car", "Car", " CAR "} {
		item, err := ParseItemType(raw)
		require.NoError(t, err)
		assert.Equal(t, ItemCar, item)
	}
	_, err := ParseItemType("train")
	assert.Error(t, err)
}

func TestItemTypeNames(t *testing.T) {
	assert.Equal(t, "hotel", ItemHotel.Slug())
	assert.Equal(t, "FL", ItemFlight.ReferencePrefix())
	assert.Equal(t, "carbookings", ItemCar.BookingTable())
}

func TestTripBookedItem(t *testing.T) {
	id, ref := "b-1", "HT1"
	trip := &Trip{HotelIncluded: true, HotelBookingID: &id, HotelBookingReference: &ref}

	gotID, gotRef, ok := trip.BookedItem(ItemHotel)
	assert.True(t, ok)
	assert.Equal(t, "b-1", gotID)
	assert.Equal(t, "HT1", gotRef)

	_, _, ok = trip.BookedItem(ItemCar)
	assert.False(t, ok)
}
