package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Trip struct {
	TripID      string         `json:"trip_id" gorm:"column:trip_id;type:uuid;primaryKey"`
	UserID      string         `json:"user_id" gorm:"column:user_id;not null;index"`
	TripName    string         `json:"tripname" gorm:"column:trip_name;not null"`
	Destination string         `json:"destination"`
	StartDate   datatypes.Date `json:"startdate"`
	EndDate     datatypes.Date `json:"enddate"`
	Travelers   int            `json:"travelers"`
	Budget      float64        `json:"budget"`
	TripStatus  string         `json:"trip_status"`
	Description string         `json:"description"`

	CarIncluded            bool    `json:"car_included" gorm:"not null;default:false"`
	CarBookingID           *string `json:"car_booking_id,omitempty"`
	CarBookingReference    *string `json:"car_booking_reference,omitempty"`
	HotelIncluded          bool    `json:"hotel_included" gorm:"not null;default:false"`
	HotelBookingID         *string `json:"hotel_booking_id,omitempty"`
	HotelBookingReference  *string `json:"hotel_booking_reference,omitempty"`
	FlightIncluded         bool    `json:"flight_included" gorm:"not null;default:false"`
	FlightBookingID        *string `json:"flight_booking_id,omitempty"`
	FlightBookingReference *string `json:"flight_booking_reference,omitempty"`

	// Version is bumped by every write; booking commits are conditional on it.
	Version   int       `json:"version" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"createdat"`
	UpdatedAt time.Time `json:"updatedat"`
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.TripID == "" {
		t.TripID = uuid.NewString()
	}
	if t.Version == 0 {
		t.Version = 1
	}
	return nil
}

// BookedItem returns the booking id and reference recorded for an item type, if included.
func (t *Trip) BookedItem(item ItemType) (id, ref string, ok bool) {
	var included bool
	var idp, refp *string
	switch item {
	case ItemCar:
		included, idp, refp = t.CarIncluded, t.CarBookingID, t.CarBookingReference
	case ItemHotel:
		included, idp, refp = t.HotelIncluded, t.HotelBookingID, t.HotelBookingReference
	case ItemFlight:
		included, idp, refp = t.FlightIncluded, t.FlightBookingID, t.FlightBookingReference
	}
	if !included || idp == nil {
		return "", "", false
	}
	if refp != nil {
		ref = *refp
	}
	return *idp, ref, true
}

// TripInput is the body of trip create and update requests.
// Dates use the 2006-01-02 layout.
type TripInput struct {
	TripName    string  `json:"tripname" binding:"required"`
	Destination string  `json:"destination"`
	StartDate   string  `json:"startdate"`
	EndDate     string  `json:"enddate"`
	Travelers   int     `json:"travelers" binding:"gte=0"`
	Budget      float64 `json:"budget" binding:"gte=0"`
	TripStatus  string  `json:"trip_status"`
	Description string  `json:"description"`
}
