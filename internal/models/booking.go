package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Insurance is the optional insurance purchased with a booking.
type Insurance struct {
	Type  string  `json:"type" binding:"required"`
	Total float64 `json:"total" binding:"gte=0"`
}

// Booking is one row of a domain store (carbookings, hotelbookings or flightbookings).
// The table is chosen per domain with db.Table(ItemType.BookingTable()).
type Booking struct {
	BookingID        string         `json:"booking_id" gorm:"column:booking_id;type:uuid;primaryKey"`
	UserID           string         `json:"user_id" gorm:"column:user_id;not null;index"`
	BookingReference string         `json:"booking_reference" gorm:"column:booking_reference;not null"`
	BookingDate      time.Time      `json:"booking_date" gorm:"column:booking_date;not null"`
	Details          datatypes.JSON `json:"booking_details" gorm:"column:booking_details;not null"`
	PaymentID        string         `json:"payment_id" gorm:"column:payment_id"`
	InsuranceAmount  float64        `json:"insurance_amount" gorm:"column:insurance_amount;default:0"`
	InsuranceType    *string        `json:"insurance_type,omitempty" gorm:"column:insurance_type"`
	TotalAmount      float64        `json:"total_amount" gorm:"column:total_amount;not null"`
	TripID           *string        `json:"trip_id,omitempty" gorm:"column:trip_id;index"`
	CreatedAt        time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// PlaceholderPaymentID is stored until payments are wired to bookings.
const PlaceholderPaymentID = "00000000-0000-0000-0000-000000000000"

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.BookingID == "" {
		b.BookingID = uuid.NewString()
	}
	return nil
}
