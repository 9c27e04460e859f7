package models

import "time"

// LedgerRecord is the cross-domain row written next to every domain booking.
type LedgerRecord struct {
	BookingID        string    `json:"booking_id" gorm:"column:booking_id;type:uuid;primaryKey"`
	BookingReference string    `json:"booking_reference" gorm:"column:booking_reference;not null;uniqueIndex"`
	PaymentID        string    `json:"payment_id" gorm:"column:payment_id"`
	UserID           string    `json:"user_id" gorm:"column:user_id;not null;index"`
	BookingType      ItemType  `json:"booking_type" gorm:"column:booking_type;not null;index"`
	TotalAmount      float64   `json:"total_amount" gorm:"column:total_amount;not null"`
	TripID           *string   `json:"trip_id,omitempty" gorm:"column:trip_id"`
	CreatedAt        time.Time `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (LedgerRecord) TableName() string {
	return "user_bookings"
}
