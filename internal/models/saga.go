package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SagaStatus string

const (
	SagaBooking      SagaStatus = "booking"
	SagaCompensating SagaStatus = "compensating"
	SagaCommitted    SagaStatus = "committed"
	SagaFailed       SagaStatus = "failed"
)

type StepStatus string

const (
	StepPending      StepStatus = "pending"
	StepBooked       StepStatus = "booked"
	StepFailed       StepStatus = "failed"
	StepCancelled    StepStatus = "cancelled"
	StepCancelFailed StepStatus = "cancel_failed"
	// StepUnknown marks a call that was in flight when its process died.
	StepUnknown StepStatus = "unknown"
)

// TripBookingSaga is the durable log of one trip booking request.
type TripBookingSaga struct {
	ID          string            `json:"saga_id" gorm:"column:id;type:uuid;primaryKey"`
	TripID      string            `json:"trip_id" gorm:"column:trip_id;not null;index"`
	UserID      string            `json:"user_id" gorm:"column:user_id;not null"`
	Status      SagaStatus        `json:"status" gorm:"column:status;not null;index"`
	TotalAmount float64           `json:"total_amount"`
	Error       string            `json:"error,omitempty"`
	Steps       []TripBookingStep `json:"steps" gorm:"foreignKey:SagaID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"index"`
}

func (s *TripBookingSaga) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type TripBookingStep struct {
	ID               uint       `json:"-" gorm:"primaryKey"`
	SagaID           string     `json:"saga_id" gorm:"column:saga_id;type:uuid;not null;uniqueIndex:idx_saga_item"`
	ItemType         ItemType   `json:"item_type" gorm:"column:item_type;not null;uniqueIndex:idx_saga_item"`
	Status           StepStatus `json:"status" gorm:"column:status;not null"`
	BookingID        string     `json:"booking_id,omitempty"`
	BookingReference string     `json:"booking_reference,omitempty"`
	Error            string     `json:"error,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
