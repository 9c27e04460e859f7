package services

import (
	"context"

	"github.com/voyago/travel-booking/internal/models"
)

const (
	EventTripBooked        = "trip_booking_committed"
	EventTripBookingFailed = "trip_booking_failed"
)

// TripEvent announces the terminal outcome of a trip booking saga.
type TripEvent struct {
	Type               string            `json:"type"`
	TripID             string            `json:"trip_id"`
	SagaID             string            `json:"saga_id"`
	Status             models.SagaStatus `json:"status"`
	FailedItems        []string          `json:"failed_items,omitempty"`
	CompensationFailed []string          `json:"compensation_failed,omitempty"`
	Message            string            `json:"message"`
}

// EventPublisher delivers trip events to a user. Delivery is best effort.
type EventPublisher interface {
	PublishTripEvent(ctx context.Context, userID string, ev TripEvent)
}

// Publishers fans one event out to several publishers.
type Publishers []EventPublisher

func (p Publishers) PublishTripEvent(ctx context.Context, userID string, ev TripEvent) {
	for _, pub := range p {
		if pub != nil {
			pub.PublishTripEvent(ctx, userID, ev)
		}
	}
}
