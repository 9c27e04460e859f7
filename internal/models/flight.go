package models

import "time"

type StopDetail struct {
	Airport         string    `json:"airport" binding:"required"`
	ArrivalTime     time.Time `json:"arrivalTime"`
	DepartureTime   time.Time `json:"departureTime"`
	LayoverDuration string    `json:"layoverDuration"`
}

// Flight is the snapshot of a flight stored with a flight booking.
type Flight struct {
	Airline            string             `json:"airline" binding:"required"`
	FlightNumber       string             `json:"flightNumber" binding:"required"`
	DepartureAirport   string             `json:"departureAirport" binding:"required"`
	DestinationAirport string             `json:"destinationAirport" binding:"required"`
	DepartureTime      time.Time          `json:"departureTime" binding:"required"`
	ArrivalTime        time.Time          `json:"arrivalTime" binding:"required"`
	Duration           string             `json:"duration"`
	NumberOfStops      int                `json:"numberOfStops" binding:"gte=0"`
	Stops              []StopDetail       `json:"stops" binding:"dive"`
	Status             string             `json:"status" binding:"omitempty,oneof='On Time' Delayed Cancelled"`
	Aircraft           string             `json:"aircraft"`
	Gate               string             `json:"gate"`
	Terminal           string             `json:"terminal"`
	Meal               bool               `json:"meal"`
	AvailableSeats     map[string]int     `json:"availableSeats"`
	Prices             map[string]float64 `json:"prices"`
	BookingURL         string             `json:"bookingUrl"`
	ChosenSeat         string             `json:"choosenSeat" binding:"omitempty,oneof=Economy Business First"`
}
