package models

type RoomDetails struct {
	Type               string  `json:"type" binding:"required"`
	PricePerNight      float64 `json:"pricePerNight" binding:"gte=0"`
	MostPopular        bool    `json:"mostPopular"`
	CancellationPolicy string  `json:"cancellationPolicy"`
	AvailableRooms     int     `json:"availableRooms" binding:"gte=0"`
}

// Hotel is the snapshot of a hotel stored with a hotel booking.
type Hotel struct {
	ID          string        `json:"_id"`
	Name        string        `json:"name" binding:"required"`
	Vendor      string        `json:"vendor" binding:"required"`
	Address     string        `json:"address" binding:"required"`
	City        string        `json:"city" binding:"required"`
	State       string        `json:"state"`
	Country     string        `json:"country" binding:"required"`
	PostalCode  string        `json:"postalCode"`
	Description string        `json:"description"`
	PhoneNumber string        `json:"phoneNumber"`
	Email       string        `json:"email"`
	Website     string        `json:"website"`
	Rating      float64       `json:"rating" binding:"gte=0,lte=5"`
	RoomDetails []RoomDetails `json:"roomDetails" binding:"dive"`
	Amenities   []string      `json:"amenities"`
}
