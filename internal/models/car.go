package models

// Car is the snapshot of a rental car stored with a car booking.
type Car struct {
	ID           string   `json:"_id"`
	Make         string   `json:"make" binding:"required"`
	Model        string   `json:"model" binding:"required"`
	Year         int      `json:"year" binding:"required,gte=1900"`
	Color        []string `json:"color"`
	Seat         int      `json:"seat" binding:"required,gt=0"`
	Type         string   `json:"type" binding:"required,oneof=Sedan SUV Truck Van Convertible Economy Luxury Hybrid Electric Coupe Sports Minivan"`
	PricePerDay  float64  `json:"price_per_day" binding:"gte=0"`
	Feature      string   `json:"feature"`
	Transmission string   `json:"transmission" binding:"required,oneof=Automatic Manual"`
	FuelType     string   `json:"fuel_type" binding:"required,oneof=Petrol Diesel Electric Hybrid"`
	Available    bool     `json:"available"`
	Rating       float64  `json:"rating" binding:"gte=0,lte=5"`
}
