package database

import (
	"gorm.io/gorm"

	"github.com/voyago/travel-booking/internal/models"
)

// MigrateBookingStore creates the booking table of one domain store.
func MigrateBookingStore(db *gorm.DB, item models.ItemType) error {
	return db.Table(item.BookingTable()).AutoMigrate(&models.Booking{})
}

// MigrateLedger creates the shared user_bookings table.
func MigrateLedger(db *gorm.DB) error {
	return db.AutoMigrate(&models.LedgerRecord{})
}

// MigrateTripStore creates the trip table and the saga log.
func MigrateTripStore(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Trip{},
		&models.TripBookingSaga{},
		&models.TripBookingStep{},
	)
}
