package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/voyago/travel-booking/internal/apperr"
	"github.com/voyago/travel-booking/internal/database"
	"github.com/voyago/travel-booking/internal/models"
)

const tripDateLayout = "2006-01-02"

// TripStore owns the trip table. Every write bumps the trip's version.
type TripStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewTripStore(db *gorm.DB, log *zap.Logger) *TripStore {
	return &TripStore{db: db, log: log}
}

func (s *TripStore) Create(ctx context.Context, userID string, in models.TripInput) (*models.Trip, error) {
	trip := &models.Trip{UserID: userID, TripStatus: "planned"}
	if err := applyTripInput(trip, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(trip).Error; err != nil {
		return nil, apperr.Database("Failed to create trip", err)
	}
	return trip, nil
}

// Get returns a trip owned by userID.
func (s *TripStore) Get(ctx context.Context, userID, tripID string) (*models.Trip, error) {
	if _, err := uuid.Parse(tripID); err != nil {
		return nil, apperr.Validation("Invalid trip ID format")
	}
	var trip models.Trip
	err := s.db.WithContext(ctx).
		Where("trip_id = ? AND user_id = ?", tripID, userID).
		First(&trip).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Trip not found or does not belong to the user")
		}
		return nil, apperr.Database("Failed to fetch trip", err)
	}
	return &trip, nil
}

func (s *TripStore) List(ctx context.Context, userID string) ([]models.Trip, error) {
	var trips []models.Trip
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&trips).Error
	if err != nil {
		return nil, apperr.Database("Failed to list trips", err)
	}
	return trips, nil
}

// Update replaces the descriptive fields of a trip. Booking fields are untouched.
func (s *TripStore) Update(ctx context.Context, userID, tripID string, in models.TripInput) (*models.Trip, error) {
	trip, err := s.Get(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	if err := applyTripInput(trip, in); err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.Trip{}).
		Where("trip_id = ? AND version = ?", trip.TripID, trip.Version).
		Updates(map[string]interface{}{
			"trip_name":   trip.TripName,
			"destination": trip.Destination,
			"start_date":  trip.StartDate,
			"end_date":    trip.EndDate,
			"travelers":   trip.Travelers,
			"budget":      trip.Budget,
			"trip_status": trip.TripStatus,
			"description": trip.Description,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, apperr.Database("Failed to update trip", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("Trip was modified concurrently, please retry")
	}
	return s.Get(ctx, userID, tripID)
}

func (s *TripStore) Delete(ctx context.Context, userID, tripID string) error {
	if _, err := uuid.Parse(tripID); err != nil {
		return apperr.Validation("Invalid trip ID format")
	}
	res := s.db.WithContext(ctx).
		Where("trip_id = ? AND user_id = ?", tripID, userID).
		Delete(&models.Trip{})
	if res.Error != nil {
		return apperr.Database("Failed to delete trip", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Trip not found or does not belong to the user")
	}
	return nil
}

// CommitBookings records every booked item on the trip in one conditional write.
// It fails with a conflict when the trip changed since version was read.
func (s *TripStore) CommitBookings(ctx context.Context, tripID string, version int, booked []BookingOutcome) error {
	updates := map[string]interface{}{
		"version": gorm.Expr("version + 1"),
	}
	for _, o := range booked {
		prefix := o.ItemType.Slug()
		updates[prefix+"_included"] = true
		updates[prefix+"_booking_id"] = o.BookingID
		updates[prefix+"_booking_reference"] = o.BookingReference
	}

	res := s.db.WithContext(ctx).Model(&models.Trip{}).
		Where("trip_id = ? AND version = ?", tripID, version).
		Updates(updates)
	if res.Error != nil {
		return apperr.Database("Failed to update trip with booking details", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("Trip was modified while booking, bookings were rolled back")
	}
	return nil
}

// BookingsMatch reports whether the trip already records exactly these booking ids.
func BookingsMatch(trip *models.Trip, steps []models.TripBookingStep) bool {
	for _, step := range steps {
		id, _, ok := trip.BookedItem(step.ItemType)
		if !ok || id != step.BookingID {
			return false
		}
	}
	return len(steps) > 0
}

func applyTripInput(trip *models.Trip, in models.TripInput) error {
	start, err := parseTripDate(in.StartDate)
	if err != nil {
		return apperr.Validation("Invalid startdate, expected YYYY-MM-DD")
	}
	end, err := parseTripDate(in.EndDate)
	if err != nil {
		return apperr.Validation("Invalid enddate, expected YYYY-MM-DD")
	}
	if in.StartDate != "" && in.EndDate != "" && time.Time(end).Before(time.Time(start)) {
		return apperr.Validation("enddate must not be before startdate")
	}

	trip.TripName = in.TripName
	trip.Destination = in.Destination
	trip.StartDate = start
	trip.EndDate = end
	trip.Travelers = in.Travelers
	trip.Budget = in.Budget
	trip.Description = in.Description
	if in.TripStatus != "" {
		trip.TripStatus = in.TripStatus
	}
	return nil
}

func parseTripDate(raw string) (datatypes.Date, error) {
	if raw == "" {
		return datatypes.Date{}, nil
	}
	t, err := time.Parse(tripDateLayout, raw)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

// Find loads a trip without an owner check. Background workers use it.
func (s *TripStore) Find(ctx context.Context, tripID string) (*models.Trip, error) {
	var trip models.Trip
	err := s.db.WithContext(ctx).Where("trip_id = ?", tripID).First(&trip).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Trip not found")
		}
		return nil, apperr.Database("Failed to fetch trip", err)
	}
	return &trip, nil
}

func (s *TripStore) Ping() error {
	return database.Ping(s.db)
}
