package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voyago/travel-booking/internal/apperr"
	"github.com/voyago/travel-booking/internal/database"
	"github.com/voyago/travel-booking/internal/models"
)

// SagaStore is the durable log of trip booking attempts.
type SagaStore struct {
	db *gorm.DB
}

func NewSagaStore(db *gorm.DB) *SagaStore {
	return &SagaStore{db: db}
}

// Start writes the saga and one pending step per item before any remote call is made.
func (s *SagaStore) Start(ctx context.Context, tripID, userID string, items []models.ItemType, total float64) (*models.TripBookingSaga, error) {
	saga := &models.TripBookingSaga{
		TripID:      tripID,
		UserID:      userID,
		Status:      models.SagaBooking,
		TotalAmount: total,
	}
	for _, item := range items {
		saga.Steps = append(saga.Steps, models.TripBookingStep{ItemType: item, Status: models.StepPending})
	}

	if err := s.db.WithContext(ctx).Create(saga).Error; err != nil {
		return nil, apperr.Database("Failed to record trip booking", err)
	}
	return saga, nil
}

// RecordOutcome stores the result of one booking call.
func (s *SagaStore) RecordOutcome(ctx context.Context, sagaID string, o BookingOutcome) error {
	updates := map[string]interface{}{"status": models.StepFailed, "error": o.Error}
	if o.Success {
		updates = map[string]interface{}{
			"status":            models.StepBooked,
			"booking_id":        o.BookingID,
			"booking_reference": o.BookingReference,
		}
	}
	return s.updateStep(ctx, sagaID, o.ItemType, updates)
}

// RecordCancel stores the result of one compensating cancel.
func (s *SagaStore) RecordCancel(ctx context.Context, sagaID string, item models.ItemType, cancelled bool) error {
	status := models.StepCancelled
	if !cancelled {
		status = models.StepCancelFailed
	}
	return s.updateStep(ctx, sagaID, item, map[string]interface{}{"status": status})
}

// MarkUnknown flags a step whose call was in flight when its process died.
func (s *SagaStore) MarkUnknown(ctx context.Context, sagaID string, item models.ItemType) error {
	return s.updateStep(ctx, sagaID, item, map[string]interface{}{"status": models.StepUnknown})
}

func (s *SagaStore) updateStep(ctx context.Context, sagaID string, item models.ItemType, updates map[string]interface{}) error {
	err := s.db.WithContext(ctx).Model(&models.TripBookingStep{}).
		Where("saga_id = ? AND item_type = ?", sagaID, item).
		Updates(updates).Error
	if err != nil {
		return apperr.Database("Failed to update trip booking step", err)
	}
	return nil
}

// SetStatus moves the saga to status, keeping errMsg for operators.
func (s *SagaStore) SetStatus(ctx context.Context, sagaID string, status models.SagaStatus, errMsg string) error {
	err := s.db.WithContext(ctx).Model(&models.TripBookingSaga{}).
		Where("id = ?", sagaID).
		Updates(map[string]interface{}{"status": status, "error": errMsg}).Error
	if err != nil {
		return apperr.Database("Failed to update trip booking", err)
	}
	return nil
}

func (s *SagaStore) Get(ctx context.Context, sagaID string) (*models.TripBookingSaga, error) {
	if _, err := uuid.Parse(sagaID); err != nil {
		return nil, apperr.NotFound("Trip booking not found")
	}
	var saga models.TripBookingSaga
	err := s.db.WithContext(ctx).Preload("Steps").Where("id = ?", sagaID).First(&saga).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Trip booking not found")
		}
		return nil, apperr.Database("Failed to fetch trip booking", err)
	}
	return &saga, nil
}

// Stale returns unfinished sagas not touched since before.
func (s *SagaStore) Stale(ctx context.Context, before time.Time, limit int) ([]models.TripBookingSaga, error) {
	var sagas []models.TripBookingSaga
	err := s.db.WithContext(ctx).Preload("Steps").
		Where("status IN ? AND updated_at < ?", []models.SagaStatus{models.SagaBooking, models.SagaCompensating}, before).
		Order("updated_at").
		Limit(limit).
		Find(&sagas).Error
	if err != nil {
		return nil, apperr.Database("Failed to list unfinished trip bookings", err)
	}
	return sagas, nil
}
