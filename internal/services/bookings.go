package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voyago/travel-booking/internal/apperr"
	"github.com/voyago/travel-booking/internal/clock"
	"github.com/voyago/travel-booking/internal/database"
	"github.com/voyago/travel-booking/internal/models"
)

// CreateBookingInput is everything a domain service needs to record one booking.
type CreateBookingInput struct {
	UserID    string
	Details   json.RawMessage
	Total     float64
	Insurance *models.Insurance
	TripID    *string
}

// BookingStore writes each booking to the domain store and the shared ledger.
//
// Both transactions are opened per call. The domain store always commits first.
// A ledger commit failure is undone on the domain side straight away; a crash
// between the two commits leaves a lone half that LedgerReconciler removes.
type BookingStore struct {
	domain *gorm.DB
	ledger *gorm.DB
	item   models.ItemType
	clock  clock.Clock
	log    *zap.Logger

	commitLedger func(tx *gorm.DB) error
}

func NewBookingStore(domain, ledger *gorm.DB, item models.ItemType, clk clock.Clock, log *zap.Logger) *BookingStore {
	return &BookingStore{
		domain:       domain,
		ledger:       ledger,
		item:         item,
		clock:        clk,
		log:          log.With(zap.String("domain", item.Slug())),
		commitLedger: func(tx *gorm.DB) error { return tx.Commit().Error },
	}
}

func (s *BookingStore) Item() models.ItemType {
	return s.item
}

func (s *BookingStore) table(db *gorm.DB) *gorm.DB {
	return db.Table(s.item.BookingTable())
}

// Create records one booking in both stores or in neither.
func (s *BookingStore) Create(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	now := s.clock.Now()
	booking := &models.Booking{
		BookingID:        uuid.NewString(),
		UserID:           in.UserID,
		BookingReference: NewBookingReference(s.item, now, in.UserID),
		BookingDate:      now,
		Details:          datatypes.JSON(in.Details),
		PaymentID:        models.PlaceholderPaymentID,
		TotalAmount:      in.Total,
		TripID:           in.TripID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.Insurance != nil {
		booking.InsuranceAmount = in.Insurance.Total
		insuranceType := in.Insurance.Type
		booking.InsuranceType = &insuranceType
	}
	record := &models.LedgerRecord{
		BookingID:        booking.BookingID,
		BookingReference: booking.BookingReference,
		PaymentID:        booking.PaymentID,
		UserID:           booking.UserID,
		BookingType:      s.item,
		TotalAmount:      booking.TotalAmount,
		TripID:           booking.TripID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	domainTx := s.domain.WithContext(ctx).Begin()
	if domainTx.Error != nil {
		return nil, apperr.Database("Failed to create booking", domainTx.Error)
	}
	if err := s.table(domainTx).Create(booking).Error; err != nil {
		domainTx.Rollback()
		return nil, apperr.Database("Failed to create booking", err)
	}

	ledgerTx := s.ledger.WithContext(ctx).Begin()
	if ledgerTx.Error != nil {
		domainTx.Rollback()
		return nil, apperr.Database("Failed to create booking", ledgerTx.Error)
	}
	if err := ledgerTx.Create(record).Error; err != nil {
		domainTx.Rollback()
		ledgerTx.Rollback()
		if database.IsUniqueViolation(err) {
			return nil, apperr.Database("Booking reference already exists, please retry", err)
		}
		return nil, apperr.Database("Failed to create booking", err)
	}

	if err := domainTx.Commit().Error; err != nil {
		ledgerTx.Rollback()
		return nil, apperr.Database("Failed to create booking", err)
	}
	if err := s.commitLedger(ledgerTx); err != nil {
		ledgerTx.Rollback()
		s.undoCreate(ctx, booking.BookingID)
		return nil, apperr.Database("Failed to create booking", err)
	}

	s.log.Info("booking created",
		zap.String("booking_id", booking.BookingID),
		zap.String("booking_reference", booking.BookingReference),
		zap.String("user_id", booking.UserID),
	)
	return booking, nil
}

func (s *BookingStore) undoCreate(ctx context.Context, bookingID string) {
	err := s.table(s.domain.WithContext(context.WithoutCancel(ctx))).
		Where("booking_id = ?", bookingID).
		Delete(&models.Booking{}).Error
	if err != nil {
		s.log.Error("failed to undo domain insert after ledger commit failure; reconciler will remove it",
			zap.String("booking_id", bookingID), zap.Error(err))
	}
}

// Get returns a booking owned by userID.
func (s *BookingStore) Get(ctx context.Context, userID, bookingID string) (*models.Booking, error) {
	if _, err := uuid.Parse(bookingID); err != nil {
		return nil, apperr.Validation("Invalid booking ID format")
	}

	var booking models.Booking
	err := s.table(s.domain.WithContext(ctx)).
		Where("booking_id = ? AND user_id = ?", bookingID, userID).
		First(&booking).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, s.notOwned()
		}
		return nil, apperr.Database("Failed to fetch booking", err)
	}
	return &booking, nil
}

// Resolve turns a booking id or a booking reference into a booking id.
func (s *BookingStore) Resolve(ctx context.Context, userID, idOrRef string) (string, error) {
	if _, err := uuid.Parse(idOrRef); err == nil {
		return idOrRef, nil
	}

	var record models.LedgerRecord
	err := s.ledger.WithContext(ctx).
		Where("booking_reference = ? AND user_id = ? AND booking_type = ?", idOrRef, userID, s.item).
		First(&record).Error
	if err != nil {
		if database.IsNotFound(err) {
			return "", apperr.NotFound("Booking not found with the provided reference")
		}
		return "", apperr.Database("Failed to look up booking reference", err)
	}
	return record.BookingID, nil
}

// Delete removes a booking, given by id or reference, from both stores or from neither.
func (s *BookingStore) Delete(ctx context.Context, userID, idOrRef string) (*models.Booking, error) {
	bookingID, err := s.Resolve(ctx, userID, idOrRef)
	if err != nil {
		return nil, err
	}

	domainTx := s.domain.WithContext(ctx).Begin()
	if domainTx.Error != nil {
		return nil, apperr.Database("Failed to delete booking", domainTx.Error)
	}

	var booking models.Booking
	err = s.table(domainTx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("booking_id = ? AND user_id = ?", bookingID, userID).
		First(&booking).Error
	if err != nil {
		domainTx.Rollback()
		if database.IsNotFound(err) {
			return nil, s.notOwned()
		}
		return nil, apperr.Database("Failed to delete booking", err)
	}

	if err := s.table(domainTx).Where("booking_id = ?", bookingID).Delete(&models.Booking{}).Error; err != nil {
		domainTx.Rollback()
		return nil, apperr.Database("Failed to delete booking", err)
	}

	ledgerTx := s.ledger.WithContext(ctx).Begin()
	if ledgerTx.Error != nil {
		domainTx.Rollback()
		return nil, apperr.Database("Failed to delete booking", ledgerTx.Error)
	}
	res := ledgerTx.Where("booking_id = ? AND user_id = ?", bookingID, userID).Delete(&models.LedgerRecord{})
	if res.Error != nil {
		domainTx.Rollback()
		ledgerTx.Rollback()
		return nil, apperr.Database("Failed to delete booking", res.Error)
	}
	if res.RowsAffected == 0 {
		s.log.Warn("ledger row missing for deleted booking", zap.String("booking_id", bookingID))
	}

	if err := domainTx.Commit().Error; err != nil {
		ledgerTx.Rollback()
		return nil, apperr.Database("Failed to delete booking", err)
	}
	if err := s.commitLedger(ledgerTx); err != nil {
		ledgerTx.Rollback()
		s.undoDelete(ctx, &booking)
		return nil, apperr.Database("Failed to delete booking", err)
	}

	s.log.Info("booking deleted",
		zap.String("booking_id", booking.BookingID),
		zap.String("booking_reference", booking.BookingReference),
		zap.String("user_id", userID),
	)
	return &booking, nil
}

func (s *BookingStore) undoDelete(ctx context.Context, booking *models.Booking) {
	err := s.table(s.domain.WithContext(context.WithoutCancel(ctx))).Create(booking).Error
	if err != nil {
		s.log.Error("failed to restore domain row after ledger commit failure; reconciler will remove the ledger row",
			zap.String("booking_id", booking.BookingID), zap.Error(err))
	}
}

// ListForUser returns the caller's ledger entries for this domain, newest first.
func (s *BookingStore) ListForUser(ctx context.Context, userID string) ([]models.LedgerRecord, error) {
	var records []models.LedgerRecord
	err := s.ledger.WithContext(ctx).
		Where("user_id = ? AND booking_type = ?", userID, s.item).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, apperr.Database("Failed to list bookings", err)
	}
	return records, nil
}

// Ping checks both stores.
func (s *BookingStore) Ping() error {
	if err := database.Ping(s.domain); err != nil {
		return fmt.Errorf("domain store: %w", err)
	}
	if err := database.Ping(s.ledger); err != nil {
		return fmt.Errorf("ledger store: %w", err)
	}
	return nil
}

func (s *BookingStore) notOwned() error {
	return apperr.NotFound(fmt.Sprintf("%s booking not found or does not belong to the user", s.item))
}
