package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/voyago/travel-booking/internal/clock"
	"github.com/voyago/travel-booking/internal/models"
)

const recoveryBatchSize = 50

// ServiceTokenFunc mints a short-lived bearer token acting for userID.
type ServiceTokenFunc func(userID string) (string, error)

// SagaRecovery finishes trip booking sagas whose process died before they ended.
// Booked items are cancelled, items whose call was in flight are marked unknown
// and reported, and a saga whose trip already records its bookings is marked committed.
type SagaRecovery struct {
	trips      *TripStore
	sagas      *SagaStore
	client     BookingClient
	locker     TripLocker
	tokens     ServiceTokenFunc
	events     EventPublisher
	reports    ReportWriter
	staleAfter time.Duration
	clock      clock.Clock
	log        *zap.Logger
}

func NewSagaRecovery(trips *TripStore, sagas *SagaStore, client BookingClient, locker TripLocker, tokens ServiceTokenFunc, events EventPublisher, reports ReportWriter, staleAfter time.Duration, clk clock.Clock, log *zap.Logger) *SagaRecovery {
	return &SagaRecovery{
		trips:      trips,
		sagas:      sagas,
		client:     client,
		locker:     locker,
		tokens:     tokens,
		events:     events,
		reports:    reports,
		staleAfter: staleAfter,
		clock:      clk,
		log:        log.With(zap.String("worker", "saga_recovery")),
	}
}

func (r *SagaRecovery) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep recovers one batch of stale sagas and returns how many it finished.
func (r *SagaRecovery) Sweep(ctx context.Context) (int, error) {
	stale, err := r.sagas.Stale(ctx, r.clock.Now().Add(-r.staleAfter), recoveryBatchSize)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for i := range stale {
		saga := &stale[i]
		unlock, ok, err := r.locker.TryLock(ctx, saga.TripID)
		if err != nil {
			r.log.Warn("trip lock unavailable, skipping saga", zap.String("saga_id", saga.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		r.recover(ctx, saga)
		unlock()
		recovered++
	}
	return recovered, nil
}

func (r *SagaRecovery) recover(ctx context.Context, saga *models.TripBookingSaga) {
	log := r.log.With(zap.String("saga_id", saga.ID), zap.String("trip_id", saga.TripID))

	if saga.Status == models.SagaBooking && r.alreadyCommitted(ctx, saga) {
		log.Info("trip already records the bookings, marking saga committed")
		if err := r.sagas.SetStatus(ctx, saga.ID, models.SagaCommitted, ""); err != nil {
			log.Error("failed to record saga status", zap.Error(err))
		}
		return
	}

	if err := r.sagas.SetStatus(ctx, saga.ID, models.SagaCompensating, ""); err != nil {
		log.Error("failed to record saga status", zap.Error(err))
		return
	}

	token, err := r.tokens(saga.UserID)
	if err != nil {
		log.Error("failed to mint service token", zap.Error(err))
	}

	var leftovers []string
	for _, step := range saga.Steps {
		switch step.Status {
		case models.StepBooked, models.StepCancelFailed:
			cancelled := false
			if token != "" {
				target := step.BookingID
				if target == "" {
					target = step.BookingReference
				}
				cancelled = r.client.Cancel(ctx, step.ItemType, target, token)
			}
			if err := r.sagas.RecordCancel(ctx, saga.ID, step.ItemType, cancelled); err != nil {
				log.Error("failed to record cancel outcome", zap.Error(err))
			}
			if !cancelled {
				leftovers = append(leftovers, step.ItemType.Slug())
			}
		case models.StepPending:
			if err := r.sagas.MarkUnknown(ctx, saga.ID, step.ItemType); err != nil {
				log.Error("failed to mark step unknown", zap.Error(err))
			}
			leftovers = append(leftovers, step.ItemType.Slug())
		case models.StepUnknown:
			leftovers = append(leftovers, step.ItemType.Slug())
		}
	}

	reason := "Trip booking interrupted and rolled back by recovery"
	if err := r.sagas.SetStatus(ctx, saga.ID, models.SagaFailed, reason); err != nil {
		log.Error("failed to record saga status", zap.Error(err))
	}
	if len(leftovers) > 0 {
		r.writeReport(ctx, log, saga.ID, reason)
	}
	log.Warn("saga recovered", zap.Strings("needs_reconciliation", leftovers))

	if r.events != nil {
		r.events.PublishTripEvent(ctx, saga.UserID, TripEvent{
			Type:               EventTripBookingFailed,
			TripID:             saga.TripID,
			SagaID:             saga.ID,
			Status:             models.SagaFailed,
			CompensationFailed: leftovers,
			Message:            reason,
		})
	}
}

// alreadyCommitted reports whether every step booked and the trip holds those bookings.
func (r *SagaRecovery) alreadyCommitted(ctx context.Context, saga *models.TripBookingSaga) bool {
	for _, step := range saga.Steps {
		if step.Status != models.StepBooked {
			return false
		}
	}
	trip, err := r.trips.Find(ctx, saga.TripID)
	if err != nil {
		return false
	}
	return BookingsMatch(trip, saga.Steps)
}

func (r *SagaRecovery) writeReport(ctx context.Context, log *zap.Logger, sagaID, reason string) {
	if r.reports == nil {
		return
	}
	saga, err := r.sagas.Get(ctx, sagaID)
	if err != nil {
		log.Error("failed to load saga for report", zap.Error(err))
		return
	}
	report := CompensationReport{
		SagaID: saga.ID,
		TripID: saga.TripID,
		UserID: saga.UserID,
		Reason: reason,
		Steps:  saga.Steps,
	}
	if _, err := r.reports.WriteReport(ctx, "recovery/"+saga.ID, report); err != nil {
		log.Error("failed to write recovery report", zap.Error(err))
	}
}
