package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/voyago/travel-booking/internal/apperr"
	"github.com/voyago/travel-booking/internal/models"
)

// TripBookingRequest is the body of POST /trips/book/:tripId.
// Item payloads are passed through to the domain services untouched.
type TripBookingRequest struct {
	Car    json.RawMessage `json:"car,omitempty"`
	Hotel  json.RawMessage `json:"hotel,omitempty"`
	Flight json.RawMessage `json:"flight,omitempty"`

	CarInsurance    *models.Insurance `json:"car_insurance,omitempty"`
	HotelInsurance  *models.Insurance `json:"hotel_insurance,omitempty"`
	FlightInsurance *models.Insurance `json:"flight_insurance,omitempty"`

	CarTotal    *float64 `json:"car_total,omitempty"`
	HotelTotal  *float64 `json:"hotel_total,omitempty"`
	FlightTotal *float64 `json:"flight_total,omitempty"`

	TotalAmount float64 `json:"total_amount"`
}

type plannedItem struct {
	item      models.ItemType
	payload   json.RawMessage
	insurance *models.Insurance
	total     *float64
}

// plan lists the requested items in car, hotel, flight order with their amounts.
// Items without an explicit total share what is left of total_amount evenly,
// rounded to cents with the remainder on the last one.
func (r *TripBookingRequest) plan() []RemoteBookingRequest {
	candidates := []plannedItem{
		{models.ItemCar, r.Car, r.CarInsurance, r.CarTotal},
		{models.ItemHotel, r.Hotel, r.HotelInsurance, r.HotelTotal},
		{models.ItemFlight, r.Flight, r.FlightInsurance, r.FlightTotal},
	}

	var planned []plannedItem
	remaining := r.TotalAmount
	shared := 0
	for _, c := range candidates {
		if !present(c.payload) {
			continue
		}
		planned = append(planned, c)
		if c.total != nil {
			remaining -= *c.total
		} else {
			shared++
		}
	}
	if remaining < 0 {
		remaining = 0
	}

	var share, last float64
	if shared > 0 {
		share = math.Floor(remaining/float64(shared)*100) / 100
		last = math.Round((remaining-share*float64(shared-1))*100) / 100
	}

	out := make([]RemoteBookingRequest, 0, len(planned))
	seen := 0
	for _, p := range planned {
		req := RemoteBookingRequest{Item: p.item, Payload: p.payload, Insurance: p.insurance}
		switch {
		case p.total != nil:
			req.Total = *p.total
		default:
			seen++
			req.Total = share
			if seen == shared {
				req.Total = last
			}
		}
		out = append(out, req)
	}
	return out
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

type BookedItem struct {
	BookingID        string `json:"booking_id"`
	BookingReference string `json:"booking_reference"`
}

type TripBookingResult struct {
	Message     string      `json:"message"`
	TripID      string      `json:"trip_id"`
	SagaID      string      `json:"saga_id"`
	Car         *BookedItem `json:"car,omitempty"`
	Hotel       *BookedItem `json:"hotel,omitempty"`
	Flight      *BookedItem `json:"flight,omitempty"`
	TotalAmount float64     `json:"total_amount"`
}

// TripBookingError reports which items failed and which bookings could not be undone.
type TripBookingError struct {
	SagaID             string
	Failed             []BookingOutcome
	CommitErr          error
	CompensationFailed []models.ItemType
}

func (e *TripBookingError) Error() string {
	var b strings.Builder
	b.WriteString("Trip booking failed")
	if len(e.Failed) > 0 {
		b.WriteString(" for ")
		b.WriteString(strings.Join(e.FailedItems(), ", "))
		for _, o := range e.Failed {
			b.WriteString("; ")
			b.WriteString(o.Error)
		}
	}
	if e.CommitErr != nil {
		b.WriteString(": ")
		b.WriteString(apperr.PublicMessage(e.CommitErr))
	}
	if len(e.CompensationFailed) > 0 {
		b.WriteString(". Compensation failed for: ")
		b.WriteString(strings.Join(e.CompensationFailedItems(), ", "))
		b.WriteString(", manual reconciliation required")
	} else {
		b.WriteString(". All successful bookings were cancelled")
	}
	return b.String()
}

func (e *TripBookingError) FailedItems() []string {
	items := make([]string, 0, len(e.Failed))
	for _, o := range e.Failed {
		items = append(items, o.ItemType.Slug())
	}
	return items
}

func (e *TripBookingError) CompensationFailedItems() []string {
	items := make([]string, 0, len(e.CompensationFailed))
	for _, item := range e.CompensationFailed {
		items = append(items, item.Slug())
	}
	return items
}

func (e *TripBookingError) Unwrap() []error {
	var errs []error
	if e.CommitErr != nil {
		errs = append(errs, e.CommitErr)
	} else {
		errs = append(errs, apperr.ErrRemoteCall)
	}
	if len(e.CompensationFailed) > 0 {
		errs = append(errs, apperr.ErrCompensation)
	}
	return errs
}

// CompensationReport is written for every saga that left bookings behind.
type CompensationReport struct {
	SagaID string                   `json:"saga_id"`
	TripID string                   `json:"trip_id"`
	UserID string                   `json:"user_id"`
	Reason string                   `json:"reason"`
	Steps  []models.TripBookingStep `json:"steps"`
}

// TripBooker books the items of a trip through the domain services as one unit.
type TripBooker struct {
	trips   *TripStore
	sagas   *SagaStore
	client  BookingClient
	locker  TripLocker
	events  EventPublisher
	reports ReportWriter
	log     *zap.Logger
}

func NewTripBooker(trips *TripStore, sagas *SagaStore, client BookingClient, locker TripLocker, events EventPublisher, reports ReportWriter, log *zap.Logger) *TripBooker {
	return &TripBooker{
		trips:   trips,
		sagas:   sagas,
		client:  client,
		locker:  locker,
		events:  events,
		reports: reports,
		log:     log.With(zap.String("component", "trip_booker")),
	}
}

// Book runs the trip booking saga. token is forwarded unchanged to every domain call.
func (b *TripBooker) Book(ctx context.Context, user *models.User, tripID string, req TripBookingRequest, token string) (*TripBookingResult, error) {
	planned := req.plan()
	if len(planned) == 0 {
		return nil, apperr.Validation("No items to book: provide at least one of car, hotel or flight")
	}

	trip, err := b.trips.Get(ctx, user.UserID, tripID)
	if err != nil {
		return nil, err
	}

	unlock, ok, err := b.locker.TryLock(ctx, trip.TripID)
	switch {
	case err != nil:
		b.log.Warn("trip lock unavailable, relying on version check", zap.String("trip_id", trip.TripID), zap.Error(err))
	case !ok:
		return nil, apperr.Conflict("A booking for this trip is already in progress")
	default:
		defer unlock()
	}

	// The saga runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	items := make([]models.ItemType, 0, len(planned))
	for i := range planned {
		planned[i].TripID = trip.TripID
		items = append(items, planned[i].Item)
	}
	saga, err := b.sagas.Start(ctx, trip.TripID, user.UserID, items, req.TotalAmount)
	if err != nil {
		return nil, err
	}
	log := b.log.With(zap.String("trip_id", trip.TripID), zap.String("saga_id", saga.ID))
	log.Info("booking trip items", zap.Int("items", len(planned)))

	outcomes := b.bookAll(ctx, saga.ID, planned, token, log)

	var booked, failed []BookingOutcome
	for _, o := range outcomes {
		if o.Success {
			booked = append(booked, o)
		} else {
			failed = append(failed, o)
		}
	}

	var commitErr error
	if len(failed) == 0 {
		commitErr = b.trips.CommitBookings(ctx, trip.TripID, trip.Version, booked)
		if commitErr == nil {
			return b.committed(ctx, log, user, saga.ID, trip.TripID, booked, req.TotalAmount), nil
		}
		log.Error("trip commit failed, compensating", zap.Error(commitErr))
	}

	log.Info("compensating", zap.Strings("failed", slugs(failed)), zap.Int("booked", len(booked)))
	if err := b.sagas.SetStatus(ctx, saga.ID, models.SagaCompensating, ""); err != nil {
		log.Error("failed to record saga status", zap.Error(err))
	}
	compFailed := b.compensate(ctx, saga.ID, booked, token, log)

	bookingErr := &TripBookingError{
		SagaID:             saga.ID,
		Failed:             failed,
		CommitErr:          commitErr,
		CompensationFailed: compFailed,
	}
	if err := b.sagas.SetStatus(ctx, saga.ID, models.SagaFailed, bookingErr.Error()); err != nil {
		log.Error("failed to record saga status", zap.Error(err))
	}
	if len(compFailed) > 0 {
		b.writeReport(ctx, log, saga.ID, bookingErr.Error())
	}
	log.Warn("trip booking failed",
		zap.Strings("failed", bookingErr.FailedItems()),
		zap.Strings("compensation_failed", bookingErr.CompensationFailedItems()),
	)

	b.publish(ctx, user.UserID, TripEvent{
		Type:               EventTripBookingFailed,
		TripID:             trip.TripID,
		SagaID:             saga.ID,
		Status:             models.SagaFailed,
		FailedItems:        bookingErr.FailedItems(),
		CompensationFailed: bookingErr.CompensationFailedItems(),
		Message:            bookingErr.Error(),
	})
	return nil, bookingErr
}

// bookAll issues every booking concurrently and waits for all of them.
// A failure does not cancel the calls still in flight.
func (b *TripBooker) bookAll(ctx context.Context, sagaID string, planned []RemoteBookingRequest, token string, log *zap.Logger) []BookingOutcome {
	outcomes := make([]BookingOutcome, len(planned))
	var wg sync.WaitGroup
	for i, req := range planned {
		wg.Add(1)
		go func(i int, req RemoteBookingRequest) {
			defer wg.Done()
			o := b.client.Book(ctx, req, token)
			o.ItemType = req.Item
			if o.Success && o.BookingID == "" {
				o.Success = false
				o.Error = fmt.Sprintf("%s booking failed: no booking id returned", req.Item)
			}
			if !o.Success && o.Error == "" {
				o.Error = fmt.Sprintf("%s booking failed", req.Item)
			}
			if err := b.sagas.RecordOutcome(ctx, sagaID, o); err != nil {
				log.Error("failed to record booking outcome", zap.String("item", req.Item.Slug()), zap.Error(err))
			}
			log.Info("booking outcome",
				zap.String("item", req.Item.Slug()),
				zap.Bool("success", o.Success),
				zap.String("booking_id", o.BookingID),
				zap.String("error", o.Error),
			)
			outcomes[i] = o
		}(i, req)
	}
	wg.Wait()
	return outcomes
}

// compensate cancels every booked item concurrently and returns the items that could not be cancelled.
func (b *TripBooker) compensate(ctx context.Context, sagaID string, booked []BookingOutcome, token string, log *zap.Logger) []models.ItemType {
	cancelled := make([]bool, len(booked))
	var wg sync.WaitGroup
	for i, o := range booked {
		wg.Add(1)
		go func(i int, o BookingOutcome) {
			defer wg.Done()
			target := o.BookingID
			if target == "" {
				target = o.BookingReference
			}
			cancelled[i] = b.client.Cancel(ctx, o.ItemType, target, token)
			if err := b.sagas.RecordCancel(ctx, sagaID, o.ItemType, cancelled[i]); err != nil {
				log.Error("failed to record cancel outcome", zap.String("item", o.ItemType.Slug()), zap.Error(err))
			}
			log.Info("compensation outcome", zap.String("item", o.ItemType.Slug()), zap.Bool("cancelled", cancelled[i]))
		}(i, o)
	}
	wg.Wait()

	var failed []models.ItemType
	for i, ok := range cancelled {
		if !ok {
			failed = append(failed, booked[i].ItemType)
		}
	}
	return failed
}

func (b *TripBooker) committed(ctx context.Context, log *zap.Logger, user *models.User, sagaID, tripID string, booked []BookingOutcome, total float64) *TripBookingResult {
	if err := b.sagas.SetStatus(ctx, sagaID, models.SagaCommitted, ""); err != nil {
		log.Error("failed to record saga status", zap.Error(err))
	}

	result := &TripBookingResult{
		Message:     "Trip booked successfully",
		TripID:      tripID,
		SagaID:      sagaID,
		TotalAmount: total,
	}
	for _, o := range booked {
		item := &BookedItem{BookingID: o.BookingID, BookingReference: o.BookingReference}
		switch o.ItemType {
		case models.ItemCar:
			result.Car = item
		case models.ItemHotel:
			result.Hotel = item
		case models.ItemFlight:
			result.Flight = item
		}
	}
	log.Info("trip booking committed", zap.Strings("items", slugs(booked)))

	b.publish(ctx, user.UserID, TripEvent{
		Type:    EventTripBooked,
		TripID:  tripID,
		SagaID:  sagaID,
		Status:  models.SagaCommitted,
		Message: result.Message,
	})
	return result
}

func (b *TripBooker) writeReport(ctx context.Context, log *zap.Logger, sagaID, reason string) {
	if b.reports == nil {
		return
	}
	saga, err := b.sagas.Get(ctx, sagaID)
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
	if _, err := b.reports.WriteReport(ctx, "compensation/"+saga.ID, report); err != nil {
		log.Error("failed to write compensation report", zap.Error(err))
	}
}

func (b *TripBooker) publish(ctx context.Context, userID string, ev TripEvent) {
	if b.events != nil {
		b.events.PublishTripEvent(ctx, userID, ev)
	}
}

func slugs(outcomes []BookingOutcome) []string {
	out := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, o.ItemType.Slug())
	}
	return out
}

// IsTripBookingError unwraps err into a *TripBookingError.
func IsTripBookingError(err error) (*TripBookingError, bool) {
	var e *TripBookingError
	ok := errors.As(err, &e)
	return e, ok
}
