package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/voyago/travel-booking/internal/models"
)

type cancelCall struct {
	item    models.ItemType
	idOrRef string
	token   string
}

// fakeBookingClient books every item successfully unless told otherwise.
type fakeBookingClient struct {
	mu          sync.Mutex
	failBook    map[models.ItemType]string
	failCancel  map[models.ItemType]bool
	onBook      func(req RemoteBookingRequest)
	bookCalls   []RemoteBookingRequest
	bookTokens  []string
	cancelCalls []cancelCall
}

func newFakeBookingClient() *fakeBookingClient {
	return &fakeBookingClient{
		failBook:   map[models.ItemType]string{},
		failCancel: map[models.ItemType]bool{},
	}
}

func (f *fakeBookingClient) Book(_ context.Context, req RemoteBookingRequest, token string) BookingOutcome {
	f.mu.Lock()
	f.bookCalls = append(f.bookCalls, req)
	f.bookTokens = append(f.bookTokens, token)
	msg, fail := f.failBook[req.Item]
	hook := f.onBook
	f.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if fail {
		return BookingOutcome{ItemType: req.Item, Error: msg}
	}
	return BookingOutcome{
		ItemType:         req.Item,
		Success:          true,
		BookingID:        bookingIDFor(req.Item),
		BookingReference: req.Item.ReferencePrefix() + "20250101120000user0001",
	}
}

func (f *fakeBookingClient) Cancel(_ context.Context, item models.ItemType, idOrRef, token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls = append(f.cancelCalls, cancelCall{item: item, idOrRef: idOrRef, token: token})
	return !f.failCancel[item]
}

func (f *fakeBookingClient) cancels() []cancelCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]cancelCall(nil), f.cancelCalls...)
}

func (f *fakeBookingClient) books() []RemoteBookingRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RemoteBookingRequest(nil), f.bookCalls...)
}

func bookingIDFor(item models.ItemType) string {
	switch item {
	case models.ItemCar:
		return "11111111-1111-1111-1111-111111111111"
	case models.ItemHotel:
		return "22222222-2222-2222-2222-222222222222"
	default:
		return "33333333-3333-3333-3333-333333333333"
	}
}

type recordedEvent struct {
	userID string
	event  TripEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakePublisher) PublishTripEvent(_ context.Context, userID string, ev TripEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{userID: userID, event: ev})
}

type fakeReports struct {
	mu      sync.Mutex
	reports map[string]interface{}
	err     error
}

func newFakeReports() *fakeReports {
	return &fakeReports{reports: map[string]interface{}{}}
}

func (f *fakeReports) WriteReport(_ context.Context, key string, report interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.reports[key] = report
	return fmt.Sprintf("mem://%s", key), nil
}

func (f *fakeReports) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.reports {
		out = append(out, k)
	}
	return out
}

// heldLocker reports every trip as locked by someone else.
type heldLocker struct{}

func (heldLocker) TryLock(context.Context, string) (func(), bool, error) {
	return nil, false, nil
}
