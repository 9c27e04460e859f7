package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/voyago/travel-booking/internal/models"
	"github.com/voyago/travel-booking/internal/testutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *HTTPBookingClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPBookingClient(map[models.ItemType]string{
		models.ItemCar:    srv.URL,
		models.ItemHotel:  srv.URL,
		models.ItemFlight: srv.URL,
	}, timeout, "trip-service", testutil.NewLogger())
}

func TestHTTPBookingClient_BookSuccess(t *testing.T) {
	var gotPath, gotAuth, gotClient string
	var gotBody map[string]json.RawMessage

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotClient = r.Header.Get("X-Client-ID")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"ok","booking_id":"b-1","booking_reference":"HT20250101000000user"}`))
	}, time.Second)

	outcome := client.Book(context.Background(), RemoteBookingRequest{
		Item:      models.ItemHotel,
		Payload:   json.RawMessage(`{"name":"Grand"}`),
		Insurance: &models.Insurance{Type: "basic", Total: 12},
		Total:     300,
		TripID:    "trip-9",
	}, "tok-123")

	assert.True(t, outcome.Success)
	assert.Equal(t, models.ItemHotel, outcome.ItemType)
	assert.Equal(t, "b-1", outcome.BookingID)
	assert.Equal(t, "HT20250101000000user", outcome.BookingReference)

	assert.Equal(t, "/hotel/book", gotPath)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "trip-service", gotClient)
	assert.JSONEq(t, `{"name":"Grand"}`, string(gotBody["hotel"]))
	assert.JSONEq(t, `300`, string(gotBody["total"]))
	assert.JSONEq(t, `"trip-9"`, string(gotBody["trip_id"]))
	assert.JSONEq(t, `{"type":"basic","total":12}`, string(gotBody["insurance"]))
}

func TestHTTPBookingClient_BookFailuresAreOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "validation error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"Key: 'Flight.Airline' failed"}`))
			},
			want: "Flight booking failed: HTTP 400: Key: 'Flight.Airline' failed",
		},
		{
			name: "server error with detail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"detail":"db down"}`))
			},
			want: "Flight booking failed: HTTP 500: db down",
		},
		{
			name: "missing booking id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"message":"ok"}`))
			},
			want: "Flight booking failed: response carried no booking_id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler, time.Second)
			outcome := client.Book(context.Background(), RemoteBookingRequest{Item: models.ItemFlight, Payload: json.RawMessage(`{}`)}, "tok")
			assert.False(t, outcome.Success)
			assert.Equal(t, models.ItemFlight, outcome.ItemType)
			assert.Equal(t, tt.want, outcome.Error)
		})
	}
}

func TestHTTPBookingClient_BookTimeoutIsFailure(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	start := time.Now()
	outcome := client.Book(context.Background(), RemoteBookingRequest{Item: models.ItemCar, Payload: json.RawMessage(`{}`)}, "tok")
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "Car booking failed")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHTTPBookingClient_BookUnreachable(t *testing.T) {
	client := NewHTTPBookingClient(map[models.ItemType]string{
		models.ItemCar: "http://127.0.0.1:1",
	}, time.Second, "", testutil.NewLogger())

	outcome := client.Book(context.Background(), RemoteBookingRequest{Item: models.ItemCar}, "tok")
	assert.False(t, outcome.Success)
	assert.NotEmpty(t, outcome.Error)

	outcome = client.Book(context.Background(), RemoteBookingRequest{Item: models.ItemHotel}, "tok")
	assert.False(t, outcome.Success)
	assert.Equal(t, "Hotel booking failed: no service configured", outcome.Error)
}

func TestHTTPBookingClient_Cancel(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	status := http.StatusOK

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(status)
		w.Write([]byte(`{"error":"Car booking not found or does not belong to the user"}`))
	}, time.Second)

	assert.True(t, client.Cancel(context.Background(), models.ItemCar, "b-1", "tok"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/cars/delete", gotPath)
	assert.Equal(t, map[string]string{"carid": "b-1"}, gotBody)

	status = http.StatusNotFound
	assert.False(t, client.Cancel(context.Background(), models.ItemCar, "missing", "tok"))

	status = http.StatusInternalServerError
	assert.False(t, client.Cancel(context.Background(), models.ItemCar, "b-1", "tok"))
}

func TestHTTPBookingClient_CancelUnreachable(t *testing.T) {
	client := NewHTTPBookingClient(map[models.ItemType]string{
		models.ItemFlight: "http://127.0.0.1:1",
	}, time.Second, "", testutil.NewLogger())

	assert.False(t, client.Cancel(context.Background(), models.ItemFlight, "b-1", "tok"))
}

func TestErrorMessage_TruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("é", 199) + "日本語"
	msg := errorMessage([]byte(body))

	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, maxErrorMessageRunes, utf8.RuneCountInString(msg))
	assert.True(t, strings.HasSuffix(msg, "é日"))

	assert.Equal(t, "Hotel sold out", errorMessage([]byte(`{"error":"Hotel sold out"}`)))
	assert.Equal(t, "short body", errorMessage([]byte("  short body ")))
}
