package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago/travel-booking/internal/clock"
	"github.com/voyago/travel-booking/internal/models"
	"github.com/voyago/travel-booking/internal/services"
	"github.com/voyago/travel-booking/internal/testutil"
)

func newCarRouter(t *testing.T) http.Handler {
	t.Helper()
	domain, ledger := testutil.NewBookingStores(t, models.ItemCar)
	clk := clock.NewFixed(time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC))
	store := services.NewBookingStore(domain, ledger, models.ItemCar, clk, testutil.NewLogger())
	limiter := services.NewRateLimiter(nil, "car", 100, time.Minute, clk)
	return NewBookingRouter(store, limiter, testSecret, testutil.NewLogger())
}

func carBody() map[string]interface{} {
	return map[string]interface{}{
		"car": map[string]interface{}{
			"make":         "Toyota",
			"model":        "Corolla",
			"year":         2022,
			"seat":         5,
			"type":         "Sedan",
			"transmission": "Automatic",
			"fuel_type":    "Petrol",
		},
		"insurance": map[string]interface{}{"type": "basic", "total": 15},
		"total":     180.5,
	}
}

func TestBookingRouter_ServiceInfoAndHealth(t *testing.T) {
	r := newCarRouter(t)

	code, body := do(t, r, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "car-booking-service", body["service"])

	code, body = do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

func TestBookItem_RequiresAuth(t *testing.T) {
	r := newCarRouter(t)

	code, body := do(t, r, http.MethodPost, "/car/book", "", carBody())
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Authorization header missing", body["error"])
}

func TestBookItem_Lifecycle(t *testing.T) {
	r := newCarRouter(t)
	token := tokenFor(t, "user-0001-abcd")

	code, body := do(t, r, http.MethodPost, "/car/book", token, carBody())
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Car booked successfully", body["message"])
	bookingID, _ := body["booking_id"].(string)
	reference, _ := body["booking_reference"].(string)
	require.NotEmpty(t, bookingID)
	assert.Equal(t, "CR20250601093000user-000", reference)
	assert.Equal(t, "2025-06-01T09:30:00Z", body["booking_timestamp"])
	assert.Contains(t, body, "car")

	code, body = do(t, r, http.MethodGet, "/cars/booking/"+bookingID, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 180.5, body["total_amount"])
	assert.Equal(t, 15.0, body["insurance_amount"])

	code, body = do(t, r, http.MethodGet, "/cars/bookings", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["count"])

	// Someone else cannot see or delete it.
	other := tokenFor(t, "user-0002-abcd")
	code, _ = do(t, r, http.MethodGet, "/cars/booking/"+bookingID, other, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, r, http.MethodDelete, "/cars/delete", other, map[string]string{"carid": bookingID})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = do(t, r, http.MethodDelete, "/cars/delete", token, map[string]string{"carid": reference})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, reference, body["deleted_booking_id"])
	assert.Equal(t, bookingID, body["booking_id"])

	code, _ = do(t, r, http.MethodGet, "/cars/booking/"+bookingID, token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, body = do(t, r, http.MethodGet, "/cars/bookings", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, body["count"])
}

func TestBookItem_ValidatesBody(t *testing.T) {
	r := newCarRouter(t)
	token := tokenFor(t, "user-0001-abcd")

	noCar := carBody()
	delete(noCar, "car")
	code, body := do(t, r, http.MethodPost, "/car/book", token, noCar)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "car details are required", body["error"])

	noTotal := carBody()
	delete(noTotal, "total")
	code, _ = do(t, r, http.MethodPost, "/car/book", token, noTotal)
	assert.Equal(t, http.StatusBadRequest, code)

	badCar := carBody()
	badCar["car"].(map[string]interface{})["transmission"] = "Telepathic"
	code, body = do(t, r, http.MethodPost, "/car/book", token, badCar)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.True(t, strings.Contains(body["error"].(string), "Transmission"))
}

func TestDeleteBooking_RequiresID(t *testing.T) {
	r := newCarRouter(t)

	code, body := do(t, r, http.MethodDelete, "/cars/delete", tokenFor(t, "user-1"), map[string]string{"hotelid": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "carid is required", body["error"])
}

func TestGetBooking_MalformedID(t *testing.T) {
	r := newCarRouter(t)

	code, _ := do(t, r, http.MethodGet, "/cars/booking/not-a-uuid", tokenFor(t, "user-1"), nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
