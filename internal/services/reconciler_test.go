package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voyago/travel-booking/internal/clock"
	"github.com/voyago/travel-booking/internal/models"
	"github.com/voyago/travel-booking/internal/testutil"
)

func TestLedgerReconciler_RemovesLoneHalvesPastGrace(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-time.Hour)

	f := newBookingFixture(t, models.ItemCar, old)

	// A complete booking stays.
	complete, err := f.store.Create(ctx, carInput(testUserID))
	require.NoError(t, err)

	// A domain row whose ledger insert never committed.
	orphanBooking := &models.Booking{
		BookingID:        uuid.NewString(),
		UserID:           testUserID,
		BookingReference: "CR20250601110000orphan01",
		BookingDate:      old,
		Details:          []byte(`{}`),
		TotalAmount:      10,
		CreatedAt:        old,
		UpdatedAt:        old,
	}
	require.NoError(t, f.domain.Table(models.ItemCar.BookingTable()).Create(orphanBooking).Error)

	// A ledger row whose domain row was already deleted.
	orphanLedger := &models.LedgerRecord{
		BookingID:        uuid.NewString(),
		BookingReference: "CR20250601110000orphan02",
		UserID:           testUserID,
		BookingType:      models.ItemCar,
		TotalAmount:      10,
		CreatedAt:        old,
		UpdatedAt:        old,
	}
	require.NoError(t, f.ledger.Create(orphanLedger).Error)

	// Another domain's ledger row is never touched by the car reconciler.
	otherDomain := &models.LedgerRecord{
		BookingID:        uuid.NewString(),
		BookingReference: "HT20250601110000other001",
		UserID:           testUserID,
		BookingType:      models.ItemHotel,
		TotalAmount:      10,
		CreatedAt:        old,
		UpdatedAt:        old,
	}
	require.NoError(t, f.ledger.Create(otherDomain).Error)

	// A fresh lone half is still inside the grace period.
	fresh := &models.Booking{
		BookingID:        uuid.NewString(),
		UserID:           testUserID,
		BookingReference: "CR20250601115959fresh001",
		BookingDate:      now.Add(-time.Second),
		Details:          []byte(`{}`),
		TotalAmount:      10,
		CreatedAt:        now.Add(-time.Second),
		UpdatedAt:        now.Add(-time.Second),
	}
	require.NoError(t, f.domain.Table(models.ItemCar.BookingTable()).Create(fresh).Error)

	reports := newFakeReports()
	r := NewLedgerReconciler(f.domain, f.ledger, models.ItemCar, 5*time.Minute, clock.NewFixed(now), reports, testutil.NewLogger())

	report, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{orphanBooking.BookingID}, report.OrphanBookings)
	assert.Equal(t, []string{orphanLedger.BookingID}, report.OrphanLedgerIDs)
	assert.Len(t, reports.keys(), 1)

	_, err = f.store.Get(ctx, testUserID, complete.BookingID)
	assert.NoError(t, err)

	var domainIDs []string
	require.NoError(t, f.domain.Table(models.ItemCar.BookingTable()).Order("booking_id").Pluck("booking_id", &domainIDs).Error)
	assert.ElementsMatch(t, []string{complete.BookingID, fresh.BookingID}, domainIDs)

	var ledgerIDs []string
	require.NoError(t, f.ledger.Model(&models.LedgerRecord{}).Pluck("booking_id", &ledgerIDs).Error)
	assert.ElementsMatch(t, []string{complete.BookingID, otherDomain.BookingID}, ledgerIDs)
}

func TestLedgerReconciler_NothingToDo(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newBookingFixture(t, models.ItemFlight, now.Add(-time.Hour))

	_, err := f.store.Create(ctx, carInput(testUserID))
	require.NoError(t, err)

	reports := newFakeReports()
	r := NewLedgerReconciler(f.domain, f.ledger, models.ItemFlight, 5*time.Minute, clock.NewFixed(now), reports, testutil.NewLogger())

	report, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Empty(t, reports.keys())
}

func TestDifference(t *testing.T) {
	assert.Equal(t, []string{"b", "d"}, difference([]string{"a", "b", "c", "d"}, []string{"a", "c"}))
	assert.Nil(t, difference([]string{"a"}, []string{"a"}))
}

// recordCursors captures the keyset cursor bound into every paged booking_id query on db.
func recordCursors(t *testing.T, db *gorm.DB) *[]string {
	t.Helper()
	var cursors []string
	err := db.Callback().Query().After("gorm:query").Register("test:record_cursor", func(tx *gorm.DB) {
		if !strings.Contains(tx.Statement.SQL.String(), "booking_id >") {
			return
		}
		for _, v := range tx.Statement.Vars {
			if s, ok := v.(string); ok {
				cursors = append(cursors, s)
			}
		}
	})
	require.NoError(t, err)
	return &cursors
}

func TestLedgerReconciler_CursorIsAlwaysAValidUUID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newBookingFixture(t, models.ItemHotel, now.Add(-time.Hour))

	domainCursors := recordCursors(t, f.domain)
	ledgerCursors := recordCursors(t, f.ledger)

	_, err := f.store.Create(ctx, carInput(testUserID))
	require.NoError(t, err)

	r := NewLedgerReconciler(f.domain, f.ledger, models.ItemHotel, 5*time.Minute, clock.NewFixed(now), newFakeReports(), testutil.NewLogger())
	_, err = r.Sweep(ctx)
	require.NoError(t, err)

	for name, cursors := range map[string][]string{"domain": *domainCursors, "ledger": *ledgerCursors} {
		require.NotEmpty(t, cursors, name)
		assert.Equal(t, uuid.Nil.String(), cursors[0], name)
		for _, c := range cursors {
			_, err := uuid.Parse(c)
			assert.NoError(t, err, "%s cursor %q", name, c)
		}
	}
}

func TestLedgerReconciler_ReportKeysDoNotCollide(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newBookingFixture(t, models.ItemCar, now.Add(-time.Hour))
	reports := newFakeReports()
	r := NewLedgerReconciler(f.domain, f.ledger, models.ItemCar, 5*time.Minute, clock.NewFixed(now), reports, testutil.NewLogger())

	for i := 0; i < 2; i++ {
		orphan := &models.LedgerRecord{
			BookingID:        uuid.NewString(),
			BookingReference: "CR20250601110000orphan0" + string(rune('a'+i)),
			UserID:           testUserID,
			BookingType:      models.ItemCar,
			TotalAmount:      10,
			CreatedAt:        now.Add(-time.Hour),
			UpdatedAt:        now.Add(-time.Hour),
		}
		require.NoError(t, f.ledger.Create(orphan).Error)

		report, err := r.Sweep(ctx)
		require.NoError(t, err)
		require.Len(t, report.OrphanLedgerIDs, 1)
	}

	keys := reports.keys()
	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])
	for _, k := range keys {
		assert.True(t, strings.HasPrefix(k, "reconcile/car/20250601120000-"), k)
	}
}
