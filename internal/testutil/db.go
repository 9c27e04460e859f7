package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/voyago/travel-booking/internal/database"
	"github.com/voyago/travel-booking/internal/models"
)

// NewTestDB opens a private in-memory SQLite database for one test.
// The pool holds a single connection so the database lives as long as the test.
// Timestamps are written in UTC so they compare correctly as SQLite text.
func NewTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", sanitize(t.Name()), name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// NewBookingStores returns a migrated domain store and ledger store.
func NewBookingStores(t *testing.T, item models.ItemType) (domain, ledger *gorm.DB) {
	t.Helper()
	domain = NewTestDB(t, item.Slug())
	ledger = NewTestDB(t, "ledger")
	if err := database.MigrateBookingStore(domain, item); err != nil {
		t.Fatalf("failed to migrate booking store: %v", err)
	}
	if err := database.MigrateLedger(ledger); err != nil {
		t.Fatalf("failed to migrate ledger: %v", err)
	}
	return domain, ledger
}

// NewTripDB returns a migrated trip store.
func NewTripDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := NewTestDB(t, "trips")
	if err := database.MigrateTripStore(db); err != nil {
		t.Fatalf("failed to migrate trip store: %v", err)
	}
	return db
}

// NewLogger returns a logger that discards everything.
func NewLogger() *zap.Logger {
	return zap.NewNop()
}

func sanitize(s string) string {
	return strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(s)
}
