package services

import (
	"time"

	"github.com/voyago/travel-booking/internal/models"
)

const referenceTimeLayout = "20060102150405"

// NewBookingReference formats <prefix><YYYYMMDDHHMMSS><first 8 chars of user id>.
// References are for display; the ledger's unique index rejects a repeat.
func NewBookingReference(item models.ItemType, at time.Time, userID string) string {
	short := userID
	if len(short) > 8 {
		short = short[:8]
	}
	return item.ReferencePrefix() + at.UTC().Format(referenceTimeLayout) + short
}
