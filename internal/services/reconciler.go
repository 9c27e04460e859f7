package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voyago/travel-booking/internal/clock"
	"github.com/voyago/travel-booking/internal/models"
)

const reconcileBatchSize = 200

// firstPageCursor sorts before every booking id and is valid input for a uuid column.
var firstPageCursor = uuid.Nil.String()

// ReconcileReport lists the lone halves removed by one sweep.
type ReconcileReport struct {
	Domain          models.ItemType `json:"domain"`
	SweptAt         time.Time       `json:"swept_at"`
	OrphanBookings  []string        `json:"orphan_bookings,omitempty"`
	OrphanLedgerIDs []string        `json:"orphan_ledger_rows,omitempty"`
}

func (r *ReconcileReport) Empty() bool {
	return len(r.OrphanBookings) == 0 && len(r.OrphanLedgerIDs) == 0
}

// LedgerReconciler removes domain rows without a ledger row and ledger rows without
// a domain row once they are older than the grace period. Such halves are left only
// by a process dying between the two commits of a BookingStore call.
type LedgerReconciler struct {
	domain  *gorm.DB
	ledger  *gorm.DB
	item    models.ItemType
	grace   time.Duration
	clock   clock.Clock
	reports ReportWriter
	log     *zap.Logger
}

func NewLedgerReconciler(domain, ledger *gorm.DB, item models.ItemType, grace time.Duration, clk clock.Clock, reports ReportWriter, log *zap.Logger) *LedgerReconciler {
	return &LedgerReconciler{
		domain:  domain,
		ledger:  ledger,
		item:    item,
		grace:   grace,
		clock:   clk,
		reports: reports,
		log:     log.With(zap.String("worker", "ledger_reconciler"), zap.String("domain", item.Slug())),
	}
}

// Run sweeps every interval until ctx is done.
func (r *LedgerReconciler) Run(ctx context.Context, interval time.Duration) {
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

// Sweep runs one pass over both stores.
func (r *LedgerReconciler) Sweep(ctx context.Context) (*ReconcileReport, error) {
	now := r.clock.Now()
	cutoff := now.Add(-r.grace)
	report := &ReconcileReport{Domain: r.item, SweptAt: now}

	orphans, err := r.sweepDomain(ctx, cutoff)
	report.OrphanBookings = orphans
	if err != nil {
		return report, err
	}
	orphans, err = r.sweepLedger(ctx, cutoff)
	report.OrphanLedgerIDs = orphans
	if err != nil {
		return report, err
	}

	if report.Empty() {
		return report, nil
	}
	r.log.Warn("removed lone booking halves",
		zap.Int("domain_rows", len(report.OrphanBookings)),
		zap.Int("ledger_rows", len(report.OrphanLedgerIDs)),
	)
	if r.reports != nil {
		key := "reconcile/" + r.item.Slug() + "/" + now.Format(referenceTimeLayout) + "-" + uuid.NewString()[:8]
		if _, err := r.reports.WriteReport(ctx, key, report); err != nil {
			r.log.Error("failed to write reconcile report", zap.Error(err))
		}
	}
	return report, nil
}

// sweepDomain deletes domain rows that have no ledger row.
func (r *LedgerReconciler) sweepDomain(ctx context.Context, cutoff time.Time) ([]string, error) {
	var removed []string
	after := firstPageCursor
	for {
		var ids []string
		err := r.domain.WithContext(ctx).Table(r.item.BookingTable()).
			Where("created_at < ? AND booking_id > ?", cutoff, after).
			Order("booking_id").
			Limit(reconcileBatchSize).
			Pluck("booking_id", &ids).Error
		if err != nil {
			return removed, err
		}
		if len(ids) == 0 {
			return removed, nil
		}
		after = ids[len(ids)-1]

		var present []string
		if err := r.ledger.WithContext(ctx).Model(&models.LedgerRecord{}).
			Where("booking_id IN ?", ids).
			Pluck("booking_id", &present).Error; err != nil {
			return removed, err
		}
		missing := difference(ids, present)
		if len(missing) == 0 {
			continue
		}
		if err := r.domain.WithContext(ctx).Table(r.item.BookingTable()).
			Where("booking_id IN ? AND created_at < ?", missing, cutoff).
			Delete(&models.Booking{}).Error; err != nil {
			return removed, err
		}
		removed = append(removed, missing...)
	}
}

// sweepLedger deletes this domain's ledger rows that have no domain row.
func (r *LedgerReconciler) sweepLedger(ctx context.Context, cutoff time.Time) ([]string, error) {
	var removed []string
	after := firstPageCursor
	for {
		var ids []string
		err := r.ledger.WithContext(ctx).Model(&models.LedgerRecord{}).
			Where("booking_type = ? AND created_at < ? AND booking_id > ?", r.item, cutoff, after).
			Order("booking_id").
			Limit(reconcileBatchSize).
			Pluck("booking_id", &ids).Error
		if err != nil {
			return removed, err
		}
		if len(ids) == 0 {
			return removed, nil
		}
		after = ids[len(ids)-1]

		var present []string
		if err := r.domain.WithContext(ctx).Table(r.item.BookingTable()).
			Where("booking_id IN ?", ids).
			Pluck("booking_id", &present).Error; err != nil {
			return removed, err
		}
		missing := difference(ids, present)
		if len(missing) == 0 {
			continue
		}
		if err := r.ledger.WithContext(ctx).
			Where("booking_id IN ? AND booking_type = ?", missing, r.item).
			Delete(&models.LedgerRecord{}).Error; err != nil {
			return removed, err
		}
		removed = append(removed, missing...)
	}
}

func difference(all, present []string) []string {
	seen := make(map[string]struct{}, len(present))
	for _, id := range present {
		seen[id] = struct{}{}
	}
	var out []string
	for _, id := range all {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
