package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/whatsapp-storefront/backend/internal/models"
	"github.com/whatsapp-storefront/backend/internal/services"
	"github.com/whatsapp-storefront/backend/internal/storage"
)

// ReviewReminderJob tells active sellers, once a day, how many of their
// products are still waiting for review.
type ReviewReminderJob struct {
	store    storage.Store
	notifier services.Notifier
	hour     int
	log      *zap.Logger
	now      func() time.Time
}

// NewReviewReminderJob creates the job. It runs daily at hour (0-23) local time.
func NewReviewReminderJob(store storage.Store, notifier services.Notifier, hour int, log *zap.Logger) *ReviewReminderJob {
	return &ReviewReminderJob{
		store:    store,
		notifier: notifier,
		hour:     hour,
		log:      log.Named("jobs"),
		now:      time.Now,
	}
}

// Start runs the job in the background until ctx is cancelled
func (j *ReviewReminderJob) Start(ctx context.Context) {
	j.log.Info("⏰ Review reminder job started", zap.Int("hour", j.hour))
	go j.loop(ctx)
}

func (j *ReviewReminderJob) loop(ctx context.Context) {
	for {
		wait := nextRun(j.now(), j.hour).Sub(j.now())
		j.log.Debug("Next review reminder scheduled", zap.Duration("in", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			j.log.Info("Review reminder job stopped")
			return
		case <-timer.C:
		}

		sent, err := j.RunOnce(ctx)
		if err != nil {
			j.log.Error("Review reminder run failed", zap.Error(err))
			continue
		}
		j.log.Info("Review reminders sent", zap.Int("count", sent))
	}
}

// nextRun returns the next time at hour:00 strictly after now
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunOnce sends one reminder per active seller with pending products and
// returns how many were sent. A failed send is logged and skipped.
func (j *ReviewReminderJob) RunOnce(ctx context.Context) (int, error) {
	sellers, err := j.store.ListSellers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sellers: %w", err)
	}

	sent := 0
	for _, seller := range sellers {
		if !seller.Active {
			continue
		}

		products, err := j.store.ListProductsBySeller(ctx, seller.ID)
		if err != nil {
			j.log.Warn("Error getting products", zap.String("seller_id", seller.ID), zap.Error(err))
			continue
		}

		pending := countPending(products)
		if pending == 0 {
			continue
		}

		msg := fmt.Sprintf("⏳ Hi %s, %d of your products are waiting for review. We'll let you know as soon as they go live.",
			models.SellerLabel(seller), pending)
		if err := j.notifier.Notify(ctx, seller.ID, msg); err != nil {
			j.log.Warn("Failed to send review reminder", zap.String("seller_id", seller.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

func countPending(products []*models.Product) int {
	n := 0
	for _, p := range products {
		if p.DisplayStatus() == models.ProductStatusUnknown && !p.IsAvailable {
			n++
		}
	}
	return n
}
