package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"match-ticket-system/store"

	"github.com/go-co-op/gocron/v2"
)

// InventorySnapshotWorker periodically rewrites the availability cache from
// the store, repairing anything a failed publish left stale.
type InventorySnapshotWorker struct {
	Store    store.Reader
	Cache    *AvailabilityCache
	Interval time.Duration

	sched gocron.Scheduler
}

func NewInventorySnapshotWorker(s store.Reader, cache *AvailabilityCache, interval time.Duration) *InventorySnapshotWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &InventorySnapshotWorker{Store: s, Cache: cache, Interval: interval}
}

// Start schedules RunOnce every Interval, starting immediately.
func (w *InventorySnapshotWorker) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.Interval),
		gocron.NewTask(func() {
			if err := w.RunOnce(ctx); err != nil {
				log.Printf("[InventorySnapshot] %v", err)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule inventory snapshot: %w", err)
	}

	sched.Start()
	w.sched = sched
	log.Printf("🔄 Inventory snapshot worker started (every %s)", w.Interval)
	return nil
}

// RunOnce reads every match and replaces the cached availability.
func (w *InventorySnapshotWorker) RunOnce(ctx context.Context) error {
	matches, err := w.Store.ListMatches(ctx)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	availability := make(map[uint]int, len(matches))
	for _, m := range matches {
		availability[m.ID] = m.AvailableTickets
	}
	return w.Cache.Replace(ctx, availability)
}

func (w *InventorySnapshotWorker) Stop() error {
	if w.sched == nil {
		return nil
	}
	return w.sched.Shutdown()
}
