// Package reconciler runs the scheduled drift sweep over published listings.
package reconciler

import (
	"context"
	"log"
	"time"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/reconcile"
	"github.com/light-bringer/listsync-service/internal/metrics"
)

// Worker sweeps every published listing on a fixed interval, comparing
// local, remote, and snapshot state and recording drift events.
type Worker struct {
	interactor *reconcile.Interactor
	listings   contracts.ListingReader
	interval   time.Duration
	pageSize   int64
}

// NewWorker creates a reconciler worker.
func NewWorker(interactor *reconcile.Interactor, listings contracts.ListingReader, interval time.Duration, pageSize int64) *Worker {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Worker{
		interactor: interactor,
		listings:   listings,
		interval:   interval,
		pageSize:   pageSize,
	}
}

// Run blocks, sweeping on every tick until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	log.Printf("reconciler: starting, interval %s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("reconciler: stopping")
			return ctx.Err()
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep reconciles every published listing once, paging by listing ID. A
// failure on one listing is logged and does not stop the sweep.
func (w *Worker) Sweep(ctx context.Context) {
	var after int64
	var checked, drifted, skipped int

	for {
		page, err := w.listings.ListSyncTargets(ctx, w.pageSize, after)
		if err != nil {
			log.Printf("reconciler: sweep aborted, listing page failed: %v", err)
			return
		}
		if len(page) == 0 {
			break
		}

		for _, listing := range page {
			if ctx.Err() != nil {
				return
			}
			after = listing.ListingID
			checked++

			result, err := w.interactor.Execute(ctx, &reconcile.Request{ListingID: listing.ListingID})
			if err != nil {
				log.Printf("reconciler: listing %d failed: %v", listing.ListingID, err)
				continue
			}
			if result.Skipped {
				skipped++
				metrics.ReconcileSkipsTotal.Inc()
				continue
			}
			if result.Event != nil {
				drifted++
				metrics.DriftEventsTotal.WithLabelValues(string(result.Event.Classification)).Inc()
			}
		}

		if int64(len(page)) < w.pageSize {
			break
		}
	}

	log.Printf("reconciler: sweep done, checked=%d drifted=%d skipped=%d", checked, drifted, skipped)
}
