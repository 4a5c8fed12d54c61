// Package publisher runs the queue drain loop: claim, push, record, repeat.
package publisher

import (
	"context"
	"log"
	"time"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/publish"
	"github.com/light-bringer/listsync-service/internal/metrics"
)

// Worker drains the change queue on a fixed interval. Each tick publishes
// until the queue has nothing claimable, so a burst of enqueues clears in a
// single tick rather than one item per interval.
type Worker struct {
	interactor *publish.Interactor
	queueRepo  contracts.QueueRepository
	interval   time.Duration
	batchMax   int
}

// NewWorker creates a publisher worker. batchMax caps how many items one
// tick may drain; zero means 100.
func NewWorker(interactor *publish.Interactor, queueRepo contracts.QueueRepository, interval time.Duration, batchMax int) *Worker {
	if batchMax <= 0 {
		batchMax = 100
	}
	return &Worker{
		interactor: interactor,
		queueRepo:  queueRepo,
		interval:   interval,
		batchMax:   batchMax,
	}
}

// Run blocks, draining on every tick until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	log.Printf("publisher: starting, interval %s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("publisher: stopping")
			return ctx.Err()
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain publishes until the queue is idle or the batch cap is hit. Errors
// are logged and end the batch; the next tick retries.
func (w *Worker) Drain(ctx context.Context) {
	for n := 0; n < w.batchMax; n++ {
		start := time.Now()
		result, err := w.interactor.Execute(ctx)
		if err != nil {
			log.Printf("publisher: drain step failed: %v", err)
			break
		}
		if result.Outcome == publish.OutcomeIdle {
			break
		}

		metrics.PublishAttemptsTotal.Inc()
		metrics.PublishDuration.Observe(time.Since(start).Seconds())
		switch result.Outcome {
		case publish.OutcomeCompleted:
			metrics.PublishSuccessTotal.Inc()
		case publish.OutcomeRetried:
			metrics.PublishRetriesTotal.Inc()
			log.Printf("publisher: item %s attempt %d failed, retrying at %s: %s",
				result.Item.QueueID, result.Item.Attempts,
				result.Item.NextAttemptAt.Format(time.RFC3339), result.Item.LastError)
		case publish.OutcomeDead:
			metrics.PublishDeadTotal.Inc()
			log.Printf("publisher: item %s dead after %d attempts: %s",
				result.Item.QueueID, result.Item.Attempts, result.Item.LastError)
		}
	}

	if depth, err := w.queueRepo.Depth(ctx); err == nil {
		metrics.QueueDepth.Set(float64(depth))
	}
	if last, ok, err := w.queueRepo.LastCompletedAt(ctx); err == nil && ok {
		metrics.LastPublishAgeSeconds.Set(time.Since(last).Seconds())
	}
}
