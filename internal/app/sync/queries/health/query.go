package health

import (
	"context"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/pkg/clock"
)

// Query assembles the operator-facing health summary.
type Query struct {
	queueRepo  contracts.QueueRepository
	failedRepo contracts.FailedEventRepository
	clock      clock.Clock
}

// NewQuery creates a new health query.
func NewQuery(queueRepo contracts.QueueRepository, failedRepo contracts.FailedEventRepository, clk clock.Clock) *Query {
	return &Query{
		queueRepo:  queueRepo,
		failedRepo: failedRepo,
		clock:      clk,
	}
}

// Execute gathers queue depth, time since the last successful publish, and
// the dead-letter counters.
func (q *Query) Execute(ctx context.Context) (*contracts.HealthSummary, error) {
	depth, err := q.queueRepo.Depth(ctx)
	if err != nil {
		return nil, err
	}

	dead, err := q.queueRepo.CountByStatus(ctx, domain.StatusDead)
	if err != nil {
		return nil, err
	}

	failed, err := q.failedRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	summary := &contracts.HealthSummary{
		QueueDepth:       depth,
		DeadQueueCount:   dead,
		FailedEventCount: failed,
	}

	last, ok, err := q.queueRepo.LastCompletedAt(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		summary.LastPublishMissing = true
		return summary, nil
	}
	summary.LastPublishAgeMS = clock.Since(q.clock, last).Milliseconds()
	return summary, nil
}
