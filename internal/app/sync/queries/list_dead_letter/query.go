package list_dead_letter

import (
	"context"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
)

// Request contains pagination parameters.
type Request struct {
	ListingID int64
	Limit     int64
	Offset    int64
}

// Query lists dead-lettered failure records for the admin surface.
type Query struct {
	failedRepo contracts.FailedEventRepository
}

// NewQuery creates a new list dead letter query.
func NewQuery(failedRepo contracts.FailedEventRepository) *Query {
	return &Query{failedRepo: failedRepo}
}

// Execute retrieves failed events, newest first.
func (q *Query) Execute(ctx context.Context, req *Request) ([]*contracts.FailedEvent, error) {
	return q.failedRepo.List(ctx, contracts.ListFilter{
		ListingID: req.ListingID,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
}
