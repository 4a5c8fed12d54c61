package list_queue

import (
	"context"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
)

// Request contains filtering and pagination parameters.
type Request struct {
	Status    string
	ListingID int64
	Limit     int64
	Offset    int64
}

// Query lists change queue items for the admin surface.
type Query struct {
	queueRepo contracts.QueueRepository
}

// NewQuery creates a new list queue query.
func NewQuery(queueRepo contracts.QueueRepository) *Query {
	return &Query{queueRepo: queueRepo}
}

// Execute retrieves queue items, newest first.
func (q *Query) Execute(ctx context.Context, req *Request) ([]*contracts.QueueItem, error) {
	return q.queueRepo.List(ctx, contracts.ListFilter{
		Status:    req.Status,
		ListingID: req.ListingID,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
}
