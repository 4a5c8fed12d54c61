package list_drift

import (
	"context"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
)

// Request contains filtering and pagination parameters.
type Request struct {
	ListingID int64
	Limit     int64
	Offset    int64
}

// Query lists drift events for the admin surface.
type Query struct {
	driftRepo contracts.DriftEventRepository
}

// NewQuery creates a new list drift query.
func NewQuery(driftRepo contracts.DriftEventRepository) *Query {
	return &Query{driftRepo: driftRepo}
}

// Execute retrieves drift events, newest first.
func (q *Query) Execute(ctx context.Context, req *Request) ([]*contracts.DriftEvent, error) {
	return q.driftRepo.List(ctx, contracts.ListFilter{
		ListingID: req.ListingID,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
}
