package list_snapshots

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

// Query lists confirmation snapshots for the admin surface.
type Query struct {
	snapshotRepo contracts.SnapshotRepository
}

// NewQuery creates a new list snapshots query.
func NewQuery(snapshotRepo contracts.SnapshotRepository) *Query {
	return &Query{snapshotRepo: snapshotRepo}
}

// Execute retrieves snapshots, newest first.
func (q *Query) Execute(ctx context.Context, req *Request) ([]*contracts.Snapshot, error) {
	return q.snapshotRepo.List(ctx, contracts.ListFilter{
		ListingID: req.ListingID,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
}
