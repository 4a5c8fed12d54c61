package diff_snapshots

import (
	"context"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/pkg/canonical"
)

// Request names the two snapshots to compare. The diff is directional: paths
// report Before from A and After from B, so swapping the arguments swaps the
// sides.
type Request struct {
	SnapshotA string
	SnapshotB string
}

// Result carries both snapshots and the structural diff between them.
type Result struct {
	A       *contracts.Snapshot         `json:"a"`
	B       *contracts.Snapshot         `json:"b"`
	Changes map[string]canonical.Change `json:"changes"`
}

// Query computes the structural diff between two stored snapshots.
type Query struct {
	snapshotRepo contracts.SnapshotRepository
}

// NewQuery creates a new diff snapshots query.
func NewQuery(snapshotRepo contracts.SnapshotRepository) *Query {
	return &Query{snapshotRepo: snapshotRepo}
}

// Execute loads both snapshots and diffs their documents.
func (q *Query) Execute(ctx context.Context, req *Request) (*Result, error) {
	a, err := q.snapshotRepo.GetByID(ctx, req.SnapshotA)
	if err != nil {
		return nil, err
	}
	b, err := q.snapshotRepo.GetByID(ctx, req.SnapshotB)
	if err != nil {
		return nil, err
	}

	changes, err := canonical.Diff(a.Document, b.Document)
	if err != nil {
		return nil, err
	}
	return &Result{A: a, B: b, Changes: changes}, nil
}
