package list_policies

import (
	"context"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
)

// Request contains pagination parameters.
type Request struct {
	Limit  int64
	Offset int64
}

// Query lists cached policy entries for the admin surface.
type Query struct {
	policyRepo contracts.PolicyRepository
}

// NewQuery creates a new list policies query.
func NewQuery(policyRepo contracts.PolicyRepository) *Query {
	return &Query{policyRepo: policyRepo}
}

// Execute retrieves cached policies ordered by key.
func (q *Query) Execute(ctx context.Context, req *Request) ([]*contracts.PolicyEntry, error) {
	return q.policyRepo.List(ctx, contracts.ListFilter{
		Limit:  req.Limit,
		Offset: req.Offset,
	})
}
