package get_policy

import (
	"context"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/policycache"
)

// Request names one policy cache key.
type Request struct {
	PolicyType string
	RemoteID   string
}

// Query reads one policy through the TTL cache, so an expired entry is
// refreshed on the way out and a failed refresh degrades to the cached
// document.
type Query struct {
	cache *policycache.Cache
}

// NewQuery creates a new get policy query.
func NewQuery(cache *policycache.Cache) *Query {
	return &Query{cache: cache}
}

// Execute returns the cached (refreshing when expired) policy entry.
func (q *Query) Execute(ctx context.Context, req *Request) (*contracts.PolicyEntry, error) {
	return q.cache.Get(ctx, req.PolicyType, req.RemoteID)
}
