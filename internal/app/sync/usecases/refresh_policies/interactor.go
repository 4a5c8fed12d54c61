package refresh_policies

import (
	"context"

	"github.com/light-bringer/listsync-service/internal/policycache"
)

// Request selects what to refresh. With a PolicyType and RemoteID set only
// that entry is refreshed; empty means every cached entry.
type Request struct {
	PolicyType string
	RemoteID   string
}

// Result summarizes one refresh run.
type Result struct {
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Interactor forces a policy cache refresh ahead of the TTL.
type Interactor struct {
	cache *policycache.Cache
}

// NewInteractor creates a new refresh policies interactor.
func NewInteractor(cache *policycache.Cache) *Interactor {
	return &Interactor{cache: cache}
}

// Execute refreshes one entry or sweeps the whole cache.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*Result, error) {
	if req.PolicyType != "" && req.RemoteID != "" {
		refreshed, err := i.cache.Refresh(ctx, req.PolicyType, req.RemoteID)
		if err != nil {
			return nil, err
		}
		result := &Result{}
		if refreshed.Changed {
			result.Changed = 1
		} else {
			result.Unchanged = 1
		}
		return result, nil
	}

	changed, unchanged, failed, err := i.cache.RefreshAll(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{Changed: changed, Unchanged: unchanged, Failed: failed}, nil
}
