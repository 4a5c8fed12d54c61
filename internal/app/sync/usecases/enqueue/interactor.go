package enqueue

import (
	"context"
	"errors"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
)

// Request contains the data needed to enqueue a synchronization. RemoteID is
// only consulted for deleting a listing that no longer exists locally; in
// every other case the local record supplies it.
type Request struct {
	ListingID int64
	Intent    domain.Intent
	RemoteID  string
}

// Result reports the queue row and whether this call created it. Created is
// false when an active row with the same content already existed.
type Result struct {
	Item    *contracts.QueueItem
	Created bool
}

// Interactor handles the enqueue use case.
type Interactor struct {
	queueRepo contracts.QueueRepository
	listings  contracts.ListingReader
}

// NewInteractor creates a new enqueue interactor.
func NewInteractor(queueRepo contracts.QueueRepository, listings contracts.ListingReader) *Interactor {
	return &Interactor{
		queueRepo: queueRepo,
		listings:  listings,
	}
}

// Execute projects the listing onto its synchronizable fragment, validates
// and canonicalizes it, and inserts a pending queue row unless an identical
// one is already active.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*Result, error) {
	if !domain.ValidIntent(string(req.Intent)) {
		return nil, &domain.ValidationError{Cause: domain.ErrInvalidIntent}
	}

	listing, err := i.listings.GetByID(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) && req.Intent == domain.IntentDelete {
			// Deleting a listing that is already gone locally still needs
			// the remote side torn down; identity alone suffices. The
			// remote id must come with the request since there is no local
			// record left to read it from.
			if req.RemoteID == "" {
				return nil, &domain.ValidationError{Cause: domain.ErrMissingRemoteID}
			}
			payload := &domain.ListingPayload{ListingID: req.ListingID, Intent: domain.IntentDelete}
			item, created, err := i.queueRepo.Enqueue(ctx, payload, req.RemoteID)
			if err != nil {
				return nil, err
			}
			return &Result{Item: item, Created: created}, nil
		}
		return nil, err
	}

	if listing.RemoteID == "" && (req.Intent == domain.IntentUpdate || req.Intent == domain.IntentDelete) {
		// Never published; there is no remote item to address.
		return nil, &domain.ValidationError{Cause: domain.ErrMissingRemoteID}
	}

	payload := listing.SyncPayload(req.Intent)
	item, created, err := i.queueRepo.Enqueue(ctx, payload, listing.RemoteID)
	if err != nil {
		return nil, err
	}
	return &Result{Item: item, Created: created}, nil
}
