package replay

import (
	"context"
	"errors"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
)

// Request identifies the failed event to replay.
type Request struct {
	FailedEventID string
}

// Interactor re-enqueues a dead-lettered payload after verifying the local
// record has not moved on since the failure.
type Interactor struct {
	failedRepo contracts.FailedEventRepository
	queueRepo  contracts.QueueRepository
	listings   contracts.ListingReader
}

// NewInteractor creates a new replay interactor.
func NewInteractor(
	failedRepo contracts.FailedEventRepository,
	queueRepo contracts.QueueRepository,
	listings contracts.ListingReader,
) *Interactor {
	return &Interactor{
		failedRepo: failedRepo,
		queueRepo:  queueRepo,
		listings:   listings,
	}
}

// Execute inserts a fresh pending queue row carrying the dead payload with
// attempts reset. When the listing's current content no longer hashes to the
// dead payload's hash the replay is rejected with ErrStaleReplay and no row
// is written; the operator should enqueue the current state instead.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*contracts.QueueItem, error) {
	event, err := i.failedRepo.GetByID(ctx, req.FailedEventID)
	if err != nil {
		return nil, err
	}

	if err := VerifyFresh(ctx, i.listings, event.ListingID, event.Intent, event.PayloadHash); err != nil {
		return nil, err
	}

	return i.queueRepo.InsertFresh(ctx, event.ListingID, event.Intent, event.RemoteID, event.Payload, event.PayloadHash)
}

// VerifyFresh recomputes the current local payload hash for the stored
// intent and compares it against the hash captured at failure time. A delete
// of a listing that is already gone locally replays as-is: there is no local
// content left to diverge. Retry applies the same rule to dead queue rows.
func VerifyFresh(ctx context.Context, listings contracts.ListingReader, listingID int64, intent domain.Intent, deadHash string) error {
	listing, err := listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) && intent == domain.IntentDelete {
			return nil
		}
		return err
	}

	_, currentHash, err := listing.SyncPayload(intent).Canonicalize()
	if err != nil {
		// The current record no longer forms a valid payload; whatever is
		// in the dead row is certainly stale.
		return domain.ErrStaleReplay
	}
	if currentHash != deadHash {
		return domain.ErrStaleReplay
	}
	return nil
}
