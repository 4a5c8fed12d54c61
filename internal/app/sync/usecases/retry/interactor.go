package retry

import (
	"context"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/replay"
)

// Request identifies the queue item to retry.
type Request struct {
	QueueID string
}

// Interactor forces a retry of a failed queue item. An error-status item is
// made claimable again immediately; a dead item is re-enqueued as a fresh
// row, under the same staleness rule as replay.
type Interactor struct {
	queueRepo contracts.QueueRepository
	listings  contracts.ListingReader
}

// NewInteractor creates a new retry interactor.
func NewInteractor(queueRepo contracts.QueueRepository, listings contracts.ListingReader) *Interactor {
	return &Interactor{
		queueRepo: queueRepo,
		listings:  listings,
	}
}

// Execute retries one error or dead queue item. For an error item the backoff
// wait is cleared so the next claim takes it without re-verifying content:
// the row is still active and its payload is still the one being synced. For
// a dead item the payload must still match the local record, then a fresh
// pending row is inserted; the dead row is left untouched as history.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*contracts.QueueItem, error) {
	item, err := i.queueRepo.GetByID(ctx, req.QueueID)
	if err != nil {
		return nil, err
	}

	switch item.Status {
	case domain.StatusError:
		return i.queueRepo.ResetBackoff(ctx, req.QueueID)
	case domain.StatusDead:
		if err := replay.VerifyFresh(ctx, i.listings, item.ListingID, item.Intent, item.PayloadHash); err != nil {
			return nil, err
		}
		return i.queueRepo.InsertFresh(ctx, item.ListingID, item.Intent, item.RemoteID, item.Payload, item.PayloadHash)
	default:
		return nil, domain.ErrItemNotReplayable
	}
}
