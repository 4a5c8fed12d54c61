package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/remote"
)

// Outcome names the result of one drain step.
type Outcome string

const (
	OutcomeIdle      Outcome = "idle"      // nothing claimable
	OutcomeCompleted Outcome = "completed" // pushed and snapshotted
	OutcomeRetried   Outcome = "retried"   // transient failure, backoff scheduled
	OutcomeDead      Outcome = "dead"      // permanent failure or attempts exhausted
)

// Result reports what one Execute call did.
type Result struct {
	Outcome  Outcome
	Item     *contracts.QueueItem
	RemoteID string
}

// Interactor performs one publish drain step: claim the oldest eligible
// queue item, push it to the marketplace, and record the terminal write.
type Interactor struct {
	queueRepo contracts.QueueRepository
	revisions contracts.RevisionReader
	client    remote.Client
}

// NewInteractor creates a new publish interactor.
func NewInteractor(queueRepo contracts.QueueRepository, revisions contracts.RevisionReader, client remote.Client) *Interactor {
	return &Interactor{
		queueRepo: queueRepo,
		revisions: revisions,
		client:    client,
	}
}

// Execute claims and publishes at most one queue item. A transient
// marketplace failure schedules a retry with backoff; a permanent one (or an
// exhausted attempt budget) dead-letters the item. Success writes the
// confirmation snapshot and the completion in one transaction.
func (i *Interactor) Execute(ctx context.Context) (*Result, error) {
	item, err := i.queueRepo.Claim(ctx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return &Result{Outcome: OutcomeIdle}, nil
	}

	ack, pubErr := i.client.Publish(ctx, item.Intent, item.RemoteID, item.Payload)
	if pubErr != nil {
		permanent := !remote.IsTransient(pubErr)
		failed, err := i.queueRepo.Fail(ctx, item.QueueID, pubErr.Error(), permanent)
		if err != nil {
			return nil, fmt.Errorf("failed to record publish failure: %w", err)
		}
		outcome := OutcomeRetried
		if failed.Status == domain.StatusDead {
			outcome = OutcomeDead
		}
		return &Result{Outcome: outcome, Item: failed}, nil
	}

	snap, err := i.buildSnapshot(ctx, item, ack)
	if err != nil {
		return nil, err
	}
	if err := i.queueRepo.Complete(ctx, item.QueueID, snap); err != nil {
		return nil, err
	}

	item.Status = domain.StatusComplete
	item.SnapshotID = snap.SnapshotID
	return &Result{Outcome: OutcomeCompleted, Item: item, RemoteID: ack.RemoteID}, nil
}

// buildSnapshot captures the just-confirmed listing document. The hash is
// taken over the intent-stripped document so later drift comparison is not
// sensitive to which intent carried the content.
func (i *Interactor) buildSnapshot(ctx context.Context, item *contracts.QueueItem, ack *remote.PublishResult) (*contracts.Snapshot, error) {
	var payload domain.ListingPayload
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse queued payload: %w", err)
	}

	doc, hash, err := payload.Document()
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize snapshot document: %w", err)
	}
	// Deletes snapshot the tombstone, not the last content.
	if item.Intent == domain.IntentDelete {
		tombstone := &domain.ListingPayload{ListingID: item.ListingID}
		if doc, hash, err = tombstone.Document(); err != nil {
			return nil, fmt.Errorf("failed to canonicalize tombstone: %w", err)
		}
	}
	revisions, err := i.revisions.CountForListing(ctx, item.ListingID)
	if err != nil {
		return nil, fmt.Errorf("failed to count revisions: %w", err)
	}

	return &contracts.Snapshot{
		ListingID:     item.ListingID,
		SourceEvent:   "publish:" + string(item.Intent),
		ContentHash:   hash,
		RevisionCount: revisions,
		Document:      doc,
	}, nil
}
