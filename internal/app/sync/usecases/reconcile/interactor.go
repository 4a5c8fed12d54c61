package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/pkg/canonical"
	"github.com/light-bringer/listsync-service/internal/pkg/clock"
	"github.com/light-bringer/listsync-service/internal/remote"
)

// Request identifies one listing to reconcile.
type Request struct {
	ListingID int64
}

// Result reports the reconciliation outcome for one listing. Event is nil
// when the comparison found agreement or when the remote fetch failed and
// the listing was skipped.
type Result struct {
	Skipped bool
	Event   *contracts.DriftEvent
}

// Interactor compares local, remote, and last-confirmed-synced state for a
// listing and records a drift event when they disagree.
type Interactor struct {
	listings   contracts.ListingReader
	snapshots  contracts.SnapshotRepository
	drift      contracts.DriftEventRepository
	client     remote.Client
	clock      clock.Clock
	staleAfter time.Duration
}

// NewInteractor creates a new reconcile interactor. staleAfter bounds how old
// a snapshot may be before it stops serving as a comparison baseline.
func NewInteractor(
	listings contracts.ListingReader,
	snapshots contracts.SnapshotRepository,
	drift contracts.DriftEventRepository,
	client remote.Client,
	clk clock.Clock,
	staleAfter time.Duration,
) *Interactor {
	return &Interactor{
		listings:   listings,
		snapshots:  snapshots,
		drift:      drift,
		client:     client,
		clock:      clk,
		staleAfter: staleAfter,
	}
}

// Execute reconciles one listing. A remote fetch failure is never classified
// as drift: the listing is logged and skipped so a flaky marketplace does not
// flood the event log with false positives.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*Result, error) {
	listing, err := i.listings.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.RemoteID == "" {
		// Never published; nothing on the remote side to compare against.
		return &Result{Skipped: true}, nil
	}

	localPayload := listing.SyncPayload(domain.IntentUpdate)
	localDoc, localHash, err := localPayload.Document()
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize local document: %w", err)
	}

	remoteRaw, err := i.client.FetchListing(ctx, listing.RemoteID)
	if err != nil {
		log.Printf("reconcile: skipping listing %d, remote fetch failed: %v", req.ListingID, err)
		return &Result{Skipped: true}, nil
	}
	remotePayload, _, err := domain.PayloadFromRemoteDocument(remoteRaw)
	if err != nil {
		log.Printf("reconcile: skipping listing %d, remote document unusable: %v", req.ListingID, err)
		return &Result{Skipped: true}, nil
	}
	remotePayload.ListingID = listing.ListingID
	remoteDoc, remoteHash, err := remotePayload.Document()
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize remote document: %w", err)
	}

	snapshotHash := ""
	snapshotAge := time.Duration(0)
	var snapshotDoc []byte
	snap, err := i.snapshots.Latest(ctx, listing.ListingID)
	switch {
	case err == nil:
		snapshotHash = snap.ContentHash
		snapshotAge = clock.Since(i.clock, snap.CreatedAt)
		snapshotDoc = snap.Document
	case errors.Is(err, domain.ErrSnapshotNotFound):
		// No baseline; classified as snapshot_stale below.
	default:
		return nil, err
	}

	class, pair, record := domain.Classify(localHash, remoteHash, snapshotHash, snapshotAge, i.staleAfter)
	if !record {
		return &Result{}, nil
	}

	details, err := diffFor(pair, localDoc, remoteDoc, snapshotDoc)
	if err != nil {
		return nil, err
	}

	event := &contracts.DriftEvent{
		ListingID:      listing.ListingID,
		Classification: class,
		LocalHash:      localHash,
		RemoteHash:     remoteHash,
		SnapshotHash:   snapshotHash,
		Details:        details,
	}
	if err := i.drift.Insert(ctx, event); err != nil {
		return nil, err
	}
	return &Result{Event: event}, nil
}

// diffFor computes the structural diff named by the classification table.
// The diff direction is fixed per classification: before is always the older
// or baseline side.
func diffFor(pair domain.DiffPair, localDoc, remoteDoc, snapshotDoc []byte) ([]byte, error) {
	var a, b []byte
	switch pair {
	case domain.DiffLocalVsSnapshot:
		a, b = snapshotDoc, localDoc
	case domain.DiffRemoteVsSnapshot:
		a, b = snapshotDoc, remoteDoc
	case domain.DiffLocalVsRemote:
		a, b = localDoc, remoteDoc
	default:
		return nil, nil
	}
	changes, err := canonical.Diff(a, b)
	if err != nil {
		return nil, fmt.Errorf("failed to diff documents: %w", err)
	}
	return canonical.Marshal(changes)
}
