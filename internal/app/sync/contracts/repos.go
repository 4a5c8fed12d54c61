package contracts

import (
	"context"
	"time"

	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
)

// QueueRepository owns the change_queue table. Claim and Enqueue are the two
// operations with compare-and-swap semantics; they are enforced here, in one
// place, rather than at call sites.
type QueueRepository interface {
	// Enqueue inserts a pending item unless an active row with the same
	// (listing id, payload hash) already exists, in which case that row is
	// returned unchanged. The boolean reports whether a row was created.
	// remoteID is the marketplace item the row targets; it rides along on
	// the row and is not part of the hashed content.
	Enqueue(ctx context.Context, payload *domain.ListingPayload, remoteID string) (*QueueItem, bool, error)

	// Claim atomically selects one eligible row (pending or error with
	// elapsed next-attempt time, or processing with an expired lease),
	// oldest first, and transitions it to processing under a fresh lease.
	// Returns (nil, nil) when nothing is claimable.
	Claim(ctx context.Context) (*QueueItem, error)

	// Complete marks the row complete and persists the snapshot in the
	// same transaction, linking the two.
	Complete(ctx context.Context, queueID string, snap *Snapshot) error

	// Fail either schedules a retry (attempts incremented, next-attempt
	// pushed out by backoff) or, when permanent or attempts are exhausted,
	// dead-letters the row and records a FailedEvent.
	Fail(ctx context.Context, queueID string, cause string, permanent bool) (*QueueItem, error)

	// InsertFresh inserts a brand-new pending row with attempts reset.
	// Used by replay and retry; the dead row it derives from is left
	// untouched.
	InsertFresh(ctx context.Context, listingID int64, intent domain.Intent, remoteID string, payload []byte, payloadHash string) (*QueueItem, error)

	// ResetBackoff clears the next-attempt time of an error-status row so
	// the next claim picks it up immediately. The attempt count is kept.
	ResetBackoff(ctx context.Context, queueID string) (*QueueItem, error)

	GetByID(ctx context.Context, queueID string) (*QueueItem, error)
	List(ctx context.Context, filter ListFilter) ([]*QueueItem, error)
	Depth(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status domain.Status) (int64, error)
	LastCompletedAt(ctx context.Context) (time.Time, bool, error)
}

// SnapshotRepository owns the snapshots table.
type SnapshotRepository interface {
	Insert(ctx context.Context, snap *Snapshot) error
	GetByID(ctx context.Context, snapshotID string) (*Snapshot, error)
	// Latest returns the most recent snapshot for a listing by capture
	// time, or ErrSnapshotNotFound.
	Latest(ctx context.Context, listingID int64) (*Snapshot, error)
	List(ctx context.Context, filter ListFilter) ([]*Snapshot, error)
}

// DriftEventRepository owns the append-only drift_events table.
type DriftEventRepository interface {
	Insert(ctx context.Context, event *DriftEvent) error
	List(ctx context.Context, filter ListFilter) ([]*DriftEvent, error)
}

// FailedEventRepository owns the failed_events table.
type FailedEventRepository interface {
	GetByID(ctx context.Context, failedEventID string) (*FailedEvent, error)
	List(ctx context.Context, filter ListFilter) ([]*FailedEvent, error)
	Count(ctx context.Context) (int64, error)
}

// PolicyRepository owns the policy_cache table.
type PolicyRepository interface {
	Get(ctx context.Context, policyType, remoteID string) (*PolicyEntry, error)
	Upsert(ctx context.Context, entry *PolicyEntry) error
	List(ctx context.Context, filter ListFilter) ([]*PolicyEntry, error)
}

// StagingRepository owns the staging_listings table.
type StagingRepository interface {
	// Stage inserts a raw payload; repeated ingests of identical payloads
	// (same item id and content hash) are deduped to a no-op. The boolean
	// reports whether a row was created.
	Stage(ctx context.Context, staged *StagedListing) (bool, error)
	ListPending(ctx context.Context, limit int64) ([]*StagedListing, error)
	MarkProcessed(ctx context.Context, stagingID string) error
	MarkFailed(ctx context.Context, stagingID string, cause string) error
}

// ListingReader reads the authoritative local listing record. The engine
// never writes through this interface; mapping staged payloads goes through
// ListingWriter.
type ListingReader interface {
	GetByID(ctx context.Context, listingID int64) (*Listing, error)
	GetByRemoteID(ctx context.Context, remoteID string) (*Listing, error)
	// ListSyncTargets returns listings that have been published (remote ID
	// set), ordered by listing ID for a stable sweep.
	ListSyncTargets(ctx context.Context, limit int64, afterListingID int64) ([]*Listing, error)
}

// ListingWriter upserts local listings from staged marketplace payloads and
// maintains the description revision chain.
type ListingWriter interface {
	UpsertFromStaged(ctx context.Context, listing *Listing) error
}

// RevisionReader exposes the description history chain length, recorded on
// every snapshot.
type RevisionReader interface {
	CountForListing(ctx context.Context, listingID int64) (int64, error)
}
