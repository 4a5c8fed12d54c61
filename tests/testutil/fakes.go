package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/pkg/canonical"
	"github.com/light-bringer/listsync-service/internal/pkg/clock"
)

// In-memory repository fakes mirroring the Spanner implementations' CAS
// semantics, for unit tests that should not need the emulator.

// FakeQueueRepo is an in-memory QueueRepository.
type FakeQueueRepo struct {
	mu      sync.Mutex
	items   map[string]*contracts.QueueItem
	order   []string
	Clock   clock.Clock
	Backoff domain.BackoffPolicy
	Lease   time.Duration

	// Optional sinks written by Complete and Fail, mirroring the Spanner
	// repo's same-transaction writes.
	Snapshots *FakeSnapshotRepo
	Failed    *FakeFailedRepo
}

// NewFakeQueueRepo creates a fake queue with the given clock and defaults.
func NewFakeQueueRepo(clk clock.Clock) *FakeQueueRepo {
	return &FakeQueueRepo{
		items:   make(map[string]*contracts.QueueItem),
		Clock:   clk,
		Backoff: domain.DefaultBackoff(),
		Lease:   5 * time.Minute,
	}
}

func (f *FakeQueueRepo) Enqueue(ctx context.Context, payload *domain.ListingPayload, remoteID string) (*contracts.QueueItem, bool, error) {
	doc, hash, err := payload.Canonicalize()
	if err != nil {
		return nil, false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if existing := f.findActive(payload.ListingID, hash); existing != nil {
		return copyItem(existing), false, nil
	}
	item := f.insert(payload.ListingID, payload.Intent, remoteID, doc, hash)
	return copyItem(item), true, nil
}

func (f *FakeQueueRepo) Claim(ctx context.Context) (*contracts.QueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.Clock.Now()
	for _, id := range f.order {
		item := f.items[id]
		eligible := false
		switch item.Status {
		case domain.StatusPending, domain.StatusError:
			eligible = !item.NextAttemptAt.After(now)
		case domain.StatusProcessing:
			eligible = !item.LeaseExpiresAt.IsZero() && item.LeaseExpiresAt.Before(now)
		}
		if !eligible {
			continue
		}

		item.Status = domain.StatusProcessing
		item.LeaseExpiresAt = now.Add(f.Lease)
		item.UpdatedAt = now
		return copyItem(item), nil
	}
	return nil, nil
}

func (f *FakeQueueRepo) Complete(ctx context.Context, queueID string, snap *contracts.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[queueID]
	if !ok {
		return domain.ErrQueueItemNotFound
	}
	if !domain.CanTransition(item.Status, domain.StatusComplete) {
		return domain.ErrInvalidTransition
	}

	if snap.SnapshotID == "" {
		snap.SnapshotID = uuid.New().String()
	}
	snap.CreatedAt = f.Clock.Now()
	if f.Snapshots != nil {
		f.Snapshots.insertLocked(snap)
	}

	item.Status = domain.StatusComplete
	item.SnapshotID = snap.SnapshotID
	item.UpdatedAt = f.Clock.Now()
	return nil
}

func (f *FakeQueueRepo) Fail(ctx context.Context, queueID string, cause string, permanent bool) (*contracts.QueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[queueID]
	if !ok {
		return nil, domain.ErrQueueItemNotFound
	}

	now := f.Clock.Now()
	item.Attempts++
	item.LastError = cause
	item.UpdatedAt = now

	if permanent || f.Backoff.Exhausted(item.Attempts) {
		if !domain.CanTransition(item.Status, domain.StatusDead) {
			return nil, domain.ErrInvalidTransition
		}
		item.Status = domain.StatusDead
		if f.Failed != nil {
			f.Failed.insert(&contracts.FailedEvent{
				FailedEventID: uuid.New().String(),
				QueueID:       item.QueueID,
				ListingID:     item.ListingID,
				Intent:        item.Intent,
				RemoteID:      item.RemoteID,
				Payload:       item.Payload,
				PayloadHash:   item.PayloadHash,
				ErrorReason:   cause,
				CreatedAt:     now,
			})
		}
		return copyItem(item), nil
	}

	if !domain.CanTransition(item.Status, domain.StatusError) {
		return nil, domain.ErrInvalidTransition
	}
	item.Status = domain.StatusError
	item.NextAttemptAt = now.Add(f.Backoff.Delay(item.Attempts))
	return copyItem(item), nil
}

func (f *FakeQueueRepo) InsertFresh(ctx context.Context, listingID int64, intent domain.Intent, remoteID string, payload []byte, payloadHash string) (*contracts.QueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing := f.findActive(listingID, payloadHash); existing != nil {
		return copyItem(existing), nil
	}
	return copyItem(f.insert(listingID, intent, remoteID, payload, payloadHash)), nil
}

func (f *FakeQueueRepo) ResetBackoff(ctx context.Context, queueID string) (*contracts.QueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[queueID]
	if !ok {
		return nil, domain.ErrQueueItemNotFound
	}
	if item.Status != domain.StatusError {
		return nil, domain.ErrItemNotReplayable
	}

	now := f.Clock.Now()
	item.NextAttemptAt = now
	item.UpdatedAt = now
	return copyItem(item), nil
}

func (f *FakeQueueRepo) GetByID(ctx context.Context, queueID string) (*contracts.QueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[queueID]
	if !ok {
		return nil, domain.ErrQueueItemNotFound
	}
	return copyItem(item), nil
}

func (f *FakeQueueRepo) List(ctx context.Context, filter contracts.ListFilter) ([]*contracts.QueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*contracts.QueueItem
	for i := len(f.order) - 1; i >= 0; i-- {
		item := f.items[f.order[i]]
		if filter.Status != "" && string(item.Status) != filter.Status {
			continue
		}
		if filter.ListingID > 0 && item.ListingID != filter.ListingID {
			continue
		}
		out = append(out, copyItem(item))
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (f *FakeQueueRepo) Depth(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var depth int64
	for _, item := range f.items {
		if item.Status.Active() {
			depth++
		}
	}
	return depth, nil
}

func (f *FakeQueueRepo) CountByStatus(ctx context.Context, status domain.Status) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, item := range f.items {
		if item.Status == status {
			count++
		}
	}
	return count, nil
}

func (f *FakeQueueRepo) LastCompletedAt(ctx context.Context) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var last time.Time
	found := false
	for _, item := range f.items {
		if item.Status == domain.StatusComplete && item.UpdatedAt.After(last) {
			last = item.UpdatedAt
			found = true
		}
	}
	return last, found, nil
}

func (f *FakeQueueRepo) findActive(listingID int64, hash string) *contracts.QueueItem {
	for _, id := range f.order {
		item := f.items[id]
		if item.ListingID == listingID && item.PayloadHash == hash && item.Status.Active() {
			return item
		}
	}
	return nil
}

func (f *FakeQueueRepo) insert(listingID int64, intent domain.Intent, remoteID string, payload []byte, hash string) *contracts.QueueItem {
	now := f.Clock.Now()
	item := &contracts.QueueItem{
		QueueID:       uuid.New().String(),
		ListingID:     listingID,
		Intent:        intent,
		RemoteID:      remoteID,
		Payload:       payload,
		PayloadHash:   hash,
		Status:        domain.StatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.items[item.QueueID] = item
	f.order = append(f.order, item.QueueID)
	return item
}

// FakeSnapshotRepo is an in-memory SnapshotRepository.
type FakeSnapshotRepo struct {
	mu    sync.Mutex
	snaps []*contracts.Snapshot
}

func NewFakeSnapshotRepo() *FakeSnapshotRepo {
	return &FakeSnapshotRepo{}
}

func (f *FakeSnapshotRepo) Insert(ctx context.Context, snap *contracts.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertLocked(snap)
	return nil
}

func (f *FakeSnapshotRepo) insertLocked(snap *contracts.Snapshot) {
	if snap.SnapshotID == "" {
		snap.SnapshotID = uuid.New().String()
	}
	f.snaps = append(f.snaps, snap)
}

func (f *FakeSnapshotRepo) GetByID(ctx context.Context, snapshotID string) (*contracts.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, snap := range f.snaps {
		if snap.SnapshotID == snapshotID {
			return snap, nil
		}
	}
	return nil, domain.ErrSnapshotNotFound
}

func (f *FakeSnapshotRepo) Latest(ctx context.Context, listingID int64) (*contracts.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *contracts.Snapshot
	for _, snap := range f.snaps {
		if snap.ListingID != listingID {
			continue
		}
		if latest == nil || snap.CreatedAt.After(latest.CreatedAt) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	return latest, nil
}

func (f *FakeSnapshotRepo) List(ctx context.Context, filter contracts.ListFilter) ([]*contracts.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*contracts.Snapshot
	for _, snap := range f.snaps {
		if filter.ListingID > 0 && snap.ListingID != filter.ListingID {
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Limit, filter.Offset), nil
}

// FakeDriftRepo is an in-memory DriftEventRepository.
type FakeDriftRepo struct {
	mu     sync.Mutex
	Events []*contracts.DriftEvent
}

func NewFakeDriftRepo() *FakeDriftRepo {
	return &FakeDriftRepo{}
}

func (f *FakeDriftRepo) Insert(ctx context.Context, event *contracts.DriftEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	f.Events = append(f.Events, event)
	return nil
}

func (f *FakeDriftRepo) List(ctx context.Context, filter contracts.ListFilter) ([]*contracts.DriftEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*contracts.DriftEvent
	for i := len(f.Events) - 1; i >= 0; i-- {
		event := f.Events[i]
		if filter.ListingID > 0 && event.ListingID != filter.ListingID {
			continue
		}
		out = append(out, event)
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

// FakeFailedRepo is an in-memory FailedEventRepository.
type FakeFailedRepo struct {
	mu     sync.Mutex
	Events []*contracts.FailedEvent
}

func NewFakeFailedRepo() *FakeFailedRepo {
	return &FakeFailedRepo{}
}

func (f *FakeFailedRepo) insert(event *contracts.FailedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events = append(f.Events, event)
}

func (f *FakeFailedRepo) GetByID(ctx context.Context, failedEventID string) (*contracts.FailedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, event := range f.Events {
		if event.FailedEventID == failedEventID {
			return event, nil
		}
	}
	return nil, domain.ErrFailedEventNotFound
}

func (f *FakeFailedRepo) List(ctx context.Context, filter contracts.ListFilter) ([]*contracts.FailedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*contracts.FailedEvent
	for i := len(f.Events) - 1; i >= 0; i-- {
		event := f.Events[i]
		if filter.ListingID > 0 && event.ListingID != filter.ListingID {
			continue
		}
		out = append(out, event)
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (f *FakeFailedRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.Events)), nil
}

// FakePolicyRepo is an in-memory PolicyRepository.
type FakePolicyRepo struct {
	mu      sync.Mutex
	entries map[string]*contracts.PolicyEntry
	Clock   clock.Clock
	Upserts int
}

func NewFakePolicyRepo(clk clock.Clock) *FakePolicyRepo {
	return &FakePolicyRepo{
		entries: make(map[string]*contracts.PolicyEntry),
		Clock:   clk,
	}
}

func (f *FakePolicyRepo) Get(ctx context.Context, policyType, remoteID string) (*contracts.PolicyEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[policyType+"/"+remoteID]
	if !ok {
		return nil, domain.ErrPolicyNotFound
	}
	cp := *entry
	return &cp, nil
}

func (f *FakePolicyRepo) Upsert(ctx context.Context, entry *contracts.PolicyEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry.RefreshedAt = f.Clock.Now()
	cp := *entry
	f.entries[entry.PolicyType+"/"+entry.RemoteID] = &cp
	f.Upserts++
	return nil
}

func (f *FakePolicyRepo) List(ctx context.Context, filter contracts.ListFilter) ([]*contracts.PolicyEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.entries))
	for key := range f.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]*contracts.PolicyEntry, 0, len(keys))
	for _, key := range keys {
		out = append(out, f.entries[key])
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

// FakeStagingRepo is an in-memory StagingRepository.
type FakeStagingRepo struct {
	mu    sync.Mutex
	rows  []*contracts.StagedListing
	Clock clock.Clock
}

func NewFakeStagingRepo(clk clock.Clock) *FakeStagingRepo {
	return &FakeStagingRepo{Clock: clk}
}

func (f *FakeStagingRepo) Stage(ctx context.Context, staged *contracts.StagedListing) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.ItemID == staged.ItemID && row.ContentHash == staged.ContentHash {
			return false, nil
		}
	}
	if staged.StagingID == "" {
		staged.StagingID = uuid.New().String()
	}
	staged.FetchedAt = f.Clock.Now()
	staged.ProcessStatus = "pending"
	f.rows = append(f.rows, staged)
	return true, nil
}

func (f *FakeStagingRepo) ListPending(ctx context.Context, limit int64) ([]*contracts.StagedListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*contracts.StagedListing
	for _, row := range f.rows {
		if row.ProcessStatus != "pending" {
			continue
		}
		out = append(out, row)
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (f *FakeStagingRepo) MarkProcessed(ctx context.Context, stagingID string) error {
	return f.mark(stagingID, "processed", "")
}

func (f *FakeStagingRepo) MarkFailed(ctx context.Context, stagingID string, cause string) error {
	return f.mark(stagingID, "failed", cause)
}

func (f *FakeStagingRepo) mark(stagingID, status, cause string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.StagingID == stagingID {
			row.ProcessStatus = status
			row.ProcessError = cause
			row.ProcessedAt = f.Clock.Now()
			row.Attempts++
			return nil
		}
	}
	return domain.ErrQueueItemNotFound
}

// FakeListingRepo is an in-memory ListingReader, ListingWriter, and
// RevisionReader.
type FakeListingRepo struct {
	mu        sync.Mutex
	listings  map[int64]*contracts.Listing
	revisions map[int64]int64
	descHash  map[int64]string
}

func NewFakeListingRepo() *FakeListingRepo {
	return &FakeListingRepo{
		listings:  make(map[int64]*contracts.Listing),
		revisions: make(map[int64]int64),
		descHash:  make(map[int64]string),
	}
}

// Put seeds a listing, appending a description revision the same way the
// real writer does.
func (f *FakeListingRepo) Put(listing *contracts.Listing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putLocked(listing)
}

func (f *FakeListingRepo) putLocked(listing *contracts.Listing) {
	cp := *listing
	f.listings[listing.ListingID] = &cp

	hash := canonical.HashBytes([]byte(listing.Description))
	if f.descHash[listing.ListingID] != hash {
		f.descHash[listing.ListingID] = hash
		f.revisions[listing.ListingID]++
	}
}

// Delete removes a listing, simulating a CRUD-side hard delete.
func (f *FakeListingRepo) Delete(listingID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.listings, listingID)
}

func (f *FakeListingRepo) GetByID(ctx context.Context, listingID int64) (*contracts.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	listing, ok := f.listings[listingID]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	cp := *listing
	return &cp, nil
}

func (f *FakeListingRepo) GetByRemoteID(ctx context.Context, remoteID string) (*contracts.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, listing := range f.listings {
		if listing.RemoteID == remoteID {
			cp := *listing
			return &cp, nil
		}
	}
	return nil, domain.ErrListingNotFound
}

func (f *FakeListingRepo) ListSyncTargets(ctx context.Context, limit int64, afterListingID int64) ([]*contracts.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*contracts.Listing
	for _, listing := range f.listings {
		if listing.RemoteID == "" || listing.ListingID <= afterListingID {
			continue
		}
		cp := *listing
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ListingID < out[j].ListingID })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeListingRepo) UpsertFromStaged(ctx context.Context, listing *contracts.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putLocked(listing)
	return nil
}

func (f *FakeListingRepo) CountForListing(ctx context.Context, listingID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revisions[listingID], nil
}

func copyItem(item *contracts.QueueItem) *contracts.QueueItem {
	cp := *item
	return &cp
}

func paginate[T any](items []T, limit, offset int64) []T {
	if offset > 0 {
		if offset >= int64(len(items)) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && int64(len(items)) > limit {
		items = items[:limit]
	}
	return items
}
