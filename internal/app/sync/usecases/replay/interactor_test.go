package replay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/pkg/clock"
	"github.com/light-bringer/listsync-service/tests/testutil"
)

type fixture struct {
	interactor *Interactor
	queue      *testutil.FakeQueueRepo
	failed     *testutil.FakeFailedRepo
	listings   *testutil.FakeListingRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	failed := testutil.NewFakeFailedRepo()
	queue := testutil.NewFakeQueueRepo(clk)
	queue.Failed = failed
	listings := testutil.NewFakeListingRepo()

	return &fixture{
		interactor: NewInteractor(failed, queue, listings),
		queue:      queue,
		failed:     failed,
		listings:   listings,
	}
}

// deadLetter pushes one item through enqueue -> claim -> permanent fail so a
// real FailedEvent exists.
func (f *fixture) deadLetter(t *testing.T, listing *contracts.Listing, intent domain.Intent) *contracts.FailedEvent {
	t.Helper()

	ctx := context.Background()
	_, _, err := f.queue.Enqueue(ctx, listing.SyncPayload(intent), listing.RemoteID)
	require.NoError(t, err)

	item, err := f.queue.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, item)

	_, err = f.queue.Fail(ctx, item.QueueID, "category rejected", true)
	require.NoError(t, err)

	require.Len(t, f.failed.Events, 1)
	return f.failed.Events[0]
}

func seedListing(listings *testutil.FakeListingRepo) *contracts.Listing {
	listing := &contracts.Listing{
		ListingID:  9,
		RemoteID:   "MKT-9",
		Title:      "Espresso machine",
		PriceCents: 64900,
		Currency:   "EUR",
		Quantity:   1,
		CategoryID: "cat-kitchen",
	}
	listings.Put(listing)
	return listing
}

func TestReplay_UnchangedPayloadReenqueues(t *testing.T) {
	f := newFixture(t)
	listing := seedListing(f.listings)
	event := f.deadLetter(t, listing, domain.IntentUpdate)

	item, err := f.interactor.Execute(context.Background(), &Request{FailedEventID: event.FailedEventID})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, item.Status)
	assert.Equal(t, int64(0), item.Attempts)
	assert.Equal(t, event.PayloadHash, item.PayloadHash)
	assert.Equal(t, "MKT-9", item.RemoteID, "the marketplace item id survives the round trip")
	assert.NotEqual(t, event.QueueID, item.QueueID, "replay must create a fresh row")

	// The dead row is history and stays dead.
	dead, err := f.queue.GetByID(context.Background(), event.QueueID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDead, dead.Status)
}

func TestReplay_ChangedListingRejectedStale(t *testing.T) {
	f := newFixture(t)
	listing := seedListing(f.listings)
	event := f.deadLetter(t, listing, domain.IntentUpdate)

	// Local record moved on since the failure.
	listing.PriceCents = 59900
	f.listings.Put(listing)

	_, err := f.interactor.Execute(context.Background(), &Request{FailedEventID: event.FailedEventID})
	require.ErrorIs(t, err, domain.ErrStaleReplay)

	// No new pending row was written.
	pending, err := f.queue.CountByStatus(context.Background(), domain.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)
}

func TestReplay_DeleteOfGoneListingReplays(t *testing.T) {
	f := newFixture(t)
	listing := seedListing(f.listings)
	event := f.deadLetter(t, listing, domain.IntentDelete)

	f.listings.Delete(listing.ListingID)

	item, err := f.interactor.Execute(context.Background(), &Request{FailedEventID: event.FailedEventID})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentDelete, item.Intent)
}

func TestReplay_UnknownEvent(t *testing.T) {
	f := newFixture(t)

	_, err := f.interactor.Execute(context.Background(), &Request{FailedEventID: "nope"})
	require.ErrorIs(t, err, domain.ErrFailedEventNotFound)
}

func TestReplay_DoubleReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	listing := seedListing(f.listings)
	event := f.deadLetter(t, listing, domain.IntentUpdate)

	first, err := f.interactor.Execute(context.Background(), &Request{FailedEventID: event.FailedEventID})
	require.NoError(t, err)
	second, err := f.interactor.Execute(context.Background(), &Request{FailedEventID: event.FailedEventID})
	require.NoError(t, err)

	assert.Equal(t, first.QueueID, second.QueueID, "second replay must return the already-active row")
}
