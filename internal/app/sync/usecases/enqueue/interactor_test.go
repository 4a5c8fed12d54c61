package enqueue

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

func newFixture(t *testing.T) (*Interactor, *testutil.FakeQueueRepo, *testutil.FakeListingRepo) {
	t.Helper()

	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	queue := testutil.NewFakeQueueRepo(clk)
	listings := testutil.NewFakeListingRepo()
	return NewInteractor(queue, listings), queue, listings
}

func seedListing(listings *testutil.FakeListingRepo) *contracts.Listing {
	listing := &contracts.Listing{
		ListingID:  42,
		RemoteID:   "MKT-42",
		Title:      "Vintage amplifier",
		PriceCents: 45000,
		Currency:   "USD",
		Quantity:   1,
		CategoryID: "cat-audio",
	}
	listings.Put(listing)
	return listing
}

func TestEnqueue_CreatesPendingItem(t *testing.T) {
	interactor, _, listings := newFixture(t)
	seedListing(listings)

	result, err := interactor.Execute(context.Background(), &Request{ListingID: 42, Intent: domain.IntentUpdate})
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, domain.StatusPending, result.Item.Status)
	assert.Equal(t, domain.IntentUpdate, result.Item.Intent)
	assert.Equal(t, "MKT-42", result.Item.RemoteID, "the row carries the marketplace item id")
	assert.NotEmpty(t, result.Item.PayloadHash)
	assert.NotEmpty(t, result.Item.Payload)
}

func TestEnqueue_NeverPublishedUpdateRejected(t *testing.T) {
	interactor, queue, listings := newFixture(t)
	listing := seedListing(listings)
	listing.RemoteID = ""
	listings.Put(listing)

	_, err := interactor.Execute(context.Background(), &Request{ListingID: 42, Intent: domain.IntentUpdate})
	require.ErrorIs(t, err, domain.ErrMissingRemoteID)
	assert.True(t, domain.IsValidation(err))

	// Create needs no remote id; the marketplace assigns one.
	result, err := interactor.Execute(context.Background(), &Request{ListingID: 42, Intent: domain.IntentCreate})
	require.NoError(t, err)
	assert.True(t, result.Created)

	depth, err := queue.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)
}

func TestEnqueue_IdenticalContentDedupes(t *testing.T) {
	interactor, _, listings := newFixture(t)
	seedListing(listings)

	first, err := interactor.Execute(context.Background(), &Request{ListingID: 42, Intent: domain.IntentUpdate})
	require.NoError(t, err)
	second, err := interactor.Execute(context.Background(), &Request{ListingID: 42, Intent: domain.IntentUpdate})
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.Item.QueueID, second.Item.QueueID)
}

func TestEnqueue_ChangedContentCreatesSecondItem(t *testing.T) {
	interactor, _, listings := newFixture(t)
	listing := seedListing(listings)

	first, err := interactor.Execute(context.Background(), &Request{ListingID: 42, Intent: domain.IntentUpdate})
	require.NoError(t, err)

	listing.PriceCents = 39999
	listings.Put(listing)

	second, err := interactor.Execute(context.Background(), &Request{ListingID: 42, Intent: domain.IntentUpdate})
	require.NoError(t, err)

	assert.True(t, second.Created)
	assert.NotEqual(t, first.Item.QueueID, second.Item.QueueID)
}

func TestEnqueue_InvalidIntent(t *testing.T) {
	interactor, _, listings := newFixture(t)
	seedListing(listings)

	_, err := interactor.Execute(context.Background(), &Request{ListingID: 42, Intent: "promote"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestEnqueue_InvalidListingRejected(t *testing.T) {
	interactor, queue, listings := newFixture(t)
	listing := seedListing(listings)
	listing.PriceCents = 0
	listings.Put(listing)

	_, err := interactor.Execute(context.Background(), &Request{ListingID: 42, Intent: domain.IntentCreate})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err), "invalid payloads must never reach the queue")

	depth, err := queue.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), depth)
}

func TestEnqueue_DeleteOfMissingListing(t *testing.T) {
	interactor, _, _ := newFixture(t)

	// No local record left to read the item id from; the request must name it.
	_, err := interactor.Execute(context.Background(), &Request{ListingID: 99, Intent: domain.IntentDelete})
	require.ErrorIs(t, err, domain.ErrMissingRemoteID)

	result, err := interactor.Execute(context.Background(), &Request{ListingID: 99, Intent: domain.IntentDelete, RemoteID: "MKT-99"})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, domain.IntentDelete, result.Item.Intent)
	assert.Equal(t, "MKT-99", result.Item.RemoteID)
}

func TestEnqueue_MissingListing(t *testing.T) {
	interactor, _, _ := newFixture(t)

	_, err := interactor.Execute(context.Background(), &Request{ListingID: 99, Intent: domain.IntentUpdate})
	require.ErrorIs(t, err, domain.ErrListingNotFound)
}
