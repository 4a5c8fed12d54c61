package map_staged

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/pkg/canonical"
	"github.com/light-bringer/listsync-service/internal/pkg/clock"
	"github.com/light-bringer/listsync-service/tests/testutil"
)

func newFixture(t *testing.T) (*Interactor, *testutil.FakeStagingRepo, *testutil.FakeListingRepo) {
	t.Helper()

	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	staging := testutil.NewFakeStagingRepo(clk)
	listings := testutil.NewFakeListingRepo()
	return NewInteractor(staging, listings, listings), staging, listings
}

func stage(t *testing.T, staging *testutil.FakeStagingRepo, itemID string, doc []byte) {
	t.Helper()

	hash, err := canonical.HashRaw(doc)
	require.NoError(t, err)
	created, err := staging.Stage(context.Background(), &contracts.StagedListing{
		ItemID:      itemID,
		Document:    doc,
		ContentHash: hash,
	})
	require.NoError(t, err)
	require.True(t, created)
}

func TestMapStaged_CreatesListing(t *testing.T) {
	interactor, staging, listings := newFixture(t)
	stage(t, staging, "MKT-1", []byte(`{
		"item_id":"MKT-1","sku":"SKU-1","title":"Road bike","price_cents":55000,
		"currency":"USD","quantity":1,"description":"fast","category_id":"cat-bikes"
	}`))

	result, err := interactor.Execute(context.Background(), &Request{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Mapped)
	assert.Equal(t, 0, result.Failed)

	listing, err := listings.GetByRemoteID(context.Background(), "MKT-1")
	require.NoError(t, err)
	assert.Equal(t, "Road bike", listing.Title)
	assert.Equal(t, int64(55000), listing.PriceCents)
	assert.NotZero(t, listing.ListingID)

	count, err := listings.CountForListing(context.Background(), listing.ListingID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "first description spawns the revision chain")

	pending, err := staging.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMapStaged_ReimportIsStable(t *testing.T) {
	interactor, staging, listings := newFixture(t)
	doc := []byte(`{"item_id":"MKT-1","title":"Road bike","price_cents":55000,"currency":"USD","quantity":1,"description":"fast","category_id":"cat-bikes"}`)
	stage(t, staging, "MKT-1", doc)

	_, err := interactor.Execute(context.Background(), &Request{Limit: 10})
	require.NoError(t, err)
	first, err := listings.GetByRemoteID(context.Background(), "MKT-1")
	require.NoError(t, err)

	// Same item comes back with a changed price.
	stage(t, staging, "MKT-1", []byte(`{"item_id":"MKT-1","title":"Road bike","price_cents":49000,"currency":"USD","quantity":1,"description":"fast","category_id":"cat-bikes"}`))
	_, err = interactor.Execute(context.Background(), &Request{Limit: 10})
	require.NoError(t, err)

	second, err := listings.GetByRemoteID(context.Background(), "MKT-1")
	require.NoError(t, err)
	assert.Equal(t, first.ListingID, second.ListingID, "re-import must not fork a second local record")
	assert.Equal(t, int64(49000), second.PriceCents)
}

func TestMapStaged_DescriptionChangeAppendsRevision(t *testing.T) {
	interactor, staging, listings := newFixture(t)
	stage(t, staging, "MKT-1", []byte(`{"item_id":"MKT-1","title":"Bike","price_cents":100,"currency":"USD","quantity":1,"description":"v1","category_id":"c"}`))
	_, err := interactor.Execute(context.Background(), &Request{Limit: 10})
	require.NoError(t, err)

	stage(t, staging, "MKT-1", []byte(`{"item_id":"MKT-1","title":"Bike","price_cents":100,"currency":"USD","quantity":1,"description":"v2","category_id":"c"}`))
	_, err = interactor.Execute(context.Background(), &Request{Limit: 10})
	require.NoError(t, err)

	listing, err := listings.GetByRemoteID(context.Background(), "MKT-1")
	require.NoError(t, err)
	count, err := listings.CountForListing(context.Background(), listing.ListingID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMapStaged_UnparseableDocumentMarkedFailed(t *testing.T) {
	interactor, staging, _ := newFixture(t)

	created, err := staging.Stage(context.Background(), &contracts.StagedListing{
		ItemID:      "MKT-BAD",
		Document:    []byte(`{truncated`),
		ContentHash: "h1",
	})
	require.NoError(t, err)
	require.True(t, created)

	result, err := interactor.Execute(context.Background(), &Request{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Mapped)

	pending, err := staging.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "failed rows leave the pending set")
}

func TestMapStaged_DryRun(t *testing.T) {
	interactor, staging, listings := newFixture(t)
	stage(t, staging, "MKT-1", []byte(`{"item_id":"MKT-1","title":"Bike","price_cents":100,"currency":"USD","quantity":1,"category_id":"c"}`))

	result, err := interactor.Execute(context.Background(), &Request{Limit: 10, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Mapped)

	_, err = listings.GetByRemoteID(context.Background(), "MKT-1")
	require.Error(t, err, "dry run writes nothing")

	pending, err := staging.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "dry run leaves rows pending")
}
