package retrieve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/reconcile"
	"github.com/light-bringer/listsync-service/internal/pkg/clock"
	"github.com/light-bringer/listsync-service/internal/remote"
	"github.com/light-bringer/listsync-service/tests/testutil"
)

type fixture struct {
	interactor *Interactor
	staging    *testutil.FakeStagingRepo
	listings   *testutil.FakeListingRepo
	drift      *testutil.FakeDriftRepo
	client     *remote.MockClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	staging := testutil.NewFakeStagingRepo(clk)
	listings := testutil.NewFakeListingRepo()
	snaps := testutil.NewFakeSnapshotRepo()
	drift := testutil.NewFakeDriftRepo()
	client := remote.NewMockClient()

	reconciler := reconcile.NewInteractor(listings, snaps, drift, client, clk, time.Hour)
	return &fixture{
		interactor: NewInteractor(staging, client, listings, reconciler),
		staging:    staging,
		listings:   listings,
		drift:      drift,
		client:     client,
	}
}

func TestRetrieve_StagesInventory(t *testing.T) {
	f := newFixture(t)
	f.client.InventoryItems = []remote.Item{
		{ItemID: "MKT-1", SKU: "SKU-1", Document: []byte(`{"item_id":"MKT-1","title":"one"}`)},
		{ItemID: "MKT-2", SKU: "SKU-2", Document: []byte(`{"item_id":"MKT-2","title":"two"}`)},
	}

	result, err := f.interactor.Execute(context.Background(), &Request{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.Staged)
	assert.Equal(t, 0, result.Deduped)

	pending, err := f.staging.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestRetrieve_RepeatedPullDedupes(t *testing.T) {
	f := newFixture(t)
	f.client.InventoryItems = []remote.Item{
		{ItemID: "MKT-1", Document: []byte(`{"item_id":"MKT-1","title":"one"}`)},
	}

	first, err := f.interactor.Execute(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Staged)

	second, err := f.interactor.Execute(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Staged)
	assert.Equal(t, 1, second.Deduped)
}

func TestRetrieve_ChangedContentStagesAgain(t *testing.T) {
	f := newFixture(t)
	f.client.InventoryItems = []remote.Item{
		{ItemID: "MKT-1", Document: []byte(`{"item_id":"MKT-1","title":"one"}`)},
	}

	_, err := f.interactor.Execute(context.Background(), &Request{})
	require.NoError(t, err)

	f.client.InventoryItems[0].Document = []byte(`{"item_id":"MKT-1","title":"one, revised"}`)

	second, err := f.interactor.Execute(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Staged, "changed content is a new staging row")
}

func TestRetrieve_DryRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.client.InventoryItems = []remote.Item{
		{ItemID: "MKT-1", Document: []byte(`{"item_id":"MKT-1"}`)},
	}

	result, err := f.interactor.Execute(context.Background(), &Request{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Staged)

	pending, err := f.staging.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRetrieve_MalformedDocumentSkipped(t *testing.T) {
	f := newFixture(t)
	f.client.InventoryItems = []remote.Item{
		{ItemID: "MKT-1", Document: []byte(`{not json`)},
		{ItemID: "MKT-2", Document: []byte(`{"item_id":"MKT-2"}`)},
	}

	result, err := f.interactor.Execute(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Staged)
}

func TestRetrieve_TargetedStagesAndReconciles(t *testing.T) {
	f := newFixture(t)
	f.listings.Put(&contracts.Listing{
		ListingID:  9,
		RemoteID:   "MKT-9",
		Title:      "Espresso machine",
		PriceCents: 64900,
		Currency:   "EUR",
		Quantity:   1,
		CategoryID: "cat-kitchen",
	})
	// The marketplace shows a different price, and no snapshot baseline
	// exists, so reconciliation must record a drift event.
	f.client.SetListing("MKT-9", []byte(`{"item_id":"MKT-9","title":"Espresso machine","price_cents":59900,"currency":"EUR","quantity":1,"category_id":"cat-kitchen"}`))

	result, err := f.interactor.Execute(context.Background(), &Request{RemoteIDs: []string{"MKT-9"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Staged)
	assert.Equal(t, 1, result.Reconciled)
	assert.Equal(t, 1, result.Drifted)

	pending, err := f.staging.ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "MKT-9", pending[0].ItemID)
	assert.Equal(t, "listing", pending[0].SourceAPI)

	require.Len(t, f.drift.Events, 1)
	assert.Equal(t, int64(9), f.drift.Events[0].ListingID)
}

func TestRetrieve_TargetedUnmappedItemStagesOnly(t *testing.T) {
	f := newFixture(t)
	f.client.SetListing("MKT-77", []byte(`{"item_id":"MKT-77","title":"Unmapped"}`))

	result, err := f.interactor.Execute(context.Background(), &Request{RemoteIDs: []string{"MKT-77"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Staged)
	assert.Equal(t, 0, result.Reconciled, "no local listing means nothing to reconcile")
	assert.Empty(t, f.drift.Events)
}

func TestRetrieve_TargetedFetchFailureSkips(t *testing.T) {
	f := newFixture(t)
	f.client.SetListing("MKT-2", []byte(`{"item_id":"MKT-2","title":"two"}`))

	result, err := f.interactor.Execute(context.Background(), &Request{RemoteIDs: []string{"MKT-1", "MKT-2"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped, "unknown item is skipped, not fatal")
	assert.Equal(t, 1, result.Staged)
}

func TestRetrieve_TargetedDryRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.listings.Put(&contracts.Listing{ListingID: 9, RemoteID: "MKT-9", Title: "Espresso machine", PriceCents: 64900, Currency: "EUR", Quantity: 1, CategoryID: "cat-kitchen"})
	f.client.SetListing("MKT-9", []byte(`{"item_id":"MKT-9","title":"Espresso machine"}`))

	result, err := f.interactor.Execute(context.Background(), &Request{RemoteIDs: []string{"MKT-9"}, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Staged)
	assert.Equal(t, 0, result.Reconciled)

	pending, err := f.staging.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Empty(t, f.drift.Events)
}
