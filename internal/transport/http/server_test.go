package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/diff_snapshots"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/get_policy"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/health"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_dead_letter"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_drift"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_policies"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_queue"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_snapshots"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/enqueue"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/map_staged"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/reconcile"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/refresh_policies"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/replay"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/retrieve"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/retry"
	"github.com/light-bringer/listsync-service/internal/pkg/clock"
	"github.com/light-bringer/listsync-service/internal/policycache"
	"github.com/light-bringer/listsync-service/internal/remote"
	"github.com/light-bringer/listsync-service/tests/testutil"
)

const testOperatorToken = "test-token"

type fixture struct {
	server    *httptest.Server
	queue     *testutil.FakeQueueRepo
	snapshots *testutil.FakeSnapshotRepo
	drift     *testutil.FakeDriftRepo
	failed    *testutil.FakeFailedRepo
	policies  *testutil.FakePolicyRepo
	staging   *testutil.FakeStagingRepo
	listings  *testutil.FakeListingRepo
	client    *remote.MockClient
	clock     *clock.MockClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	snapshots := testutil.NewFakeSnapshotRepo()
	failed := testutil.NewFakeFailedRepo()
	queue := testutil.NewFakeQueueRepo(clk)
	queue.Snapshots = snapshots
	queue.Failed = failed
	drift := testutil.NewFakeDriftRepo()
	policies := testutil.NewFakePolicyRepo(clk)
	staging := testutil.NewFakeStagingRepo(clk)
	listings := testutil.NewFakeListingRepo()
	client := remote.NewMockClient()

	cache := policycache.New(policies, client, clk, time.Hour)
	reconciler := reconcile.NewInteractor(listings, snapshots, drift, client, clk, time.Hour)

	usecases := Usecases{
		Enqueue:         enqueue.NewInteractor(queue, listings),
		Retry:           retry.NewInteractor(queue, listings),
		Replay:          replay.NewInteractor(failed, queue, listings),
		RefreshPolicies: refresh_policies.NewInteractor(cache),
		Retrieve:        retrieve.NewInteractor(staging, client, listings, reconciler),
		MapStaged:       map_staged.NewInteractor(staging, listings, listings),
	}
	queries := Queries{
		ListQueue:      list_queue.NewQuery(queue),
		ListDeadLetter: list_dead_letter.NewQuery(failed),
		ListDrift:      list_drift.NewQuery(drift),
		ListSnapshots:  list_snapshots.NewQuery(snapshots),
		DiffSnapshots:  diff_snapshots.NewQuery(snapshots),
		ListPolicies:   list_policies.NewQuery(policies),
		GetPolicy:      get_policy.NewQuery(cache),
		Health:         health.NewQuery(queue, failed, clk),
	}

	srv := httptest.NewServer(NewServer(usecases, queries, testOperatorToken))
	t.Cleanup(srv.Close)

	return &fixture{
		server:    srv,
		queue:     queue,
		snapshots: snapshots,
		drift:     drift,
		failed:    failed,
		policies:  policies,
		staging:   staging,
		listings:  listings,
		client:    client,
		clock:     clk,
	}
}

func (f *fixture) seedListing(id int64) *contracts.Listing {
	listing := &contracts.Listing{
		ListingID:  id,
		RemoteID:   "MKT-1",
		Title:      "Record crate",
		PriceCents: 4500,
		Currency:   "USD",
		Quantity:   3,
		CategoryID: "cat-storage",
	}
	f.listings.Put(listing)
	return listing
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) post(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Operator-Token", token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestEnqueue_CreatesPendingItem(t *testing.T) {
	f := newFixture(t)
	f.seedListing(7)

	resp := f.post(t, "/queue", enqueueRequest{ListingID: 7, Intent: "create"}, testOperatorToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var item queueItemDTO
	decode(t, resp, &item)
	assert.Equal(t, int64(7), item.ListingID)
	assert.Equal(t, "create", item.Intent)
	assert.Equal(t, "pending", item.Status)
	assert.NotEmpty(t, item.PayloadHash)
}

func TestEnqueue_DuplicateReturnsExistingItem(t *testing.T) {
	f := newFixture(t)
	f.seedListing(7)

	first := f.post(t, "/queue", enqueueRequest{ListingID: 7, Intent: "update"}, testOperatorToken)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	var created queueItemDTO
	decode(t, first, &created)

	second := f.post(t, "/queue", enqueueRequest{ListingID: 7, Intent: "update"}, testOperatorToken)
	require.Equal(t, http.StatusOK, second.StatusCode)
	var deduped queueItemDTO
	decode(t, second, &deduped)
	assert.Equal(t, created.QueueID, deduped.QueueID)
}

func TestEnqueue_ValidationAndLookupErrors(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/queue", enqueueRequest{ListingID: 7, Intent: "promote"}, testOperatorToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.post(t, "/queue", enqueueRequest{ListingID: 404, Intent: "update"}, testOperatorToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWriteEndpointsRequireOperatorToken(t *testing.T) {
	f := newFixture(t)
	f.seedListing(7)

	resp := f.post(t, "/queue", enqueueRequest{ListingID: 7, Intent: "create"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.post(t, "/queue", enqueueRequest{ListingID: 7, Intent: "create"}, "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	depth, err := f.queue.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), depth, "rejected requests enqueue nothing")
}

func TestListQueue_FiltersByStatus(t *testing.T) {
	f := newFixture(t)
	listing := f.seedListing(7)

	_, _, err := f.queue.Enqueue(context.Background(), listing.SyncPayload(domain.IntentUpdate), listing.RemoteID)
	require.NoError(t, err)

	resp := f.get(t, "/queue?status=pending")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list listResponse[queueItemDTO]
	decode(t, resp, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "pending", list.Items[0].Status)

	resp = f.get(t, "/queue?status=dead")
	var empty listResponse[queueItemDTO]
	decode(t, resp, &empty)
	assert.Equal(t, 0, empty.Count)
}

func TestReplay_StatusMapping(t *testing.T) {
	f := newFixture(t)
	listing := f.seedListing(9)

	ctx := context.Background()
	_, _, err := f.queue.Enqueue(ctx, listing.SyncPayload(domain.IntentUpdate), listing.RemoteID)
	require.NoError(t, err)
	item, err := f.queue.Claim(ctx)
	require.NoError(t, err)
	_, err = f.queue.Fail(ctx, item.QueueID, "category rejected", true)
	require.NoError(t, err)
	require.Len(t, f.failed.Events, 1)
	eventID := f.failed.Events[0].FailedEventID

	resp := f.post(t, "/failed-events/unknown/replay", nil, testOperatorToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// A local edit since the failure makes the dead payload stale.
	listing.Title = "Record crate, walnut"
	f.listings.Put(listing)

	resp = f.post(t, "/failed-events/"+eventID+"/replay", nil, testOperatorToken)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRetry_RequiresDeadItem(t *testing.T) {
	f := newFixture(t)
	listing := f.seedListing(9)

	item, _, err := f.queue.Enqueue(context.Background(), listing.SyncPayload(domain.IntentUpdate), listing.RemoteID)
	require.NoError(t, err)

	resp := f.post(t, "/queue/"+item.QueueID+"/retry", nil, testOperatorToken)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "pending items are not replayable")
}

func TestRetry_ErrorItemBecomesClaimable(t *testing.T) {
	f := newFixture(t)
	listing := f.seedListing(9)

	ctx := context.Background()
	item, _, err := f.queue.Enqueue(ctx, listing.SyncPayload(domain.IntentUpdate), listing.RemoteID)
	require.NoError(t, err)
	claimed, err := f.queue.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	_, err = f.queue.Fail(ctx, item.QueueID, "throttled", false)
	require.NoError(t, err)

	resp := f.post(t, "/queue/"+item.QueueID+"/retry", nil, testOperatorToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var dto queueItemDTO
	decode(t, resp, &dto)
	assert.Equal(t, item.QueueID, dto.QueueID)
	assert.Equal(t, "error", dto.Status)

	// The backoff wait is gone; a worker can take the row right away.
	next, err := f.queue.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, item.QueueID, next.QueueID)
}

func TestDiffSnapshots_ReportsChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := &contracts.Snapshot{ListingID: 7, SourceEvent: "publish:create", ContentHash: "h-a",
		Document: []byte(`{"title":"Old","price_cents":100}`), CreatedAt: f.clock.Now()}
	require.NoError(t, f.snapshots.Insert(ctx, a))
	b := &contracts.Snapshot{ListingID: 7, SourceEvent: "publish:update", ContentHash: "h-b",
		Document: []byte(`{"title":"New","price_cents":100}`), CreatedAt: f.clock.Now().Add(time.Minute)}
	require.NoError(t, f.snapshots.Insert(ctx, b))

	resp := f.get(t, "/snapshots/"+a.SnapshotID+"/diff/"+b.SnapshotID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var diff diffResponse
	decode(t, resp, &diff)
	require.Contains(t, diff.Changes, "title")
	assert.Equal(t, "Old", diff.Changes["title"].Before)
	assert.Equal(t, "New", diff.Changes["title"].After)
	assert.NotContains(t, diff.Changes, "price_cents")

	resp = f.get(t, "/snapshots/"+a.SnapshotID+"/diff/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth_ReportsMissingPublish(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary contracts.HealthSummary
	decode(t, resp, &summary)
	assert.True(t, summary.LastPublishMissing)
	assert.Equal(t, int64(0), summary.QueueDepth)
}

func TestRetrieve_DryRunStagesNothing(t *testing.T) {
	f := newFixture(t)
	f.client.InventoryItems = []remote.Item{
		{ItemID: "MKT-1", SKU: "sku-1", Document: []byte(`{"item_id":"MKT-1","title":"One"}`)},
	}

	resp := f.post(t, "/retrieve?dry_run=true", nil, testOperatorToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result retrieve.Result
	decode(t, resp, &result)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Staged)

	pending, err := f.staging.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRetrieve_TargetedItems(t *testing.T) {
	f := newFixture(t)
	f.seedListing(9)
	f.client.SetListing("MKT-1", []byte(`{"item_id":"MKT-1","title":"Record crate","price_cents":3900,"currency":"USD","quantity":3,"category_id":"cat-storage"}`))

	resp := f.post(t, "/retrieve", retrieveRequest{RemoteIDs: []string{"MKT-1"}}, testOperatorToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result retrieve.Result
	decode(t, resp, &result)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Staged)
	assert.Equal(t, 1, result.Reconciled)
	assert.Equal(t, 1, result.Drifted)

	pending, err := f.staging.ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "MKT-1", pending[0].ItemID)
}

func TestRefreshPolicies_SingleKey(t *testing.T) {
	f := newFixture(t)
	f.client.SetPolicy("shipping", "SP-1", []byte(`{"handling_days":2}`))

	resp := f.post(t, "/policies/refresh", refreshPoliciesRequest{PolicyType: "shipping", RemoteID: "SP-1"}, testOperatorToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result refresh_policies.Result
	decode(t, resp, &result)
	assert.Equal(t, 1, result.Changed)

	list := f.get(t, "/policies")
	var entries listResponse[policyEntryDTO]
	decode(t, list, &entries)
	require.Equal(t, 1, entries.Count)
	assert.Equal(t, "shipping", entries.Items[0].PolicyType)
}

func TestGetPolicy_ReadsThroughCache(t *testing.T) {
	f := newFixture(t)
	f.client.SetPolicy("return", "RP-1", []byte(`{"days":30}`))

	// Never refreshed before; the read fetches and stores it.
	resp := f.get(t, "/policies/return/RP-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entry policyEntryDTO
	decode(t, resp, &entry)
	assert.Equal(t, "RP-1", entry.RemoteID)
	assert.NotEmpty(t, entry.ContentHash)

	resp = f.get(t, "/policies/return/RP-MISSING")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpointServes(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
