package retrieve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/reconcile"
	"github.com/light-bringer/listsync-service/internal/pkg/canonical"
	"github.com/light-bringer/listsync-service/internal/remote"
)

// Request controls one pull. With RemoteIDs set, exactly those marketplace
// items are fetched, staged, and reconciled against their local listings;
// empty RemoteIDs pulls the whole inventory page instead.
type Request struct {
	RemoteIDs []string
	Limit     int
	DryRun    bool
}

// Result summarizes one pull: how many documents came back, how many new
// staging rows were written, how many were dropped as already staged, and
// for targeted pulls how many listings were reconciled and found drifted.
type Result struct {
	Fetched    int `json:"fetched"`
	Staged     int `json:"staged"`
	Deduped    int `json:"deduped"`
	Skipped    int `json:"skipped"`
	Reconciled int `json:"reconciled"`
	Drifted    int `json:"drifted"`
}

// Interactor pulls marketplace documents into the staging table and, for
// targeted pulls, runs the per-listing reconciliation on the fetched items.
type Interactor struct {
	staging    contracts.StagingRepository
	client     remote.Client
	listings   contracts.ListingReader
	reconciler *reconcile.Interactor
}

// NewInteractor creates a new retrieve interactor.
func NewInteractor(
	staging contracts.StagingRepository,
	client remote.Client,
	listings contracts.ListingReader,
	reconciler *reconcile.Interactor,
) *Interactor {
	return &Interactor{
		staging:    staging,
		client:     client,
		listings:   listings,
		reconciler: reconciler,
	}
}

// Execute dispatches on the request shape. Dry-run fetches and counts but
// writes nothing and reconciles nothing.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*Result, error) {
	if len(req.RemoteIDs) > 0 {
		return i.pullTargeted(ctx, req)
	}
	return i.pullInventory(ctx, req)
}

// pullInventory stages up to Limit listings from the account inventory,
// deduplicated on (item id, content hash).
func (i *Interactor) pullInventory(ctx context.Context, req *Request) (*Result, error) {
	items, err := i.client.FetchInventory(ctx, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("inventory fetch failed: %w", err)
	}

	result := &Result{Fetched: len(items)}
	for _, item := range items {
		i.stageDocument(ctx, result, item.ItemID, item.SKU, "inventory", item.Document, req.DryRun)
	}
	return result, nil
}

// pullTargeted fetches each named item individually, stages it, and
// reconciles the local listing it maps to. A fetch failure skips the item
// the same way the sweep does; an id with no local listing stages without
// reconciling.
func (i *Interactor) pullTargeted(ctx context.Context, req *Request) (*Result, error) {
	result := &Result{}
	for _, remoteID := range req.RemoteIDs {
		doc, err := i.client.FetchListing(ctx, remoteID)
		if err != nil {
			log.Printf("retrieve: skipping item %s, fetch failed: %v", remoteID, err)
			result.Skipped++
			continue
		}
		result.Fetched++

		itemID, sku := documentHead(doc, remoteID)
		i.stageDocument(ctx, result, itemID, sku, "listing", doc, req.DryRun)

		if req.DryRun {
			continue
		}
		if err := i.reconcileRemote(ctx, result, remoteID); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (i *Interactor) stageDocument(ctx context.Context, result *Result, itemID, sku, sourceAPI string, doc []byte, dryRun bool) {
	hash, err := canonical.HashRaw(doc)
	if err != nil {
		log.Printf("retrieve: skipping item %s, malformed document: %v", itemID, err)
		result.Skipped++
		return
	}

	if dryRun {
		result.Staged++
		return
	}

	created, err := i.staging.Stage(ctx, &contracts.StagedListing{
		ItemID:      itemID,
		SKU:         sku,
		SourceAPI:   sourceAPI,
		Document:    doc,
		ContentHash: hash,
	})
	if err != nil {
		log.Printf("retrieve: staging item %s failed: %v", itemID, err)
		result.Skipped++
		return
	}
	if created {
		result.Staged++
	} else {
		result.Deduped++
	}
}

func (i *Interactor) reconcileRemote(ctx context.Context, result *Result, remoteID string) error {
	listing, err := i.listings.GetByRemoteID(ctx, remoteID)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			// Not mapped locally yet; staging it above is all there is to do.
			return nil
		}
		return err
	}

	res, err := i.reconciler.Execute(ctx, &reconcile.Request{ListingID: listing.ListingID})
	if err != nil {
		return fmt.Errorf("reconcile of listing %d failed: %w", listing.ListingID, err)
	}
	result.Reconciled++
	if res.Event != nil {
		result.Drifted++
	}
	return nil
}

// documentHead pulls the identifying fields off a raw marketplace document,
// falling back to the requested id when the document omits its own.
func documentHead(doc []byte, fallbackID string) (itemID, sku string) {
	var head struct {
		ItemID string `json:"item_id"`
		SKU    string `json:"sku"`
	}
	if err := json.Unmarshal(doc, &head); err == nil && head.ItemID != "" {
		return head.ItemID, head.SKU
	}
	return fallbackID, ""
}
