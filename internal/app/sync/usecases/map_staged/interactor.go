package map_staged

import (
	"context"
	"errors"
	"hash/fnv"
	"log"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
)

// Request controls one mapping run over pending staged rows.
type Request struct {
	Limit  int64
	DryRun bool
}

// Result summarizes one mapping run.
type Result struct {
	Pending int `json:"pending"`
	Mapped  int `json:"mapped"`
	Failed  int `json:"failed"`
}

// Interactor maps pending staged marketplace payloads onto local listing
// records, maintaining the description revision chain as it goes.
type Interactor struct {
	staging  contracts.StagingRepository
	listings contracts.ListingReader
	writer   contracts.ListingWriter
}

// NewInteractor creates a new map staged interactor.
func NewInteractor(
	staging contracts.StagingRepository,
	listings contracts.ListingReader,
	writer contracts.ListingWriter,
) *Interactor {
	return &Interactor{
		staging:  staging,
		listings: listings,
		writer:   writer,
	}
}

// Execute maps up to Limit pending staged rows. Each row is marked processed
// or failed individually; one unparseable document never aborts the run.
// Dry-run parses and counts but writes nothing.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*Result, error) {
	pending, err := i.staging.ListPending(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	result := &Result{Pending: len(pending)}
	for _, staged := range pending {
		listing, mapErr := i.mapOne(ctx, staged)
		if mapErr != nil {
			result.Failed++
			if req.DryRun {
				continue
			}
			if err := i.staging.MarkFailed(ctx, staged.StagingID, mapErr.Error()); err != nil {
				return result, err
			}
			continue
		}

		result.Mapped++
		if req.DryRun {
			continue
		}
		if err := i.writer.UpsertFromStaged(ctx, listing); err != nil {
			return result, err
		}
		if err := i.staging.MarkProcessed(ctx, staged.StagingID); err != nil {
			return result, err
		}
	}

	if result.Failed > 0 {
		log.Printf("map_staged: %d of %d staged rows failed mapping", result.Failed, result.Pending)
	}
	return result, nil
}

// mapOne parses a staged document and resolves its local identity: an
// existing listing matched by remote ID, or a fresh ID derived from the item
// ID so repeated imports of the same item stay idempotent.
func (i *Interactor) mapOne(ctx context.Context, staged *contracts.StagedListing) (*contracts.Listing, error) {
	payload, itemID, err := domain.PayloadFromRemoteDocument(staged.Document)
	if err != nil {
		return nil, err
	}

	listingID := payload.ListingID
	if listingID == 0 {
		existing, err := i.listings.GetByRemoteID(ctx, itemID)
		switch {
		case err == nil:
			listingID = existing.ListingID
		case errors.Is(err, domain.ErrListingNotFound):
			listingID = deriveListingID(itemID)
		default:
			return nil, err
		}
	}

	sku := payload.SKU
	if sku == "" {
		sku = staged.SKU
	}

	return &contracts.Listing{
		ListingID:        listingID,
		SKU:              sku,
		RemoteID:         itemID,
		Title:            payload.Title,
		PriceCents:       payload.PriceCents,
		Currency:         payload.Currency,
		Quantity:         payload.Quantity,
		Condition:        payload.Condition,
		Description:      payload.Description,
		CategoryID:       payload.CategoryID,
		ShippingPolicyID: payload.PolicyRefs.Shipping,
		ReturnPolicyID:   payload.PolicyRefs.Return,
		PaymentPolicyID:  payload.PolicyRefs.Payment,
	}, nil
}

// deriveListingID maps a marketplace item ID onto a stable local ID for
// imported listings that have no local record yet. FNV-1a keeps the
// derivation deterministic, so re-importing the same item never forks a
// second local record.
func deriveListingID(itemID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(itemID))
	id := int64(h.Sum64() & 0x7fffffffffffffff)
	if id == 0 {
		id = 1
	}
	return id
}
