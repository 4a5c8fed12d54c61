package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/models/m_listing"
	"github.com/light-bringer/listsync-service/internal/models/m_revision"
	"github.com/light-bringer/listsync-service/internal/pkg/canonical"
	"github.com/light-bringer/listsync-service/internal/pkg/clock"
)

// ListingRepo implements ListingReader, ListingWriter, and RevisionReader
// for Spanner. The authoritative listing record is owned by the CRUD layer;
// the engine only writes through UpsertFromStaged (the mapper path) and
// otherwise reads.
type ListingRepo struct {
	client    *spanner.Client
	model     *m_listing.Model
	revisions *m_revision.Model
	clock     clock.Clock
}

// NewListingRepo creates a new ListingRepo.
func NewListingRepo(client *spanner.Client, clk clock.Clock) *ListingRepo {
	return &ListingRepo{
		client:    client,
		model:     m_listing.NewModel(),
		revisions: m_revision.NewModel(),
		clock:     clk,
	}
}

// GetByID retrieves a listing by its local ID.
func (r *ListingRepo) GetByID(ctx context.Context, listingID int64) (*contracts.Listing, error) {
	row, err := r.client.Single().ReadRow(ctx, m_listing.TableName, spanner.Key{listingID}, m_listing.AllColumns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}
	return scanListingRow(row)
}

// GetByRemoteID retrieves a listing by its marketplace ID.
func (r *ListingRepo) GetByRemoteID(ctx context.Context, remoteID string) (*contracts.Listing, error) {
	stmt := spanner.Statement{
		SQL:    "SELECT " + strings.Join(m_listing.AllColumns, ", ") + " FROM " + m_listing.TableName + " WHERE remote_id = @remoteID LIMIT 1",
		Params: map[string]interface{}{"remoteID": remoteID},
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query listing by remote id: %w", err)
	}
	return scanListingRow(row)
}

// UpsertFromStaged writes a listing mapped from a staged marketplace payload
// and, when the description changed, appends a new current revision in the
// same transaction.
func (r *ListingRepo) UpsertFromStaged(ctx context.Context, listing *contracts.Listing) error {
	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		now := r.clock.Now()
		muts := make([]*spanner.Mutation, 0, 3)

		createdAt, found, err := r.readCreatedAt(ctx, txn, listing.ListingID)
		if err != nil {
			return err
		}
		if !found {
			createdAt = now
		}

		descHash := canonical.HashBytes([]byte(listing.Description))
		currentID, currentHash, err := r.currentRevision(ctx, txn, listing.ListingID)
		if err != nil {
			return err
		}
		if currentHash != descHash {
			if currentID != "" {
				muts = append(muts, r.revisions.ClearCurrentMut(listing.ListingID, currentID))
			}
			muts = append(muts, r.revisions.InsertMut(&m_revision.Data{
				ListingID:   listing.ListingID,
				RevisionID:  uuid.New().String(),
				ContentHash: descHash,
				Body:        listing.Description,
				IsCurrent:   true,
				CreatedAt:   now,
			}))
		}

		muts = append(muts, r.model.UpsertMut(&m_listing.Data{
			ListingID:        listing.ListingID,
			SKU:              nullString(listing.SKU),
			RemoteID:         nullString(listing.RemoteID),
			Title:            listing.Title,
			PriceCents:       listing.PriceCents,
			Currency:         listing.Currency,
			Quantity:         listing.Quantity,
			Condition:        nullString(listing.Condition),
			Description:      nullString(listing.Description),
			CategoryID:       nullString(listing.CategoryID),
			ShippingPolicyID: nullString(listing.ShippingPolicyID),
			ReturnPolicyID:   nullString(listing.ReturnPolicyID),
			PaymentPolicyID:  nullString(listing.PaymentPolicyID),
			CreatedAt:        createdAt,
			UpdatedAt:        now,
		}))

		return txn.BufferWrite(muts)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert listing: %w", err)
	}
	return nil
}

// ListSyncTargets returns published listings in listing ID order, resuming
// after the given ID so sweeps can page through the whole table.
func (r *ListingRepo) ListSyncTargets(ctx context.Context, limit int64, afterListingID int64) ([]*contracts.Listing, error) {
	if limit <= 0 {
		limit = 100
	}

	stmt := spanner.Statement{
		SQL: `SELECT ` + strings.Join(m_listing.AllColumns, ", ") + ` FROM ` + m_listing.TableName + `
			WHERE remote_id IS NOT NULL AND listing_id > @after
			ORDER BY listing_id ASC
			LIMIT @limit`,
		Params: map[string]interface{}{
			"after": afterListingID,
			"limit": limit,
		},
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var listings []*contracts.Listing
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate sync targets: %w", err)
		}
		listing, err := scanListingRow(row)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// CountForListing returns the length of the description history chain.
func (r *ListingRepo) CountForListing(ctx context.Context, listingID int64) (int64, error) {
	stmt := spanner.Statement{
		SQL:    "SELECT COUNT(*) FROM " + m_revision.TableName + " WHERE listing_id = @listingID",
		Params: map[string]interface{}{"listingID": listingID},
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to count revisions: %w", err)
	}
	var count int64
	if err := row.Columns(&count); err != nil {
		return 0, fmt.Errorf("failed to parse revision count: %w", err)
	}
	return count, nil
}

func (r *ListingRepo) readCreatedAt(ctx context.Context, txn *spanner.ReadWriteTransaction, listingID int64) (time.Time, bool, error) {
	row, err := txn.ReadRow(ctx, m_listing.TableName, spanner.Key{listingID}, []string{m_listing.CreatedAt})
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to read listing created_at: %w", err)
	}
	var t time.Time
	if err := row.Columns(&t); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return t, true, nil
}

func (r *ListingRepo) currentRevision(ctx context.Context, txn *spanner.ReadWriteTransaction, listingID int64) (revisionID, contentHash string, err error) {
	stmt := spanner.Statement{
		SQL: `SELECT revision_id, content_hash FROM ` + m_revision.TableName + `
			WHERE listing_id = @listingID AND is_current = TRUE
			LIMIT 1`,
		Params: map[string]interface{}{"listingID": listingID},
	}

	iter := txn.Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to query current revision: %w", err)
	}
	if err := row.Columns(&revisionID, &contentHash); err != nil {
		return "", "", fmt.Errorf("failed to scan current revision: %w", err)
	}
	return revisionID, contentHash, nil
}

func scanListingRow(row *spanner.Row) (*contracts.Listing, error) {
	var data m_listing.Data
	if err := row.Columns(
		&data.ListingID,
		&data.SKU,
		&data.RemoteID,
		&data.Title,
		&data.PriceCents,
		&data.Currency,
		&data.Quantity,
		&data.Condition,
		&data.Description,
		&data.CategoryID,
		&data.ShippingPolicyID,
		&data.ReturnPolicyID,
		&data.PaymentPolicyID,
		&data.CreatedAt,
		&data.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}

	return &contracts.Listing{
		ListingID:        data.ListingID,
		SKU:              stringValue(data.SKU),
		RemoteID:         stringValue(data.RemoteID),
		Title:            data.Title,
		PriceCents:       data.PriceCents,
		Currency:         data.Currency,
		Quantity:         data.Quantity,
		Condition:        stringValue(data.Condition),
		Description:      stringValue(data.Description),
		CategoryID:       stringValue(data.CategoryID),
		ShippingPolicyID: stringValue(data.ShippingPolicyID),
		ReturnPolicyID:   stringValue(data.ReturnPolicyID),
		PaymentPolicyID:  stringValue(data.PaymentPolicyID),
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}, nil
}
