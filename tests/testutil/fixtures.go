package testutil

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/listsync-service/internal/models/m_listing"
)

// CreateTestListing creates a published listing directly in the database and
// returns its ID.
func CreateTestListing(t *testing.T, client *spanner.Client, listingID int64, remoteID string) int64 {
	t.Helper()

	ctx := context.Background()
	now := time.Now()

	model := m_listing.NewModel()
	data := &m_listing.Data{
		ListingID:        listingID,
		SKU:              spanner.NullString{StringVal: "SKU-TEST", Valid: true},
		RemoteID:         spanner.NullString{StringVal: remoteID, Valid: remoteID != ""},
		Title:            "Test listing",
		PriceCents:       12999,
		Currency:         "USD",
		Quantity:         3,
		Condition:        spanner.NullString{StringVal: "new", Valid: true},
		Description:      spanner.NullString{StringVal: "A test listing description", Valid: true},
		CategoryID:       spanner.NullString{StringVal: "cat-electronics", Valid: true},
		ShippingPolicyID: spanner.NullString{StringVal: "ship-1", Valid: true},
		ReturnPolicyID:   spanner.NullString{StringVal: "ret-1", Valid: true},
		PaymentPolicyID:  spanner.NullString{StringVal: "pay-1", Valid: true},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err := client.Apply(ctx, []*spanner.Mutation{model.UpsertMut(data)})
	require.NoError(t, err, "failed to create test listing")

	return listingID
}

// UpdateTestListingTitle bumps a listing's title, simulating a local edit.
func UpdateTestListingTitle(t *testing.T, client *spanner.Client, listingID int64, title string) {
	t.Helper()

	ctx := context.Background()
	_, err := client.Apply(ctx, []*spanner.Mutation{
		spanner.Update(m_listing.TableName,
			[]string{m_listing.ListingID, m_listing.Title, m_listing.UpdatedAt},
			[]interface{}{listingID, title, time.Now()}),
	})
	require.NoError(t, err, "failed to update test listing")
}
