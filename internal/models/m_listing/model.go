package m_listing

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for the listings table.
type Model struct{}

func NewModel() *Model {
	return &Model{}
}

// UpsertMut creates a Spanner mutation that inserts or replaces a listing.
// Used by the staged-payload mapper, which is the only engine-side writer.
func (m *Model) UpsertMut(data *Data) *spanner.Mutation {
	return spanner.InsertOrUpdate(
		TableName,
		AllColumns,
		[]interface{}{
			data.ListingID,
			data.SKU,
			data.RemoteID,
			data.Title,
			data.PriceCents,
			data.Currency,
			data.Quantity,
			data.Condition,
			data.Description,
			data.CategoryID,
			data.ShippingPolicyID,
			data.ReturnPolicyID,
			data.PaymentPolicyID,
			data.CreatedAt,
			data.UpdatedAt,
		},
	)
}
