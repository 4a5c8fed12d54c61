package m_revision

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for the description_revisions table.
type Model struct{}

func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a Spanner mutation for appending a revision.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		AllColumns,
		[]interface{}{
			data.ListingID,
			data.RevisionID,
			data.ContentHash,
			data.Body,
			data.IsCurrent,
			data.CreatedAt,
		},
	)
}

// ClearCurrentMut creates a mutation that unsets the current flag on a
// revision, so a newer one can take it within the same transaction.
func (m *Model) ClearCurrentMut(listingID int64, revisionID string) *spanner.Mutation {
	return spanner.Update(
		TableName,
		[]string{ListingID, RevisionID, IsCurrent},
		[]interface{}{listingID, revisionID, false},
	)
}
