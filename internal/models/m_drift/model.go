package m_drift

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for the append-only drift_events table.
type Model struct{}

func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a Spanner mutation for inserting a drift event.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		AllColumns,
		[]interface{}{
			data.EventID,
			data.ListingID,
			data.Classification,
			data.LocalHash,
			data.RemoteHash,
			data.SnapshotHash,
			data.Details,
			spanner.CommitTimestamp,
		},
	)
}
