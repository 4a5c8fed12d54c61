package m_snapshot

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for operations on the snapshots table.
// Snapshots are immutable: the facade only inserts, never updates.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a Spanner mutation for inserting a snapshot.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		AllColumns,
		[]interface{}{
			data.SnapshotID,
			data.ListingID,
			data.SourceEvent,
			data.ContentHash,
			data.RevisionCount,
			data.Document,
			spanner.CommitTimestamp,
		},
	)
}

// DeleteMut creates a Spanner mutation for deleting a snapshot.
// Only the retention cleanup job uses this.
func (m *Model) DeleteMut(snapshotID string) *spanner.Mutation {
	return spanner.Delete(TableName, spanner.Key{snapshotID})
}
