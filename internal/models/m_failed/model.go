package m_failed

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for the failed_events table.
type Model struct{}

func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a Spanner mutation for inserting a failed event.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		AllColumns,
		[]interface{}{
			data.FailedEventID,
			data.QueueID,
			data.ListingID,
			data.Intent,
			data.RemoteID,
			data.Payload,
			data.PayloadHash,
			data.ErrorReason,
			spanner.CommitTimestamp,
		},
	)
}

// DeleteMut creates a Spanner mutation for deleting a failed event.
func (m *Model) DeleteMut(failedEventID string) *spanner.Mutation {
	return spanner.Delete(TableName, spanner.Key{failedEventID})
}
