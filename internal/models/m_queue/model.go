package m_queue

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for type-safe operations on the change_queue table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a Spanner mutation for inserting a queue item.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		AllColumns,
		[]interface{}{
			data.QueueID,
			data.ListingID,
			data.Intent,
			data.RemoteID,
			data.Payload,
			data.PayloadHash,
			data.Status,
			data.Attempts,
			data.NextAttemptAt,
			data.LeaseExpiresAt,
			data.LastError,
			data.SnapshotID,
			spanner.CommitTimestamp,
			data.UpdatedAt,
		},
	)
}

// UpdateMut creates a Spanner mutation for updating a queue item.
func (m *Model) UpdateMut(queueID string, updates map[string]interface{}) *spanner.Mutation {
	if len(updates) == 0 {
		return nil
	}

	columns := make([]string, 0, len(updates)+1)
	values := make([]interface{}, 0, len(updates)+1)

	columns = append(columns, QueueID)
	values = append(values, queueID)

	for col, val := range updates {
		columns = append(columns, col)
		values = append(values, val)
	}

	return spanner.Update(TableName, columns, values)
}

// DeleteMut creates a Spanner mutation for deleting a queue item.
func (m *Model) DeleteMut(queueID string) *spanner.Mutation {
	return spanner.Delete(TableName, spanner.Key{queueID})
}
