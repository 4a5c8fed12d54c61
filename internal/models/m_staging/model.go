package m_staging

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for the staging_listings table.
type Model struct{}

func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a Spanner mutation for inserting a staged payload.
// The unique index on (item_id, content_hash) rejects repeated ingests of
// identical payloads; callers map AlreadyExists to a dedupe no-op.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		AllColumns,
		[]interface{}{
			data.StagingID,
			data.ItemID,
			data.SKU,
			data.SourceAPI,
			data.Document,
			data.ContentHash,
			data.FetchedAt,
			data.ProcessedAt,
			data.ProcessStatus,
			data.ProcessError,
			data.Attempts,
		},
	)
}

// UpdateMut creates a Spanner mutation for updating a staged payload.
func (m *Model) UpdateMut(stagingID string, updates map[string]interface{}) *spanner.Mutation {
	if len(updates) == 0 {
		return nil
	}

	columns := make([]string, 0, len(updates)+1)
	values := make([]interface{}, 0, len(updates)+1)

	columns = append(columns, StagingID)
	values = append(values, stagingID)

	for col, val := range updates {
		columns = append(columns, col)
		values = append(values, val)
	}

	return spanner.Update(TableName, columns, values)
}
