package m_policy

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for the policy_cache table.
type Model struct{}

func NewModel() *Model {
	return &Model{}
}

// UpsertMut creates a Spanner mutation that inserts or replaces a cache
// entry. Concurrent refreshes of the same key race last-writer-wins, which
// the hash-equality short-circuit upstream makes harmless.
func (m *Model) UpsertMut(data *Data) *spanner.Mutation {
	return spanner.InsertOrUpdate(
		TableName,
		AllColumns,
		[]interface{}{
			data.PolicyType,
			data.RemoteID,
			data.ContentHash,
			data.Document,
			data.RefreshedAt,
		},
	)
}
