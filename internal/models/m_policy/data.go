package m_policy

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the policy_cache table, keyed by
// (policy_type, remote_id).
type Data struct {
	PolicyType  string
	RemoteID    string
	ContentHash string
	Document    spanner.NullJSON
	RefreshedAt time.Time
}
