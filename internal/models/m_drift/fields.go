package m_drift

// Field name constants for the drift_events table.
const (
	TableName = "drift_events"

	EventID        = "event_id"
	ListingID      = "listing_id"
	Classification = "classification"
	LocalHash      = "local_hash"
	RemoteHash     = "remote_hash"
	SnapshotHash   = "snapshot_hash"
	Details        = "details"
	CreatedAt      = "created_at"
)

var AllColumns = []string{
	EventID,
	ListingID,
	Classification,
	LocalHash,
	RemoteHash,
	SnapshotHash,
	Details,
	CreatedAt,
}
