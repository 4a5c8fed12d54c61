package m_queue

// Field name constants for the change_queue table.
const (
	TableName = "change_queue"

	QueueID        = "queue_id"
	ListingID      = "listing_id"
	Intent         = "intent"
	RemoteID       = "remote_id"
	Payload        = "payload"
	PayloadHash    = "payload_hash"
	Status         = "status"
	Attempts       = "attempts"
	NextAttemptAt  = "next_attempt_at"
	LeaseExpiresAt = "lease_expires_at"
	LastError      = "last_error"
	SnapshotID     = "snapshot_id"
	CreatedAt      = "created_at"
	UpdatedAt      = "updated_at"
)

// AllColumns lists every column in read order.
var AllColumns = []string{
	QueueID,
	ListingID,
	Intent,
	RemoteID,
	Payload,
	PayloadHash,
	Status,
	Attempts,
	NextAttemptAt,
	LeaseExpiresAt,
	LastError,
	SnapshotID,
	CreatedAt,
	UpdatedAt,
}
