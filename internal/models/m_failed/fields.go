package m_failed

// Field name constants for the failed_events table.
const (
	TableName = "failed_events"

	FailedEventID = "failed_event_id"
	QueueID       = "queue_id"
	ListingID     = "listing_id"
	Intent        = "intent"
	RemoteID      = "remote_id"
	Payload       = "payload"
	PayloadHash   = "payload_hash"
	ErrorReason   = "error_reason"
	CreatedAt     = "created_at"
)

var AllColumns = []string{
	FailedEventID,
	QueueID,
	ListingID,
	Intent,
	RemoteID,
	Payload,
	PayloadHash,
	ErrorReason,
	CreatedAt,
}
