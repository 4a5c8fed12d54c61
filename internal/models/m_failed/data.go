package m_failed

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the failed_events table. A row is
// the immutable audit record of a dead-lettered queue item and carries the
// replay handle (the originating queue id plus payload hash).
type Data struct {
	FailedEventID string
	QueueID       string
	ListingID     int64
	Intent        string
	RemoteID      spanner.NullString
	Payload       spanner.NullJSON
	PayloadHash   string
	ErrorReason   spanner.NullString
	CreatedAt     time.Time
}
