package m_queue

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the change_queue table.
type Data struct {
	QueueID        string
	ListingID      int64
	Intent         string
	RemoteID       spanner.NullString
	Payload        spanner.NullJSON // JSON column
	PayloadHash    string
	Status         string
	Attempts       int64
	NextAttemptAt  spanner.NullTime
	LeaseExpiresAt spanner.NullTime
	LastError      spanner.NullString
	SnapshotID     spanner.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
