package m_snapshot

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the snapshots table.
type Data struct {
	SnapshotID    string
	ListingID     int64
	SourceEvent   string
	ContentHash   string
	RevisionCount int64
	Document      spanner.NullJSON
	CreatedAt     time.Time
}
