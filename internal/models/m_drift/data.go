package m_drift

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the drift_events table.
// Rows are append-only; a later event for the same listing supersedes an
// earlier one in meaning but never replaces it.
type Data struct {
	EventID        string
	ListingID      int64
	Classification string
	LocalHash      spanner.NullString
	RemoteHash     spanner.NullString
	SnapshotHash   spanner.NullString
	Details        spanner.NullJSON
	CreatedAt      time.Time
}
