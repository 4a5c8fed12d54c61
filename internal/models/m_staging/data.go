package m_staging

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the staging_listings table: raw
// marketplace payloads captured prior to mapping into local records.
type Data struct {
	StagingID     string
	ItemID        string
	SKU           spanner.NullString
	SourceAPI     spanner.NullString
	Document      spanner.NullJSON
	ContentHash   string
	FetchedAt     time.Time
	ProcessedAt   spanner.NullTime
	ProcessStatus string
	ProcessError  spanner.NullString
	Attempts      int64
}
