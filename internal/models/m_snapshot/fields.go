package m_snapshot

// Field name constants for the snapshots table.
const (
	TableName = "snapshots"

	SnapshotID    = "snapshot_id"
	ListingID     = "listing_id"
	SourceEvent   = "source_event"
	ContentHash   = "content_hash"
	RevisionCount = "revision_count"
	Document      = "document"
	CreatedAt     = "created_at"
)

var AllColumns = []string{
	SnapshotID,
	ListingID,
	SourceEvent,
	ContentHash,
	RevisionCount,
	Document,
	CreatedAt,
}
