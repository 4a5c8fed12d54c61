package m_staging

// Field name constants for the staging_listings table.
const (
	TableName = "staging_listings"

	StagingID     = "staging_id"
	ItemID        = "item_id"
	SKU           = "sku"
	SourceAPI     = "source_api"
	Document      = "document"
	ContentHash   = "content_hash"
	FetchedAt     = "fetched_at"
	ProcessedAt   = "processed_at"
	ProcessStatus = "process_status"
	ProcessError  = "process_error"
	Attempts      = "attempts"
)

var AllColumns = []string{
	StagingID,
	ItemID,
	SKU,
	SourceAPI,
	Document,
	ContentHash,
	FetchedAt,
	ProcessedAt,
	ProcessStatus,
	ProcessError,
	Attempts,
}

// Process status constants.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)
