package m_revision

// Field name constants for the description_revisions table.
const (
	TableName = "description_revisions"

	ListingID   = "listing_id"
	RevisionID  = "revision_id"
	ContentHash = "content_hash"
	Body        = "body"
	IsCurrent   = "is_current"
	CreatedAt   = "created_at"
)

var AllColumns = []string{
	ListingID,
	RevisionID,
	ContentHash,
	Body,
	IsCurrent,
	CreatedAt,
}
