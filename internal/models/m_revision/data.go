package m_revision

import "time"

// Data represents the database model for the description_revisions table:
// append-only versioned history of a listing's description, with exactly one
// current revision per listing.
type Data struct {
	ListingID   int64
	RevisionID  string
	ContentHash string
	Body        string
	IsCurrent   bool
	CreatedAt   time.Time
}
