package contracts

import (
	"time"

	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
)

// QueueItem is one unit of synchronization work, pending through terminal.
type QueueItem struct {
	QueueID        string
	ListingID      int64
	Intent         domain.Intent
	RemoteID       string // marketplace item id; empty until first publish
	Payload        []byte // canonical JSON
	PayloadHash    string
	Status         domain.Status
	Attempts       int64
	NextAttemptAt  time.Time
	LeaseExpiresAt time.Time
	LastError      string
	SnapshotID     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Snapshot is an immutable, content-addressed capture of a listing document.
type Snapshot struct {
	SnapshotID    string
	ListingID     int64
	SourceEvent   string
	ContentHash   string
	RevisionCount int64
	Document      []byte
	CreatedAt     time.Time
}

// DriftEvent is one detected discrepancy between local, remote, and
// last-known-synced state.
type DriftEvent struct {
	EventID        string
	ListingID      int64
	Classification domain.Classification
	LocalHash      string
	RemoteHash     string
	SnapshotHash   string
	Details        []byte // structural diff, JSON
	CreatedAt      time.Time
}

// FailedEvent is the terminal failure record for a dead-lettered queue item.
type FailedEvent struct {
	FailedEventID string
	QueueID       string
	ListingID     int64
	Intent        domain.Intent
	RemoteID      string
	Payload       []byte
	PayloadHash   string
	ErrorReason   string
	CreatedAt     time.Time
}

// PolicyEntry is a cached remote account-level policy template.
type PolicyEntry struct {
	PolicyType  string
	RemoteID    string
	ContentHash string
	Document    []byte
	RefreshedAt time.Time
}

// StagedListing is a raw marketplace payload awaiting mapping.
type StagedListing struct {
	StagingID     string
	ItemID        string
	SKU           string
	SourceAPI     string
	Document      []byte
	ContentHash   string
	FetchedAt     time.Time
	ProcessedAt   time.Time
	ProcessStatus string
	ProcessError  string
	Attempts      int64
}

// Listing is the authoritative local record, owned by the CRUD layer. The
// engine reads it to compute local hashes and to verify replay staleness.
type Listing struct {
	ListingID        int64
	SKU              string
	RemoteID         string
	Title            string
	PriceCents       int64
	Currency         string
	Quantity         int64
	Condition        string
	Description      string
	CategoryID       string
	ShippingPolicyID string
	ReturnPolicyID   string
	PaymentPolicyID  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SyncPayload projects the listing onto its synchronizable fragment for a
// given intent.
func (l *Listing) SyncPayload(intent domain.Intent) *domain.ListingPayload {
	return &domain.ListingPayload{
		ListingID:   l.ListingID,
		Intent:      intent,
		SKU:         l.SKU,
		Title:       l.Title,
		PriceCents:  l.PriceCents,
		Currency:    l.Currency,
		Quantity:    l.Quantity,
		Condition:   l.Condition,
		Description: l.Description,
		CategoryID:  l.CategoryID,
		PolicyRefs: domain.PolicyRefs{
			Shipping: l.ShippingPolicyID,
			Return:   l.ReturnPolicyID,
			Payment:  l.PaymentPolicyID,
		},
	}
}

// ListFilter carries pagination for the admin read endpoints.
type ListFilter struct {
	Status    string
	ListingID int64
	Limit     int64
	Offset    int64
}

// HealthSummary is the operator-facing health snapshot.
type HealthSummary struct {
	QueueDepth         int64 `json:"queue_depth"`
	LastPublishAgeMS   int64 `json:"last_publish_age_ms"`
	DeadQueueCount     int64 `json:"dead_queue_count"`
	FailedEventCount   int64 `json:"failed_event_count"`
	LastPublishMissing bool  `json:"last_publish_missing"`
}
