package http

import (
	"encoding/json"
	"time"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/pkg/canonical"
)

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

type queueItemDTO struct {
	QueueID        string          `json:"queue_id"`
	ListingID      int64           `json:"listing_id"`
	Intent         string          `json:"intent"`
	RemoteID       string          `json:"remote_id,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	PayloadHash    string          `json:"payload_hash"`
	Status         string          `json:"status"`
	Attempts       int64           `json:"attempts"`
	NextAttemptAt  string          `json:"next_attempt_at,omitempty"`
	LeaseExpiresAt string          `json:"lease_expires_at,omitempty"`
	LastError      string          `json:"last_error,omitempty"`
	SnapshotID     string          `json:"snapshot_id,omitempty"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

func toQueueItemDTO(item *contracts.QueueItem) queueItemDTO {
	return queueItemDTO{
		QueueID:        item.QueueID,
		ListingID:      item.ListingID,
		Intent:         string(item.Intent),
		RemoteID:       item.RemoteID,
		Payload:        json.RawMessage(item.Payload),
		PayloadHash:    item.PayloadHash,
		Status:         string(item.Status),
		Attempts:       item.Attempts,
		NextAttemptAt:  formatTime(item.NextAttemptAt),
		LeaseExpiresAt: formatTime(item.LeaseExpiresAt),
		LastError:      item.LastError,
		SnapshotID:     item.SnapshotID,
		CreatedAt:      formatTime(item.CreatedAt),
		UpdatedAt:      formatTime(item.UpdatedAt),
	}
}

type failedEventDTO struct {
	FailedEventID string          `json:"failed_event_id"`
	QueueID       string          `json:"queue_id"`
	ListingID     int64           `json:"listing_id"`
	Intent        string          `json:"intent"`
	RemoteID      string          `json:"remote_id,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	PayloadHash   string          `json:"payload_hash"`
	ErrorReason   string          `json:"error_reason"`
	CreatedAt     string          `json:"created_at"`
}

func toFailedEventDTO(event *contracts.FailedEvent) failedEventDTO {
	return failedEventDTO{
		FailedEventID: event.FailedEventID,
		QueueID:       event.QueueID,
		ListingID:     event.ListingID,
		Intent:        string(event.Intent),
		RemoteID:      event.RemoteID,
		Payload:       json.RawMessage(event.Payload),
		PayloadHash:   event.PayloadHash,
		ErrorReason:   event.ErrorReason,
		CreatedAt:     formatTime(event.CreatedAt),
	}
}

type driftEventDTO struct {
	EventID        string          `json:"event_id"`
	ListingID      int64           `json:"listing_id"`
	Classification string          `json:"classification"`
	LocalHash      string          `json:"local_hash"`
	RemoteHash     string          `json:"remote_hash"`
	SnapshotHash   string          `json:"snapshot_hash"`
	Details        json.RawMessage `json:"details,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

func toDriftEventDTO(event *contracts.DriftEvent) driftEventDTO {
	return driftEventDTO{
		EventID:        event.EventID,
		ListingID:      event.ListingID,
		Classification: string(event.Classification),
		LocalHash:      event.LocalHash,
		RemoteHash:     event.RemoteHash,
		SnapshotHash:   event.SnapshotHash,
		Details:        json.RawMessage(event.Details),
		CreatedAt:      formatTime(event.CreatedAt),
	}
}

type snapshotDTO struct {
	SnapshotID    string          `json:"snapshot_id"`
	ListingID     int64           `json:"listing_id"`
	SourceEvent   string          `json:"source_event"`
	ContentHash   string          `json:"content_hash"`
	RevisionCount int64           `json:"revision_count"`
	Document      json.RawMessage `json:"document,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

func toSnapshotDTO(snap *contracts.Snapshot) snapshotDTO {
	return snapshotDTO{
		SnapshotID:    snap.SnapshotID,
		ListingID:     snap.ListingID,
		SourceEvent:   snap.SourceEvent,
		ContentHash:   snap.ContentHash,
		RevisionCount: snap.RevisionCount,
		Document:      json.RawMessage(snap.Document),
		CreatedAt:     formatTime(snap.CreatedAt),
	}
}

type policyEntryDTO struct {
	PolicyType  string          `json:"policy_type"`
	RemoteID    string          `json:"remote_id"`
	ContentHash string          `json:"content_hash"`
	Document    json.RawMessage `json:"document,omitempty"`
	RefreshedAt string          `json:"refreshed_at"`
}

func toPolicyEntryDTO(entry *contracts.PolicyEntry) policyEntryDTO {
	return policyEntryDTO{
		PolicyType:  entry.PolicyType,
		RemoteID:    entry.RemoteID,
		ContentHash: entry.ContentHash,
		Document:    json.RawMessage(entry.Document),
		RefreshedAt: formatTime(entry.RefreshedAt),
	}
}

type diffResponse struct {
	A       snapshotDTO                 `json:"a"`
	B       snapshotDTO                 `json:"b"`
	Changes map[string]canonical.Change `json:"changes"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
