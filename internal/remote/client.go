// Package remote abstracts the marketplace API. The engine only ever talks
// to the marketplace through the Client interface, so tests and offline runs
// can swap in the mock.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
)

// PublishResult carries the marketplace's acknowledgement of a publish.
type PublishResult struct {
	RemoteID string
}

// Item is one raw listing document pulled from the marketplace inventory.
type Item struct {
	ItemID   string
	SKU      string
	Document []byte
}

// Error is a classified marketplace failure. Transient errors (timeouts,
// throttling, 5xx) are retried with backoff; permanent errors (validation
// rejections, other 4xx) are not.
type Error struct {
	StatusCode int
	Message    string
	Transient  bool
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("marketplace error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("marketplace error: %s", e.Message)
}

// IsTransient reports whether err should be retried. Unclassified errors
// count as transient so that network blips never dead-letter an item.
func IsTransient(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Transient
	}
	return true
}

// Client is the marketplace API surface the engine depends on.
type Client interface {
	// Publish pushes one canonical listing payload for the given intent and
	// returns the marketplace-assigned ID. remoteID addresses the existing
	// marketplace item; update and delete require it, create and relist
	// ignore it.
	Publish(ctx context.Context, intent domain.Intent, remoteID string, payload []byte) (*PublishResult, error)

	// FetchListing retrieves the marketplace's current document for an item.
	FetchListing(ctx context.Context, remoteID string) ([]byte, error)

	// FetchPolicy retrieves one account-level policy document.
	FetchPolicy(ctx context.Context, policyType, remoteID string) ([]byte, error)

	// FetchInventory pages through the account's active listings.
	FetchInventory(ctx context.Context, limit int) ([]Item, error)
}
