// Package policycache is a TTL read-through cache for remote account-level
// policy templates (shipping, return, payment). Entries are durable in the
// policy_cache table so a restart does not re-fetch the whole account.
package policycache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/metrics"
	"github.com/light-bringer/listsync-service/internal/pkg/canonical"
	"github.com/light-bringer/listsync-service/internal/pkg/clock"
	"github.com/light-bringer/listsync-service/internal/remote"
)

// PolicyTypes names the account-level policy kinds the engine tracks.
var PolicyTypes = []string{"shipping", "return", "payment"}

// Cache is the TTL read-through policy cache.
type Cache struct {
	repo   contracts.PolicyRepository
	client remote.Client
	clock  clock.Clock
	ttl    time.Duration
}

// New creates a policy cache. ttl bounds how old a cached entry may be
// before a Get triggers a refresh.
func New(repo contracts.PolicyRepository, client remote.Client, clk clock.Clock, ttl time.Duration) *Cache {
	return &Cache{
		repo:   repo,
		client: client,
		clock:  clk,
		ttl:    ttl,
	}
}

// Get returns the cached policy document, refreshing it from the remote side
// when missing or expired. A failed refresh of an expired-but-present entry
// degrades to the stale document rather than an error, so publishing keeps
// working through marketplace policy API outages.
func (c *Cache) Get(ctx context.Context, policyType, remoteID string) (*contracts.PolicyEntry, error) {
	entry, err := c.repo.Get(ctx, policyType, remoteID)
	if err != nil && !errors.Is(err, domain.ErrPolicyNotFound) {
		return nil, err
	}

	if entry != nil && clock.Since(c.clock, entry.RefreshedAt) < c.ttl {
		return entry, nil
	}

	refreshed, refreshErr := c.Refresh(ctx, policyType, remoteID)
	if refreshErr != nil {
		if entry != nil {
			log.Printf("policycache: serving stale %s/%s, refresh failed: %v", policyType, remoteID, refreshErr)
			return entry, nil
		}
		return nil, refreshErr
	}
	return refreshed.Entry, nil
}

// RefreshResult reports what one refresh did.
type RefreshResult struct {
	Entry   *contracts.PolicyEntry
	Changed bool
}

// Refresh fetches the policy from the marketplace and persists it. When the
// fetched content hashes identically to the cached entry only the refresh
// timestamp is advanced; the document write is skipped.
func (c *Cache) Refresh(ctx context.Context, policyType, remoteID string) (*RefreshResult, error) {
	result, err := c.refresh(ctx, policyType, remoteID)
	if err != nil {
		metrics.PolicyRefreshTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	if result.Changed {
		metrics.PolicyRefreshTotal.WithLabelValues("changed").Inc()
	} else {
		metrics.PolicyRefreshTotal.WithLabelValues("unchanged").Inc()
	}
	return result, nil
}

func (c *Cache) refresh(ctx context.Context, policyType, remoteID string) (*RefreshResult, error) {
	doc, err := c.client.FetchPolicy(ctx, policyType, remoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch policy %s/%s: %w", policyType, remoteID, err)
	}

	normalized, err := canonical.Normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("malformed policy document %s/%s: %w", policyType, remoteID, err)
	}
	hash := canonical.HashBytes(normalized)

	existing, err := c.repo.Get(ctx, policyType, remoteID)
	if err != nil && !errors.Is(err, domain.ErrPolicyNotFound) {
		return nil, err
	}

	entry := &contracts.PolicyEntry{
		PolicyType:  policyType,
		RemoteID:    remoteID,
		ContentHash: hash,
		Document:    normalized,
	}
	if existing != nil && existing.ContentHash == hash {
		// Content unchanged; keep the stored document bytes.
		entry.Document = existing.Document
		if err := c.repo.Upsert(ctx, entry); err != nil {
			return nil, err
		}
		return &RefreshResult{Entry: entry, Changed: false}, nil
	}

	if err := c.repo.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	return &RefreshResult{Entry: entry, Changed: true}, nil
}

// RefreshAll re-fetches every cached entry. Failures are collected per key
// so one broken policy does not abort the sweep.
func (c *Cache) RefreshAll(ctx context.Context) (changed, unchanged, failed int, err error) {
	entries, err := c.repo.List(ctx, contracts.ListFilter{Limit: 1000})
	if err != nil {
		return 0, 0, 0, err
	}

	for _, entry := range entries {
		result, refreshErr := c.Refresh(ctx, entry.PolicyType, entry.RemoteID)
		if refreshErr != nil {
			log.Printf("policycache: refresh %s/%s failed: %v", entry.PolicyType, entry.RemoteID, refreshErr)
			failed++
			continue
		}
		if result.Changed {
			changed++
		} else {
			unchanged++
		}
	}
	return changed, unchanged, failed, nil
}
