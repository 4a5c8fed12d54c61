package repo

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/models/m_policy"
	"github.com/light-bringer/listsync-service/internal/pkg/clock"
)

// PolicyRepo implements PolicyRepository for Spanner.
type PolicyRepo struct {
	client *spanner.Client
	model  *m_policy.Model
	clock  clock.Clock
}

// NewPolicyRepo creates a new PolicyRepo.
func NewPolicyRepo(client *spanner.Client, clk clock.Clock) contracts.PolicyRepository {
	return &PolicyRepo{
		client: client,
		model:  m_policy.NewModel(),
		clock:  clk,
	}
}

// Get retrieves one cache entry by its composite key.
func (r *PolicyRepo) Get(ctx context.Context, policyType, remoteID string) (*contracts.PolicyEntry, error) {
	row, err := r.client.Single().ReadRow(ctx, m_policy.TableName, spanner.Key{policyType, remoteID}, m_policy.AllColumns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrPolicyNotFound
		}
		return nil, fmt.Errorf("failed to read policy entry: %w", err)
	}
	return scanPolicyRow(row)
}

// Upsert writes a cache entry, stamping the refresh time. Last writer wins
// on concurrent refreshes of the same key.
func (r *PolicyRepo) Upsert(ctx context.Context, entry *contracts.PolicyEntry) error {
	entry.RefreshedAt = r.clock.Now()

	data := &m_policy.Data{
		PolicyType:  entry.PolicyType,
		RemoteID:    entry.RemoteID,
		ContentHash: entry.ContentHash,
		Document:    rawJSON(entry.Document),
		RefreshedAt: entry.RefreshedAt,
	}

	_, err := r.client.Apply(ctx, []*spanner.Mutation{r.model.UpsertMut(data)})
	if err != nil {
		return fmt.Errorf("failed to upsert policy entry: %w", err)
	}
	return nil
}

// List retrieves cache entries ordered by key with limit/offset pagination.
func (r *PolicyRepo) List(ctx context.Context, filter contracts.ListFilter) ([]*contracts.PolicyEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	sql := `SELECT ` + strings.Join(m_policy.AllColumns, ", ") + ` FROM ` + m_policy.TableName + `
		ORDER BY policy_type, remote_id LIMIT @limit`
	params := map[string]interface{}{"limit": limit}
	if filter.Offset > 0 {
		sql += " OFFSET @offset"
		params["offset"] = filter.Offset
	}

	iter := r.client.Single().Query(ctx, spanner.Statement{SQL: sql, Params: params})
	defer iter.Stop()

	var entries []*contracts.PolicyEntry
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate policy entries: %w", err)
		}
		entry, err := scanPolicyRow(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func scanPolicyRow(row *spanner.Row) (*contracts.PolicyEntry, error) {
	var data m_policy.Data
	if err := row.Columns(
		&data.PolicyType,
		&data.RemoteID,
		&data.ContentHash,
		&data.Document,
		&data.RefreshedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan policy entry: %w", err)
	}

	return &contracts.PolicyEntry{
		PolicyType:  data.PolicyType,
		RemoteID:    data.RemoteID,
		ContentHash: data.ContentHash,
		Document:    jsonBytes(data.Document),
		RefreshedAt: data.RefreshedAt,
	}, nil
}
