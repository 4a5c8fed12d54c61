package repo

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/spanner"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/models/m_staging"
	"github.com/light-bringer/listsync-service/internal/pkg/clock"
)

// StagingRepo implements StagingRepository for Spanner.
type StagingRepo struct {
	client *spanner.Client
	model  *m_staging.Model
	clock  clock.Clock
}

// NewStagingRepo creates a new StagingRepo.
func NewStagingRepo(client *spanner.Client, clk clock.Clock) contracts.StagingRepository {
	return &StagingRepo{
		client: client,
		model:  m_staging.NewModel(),
		clock:  clk,
	}
}

// Stage inserts a raw payload. The unique index on (item_id, content_hash)
// turns a repeated ingest of an identical payload into an AlreadyExists
// error, which is reported as a dedupe no-op.
func (r *StagingRepo) Stage(ctx context.Context, staged *contracts.StagedListing) (bool, error) {
	if staged.StagingID == "" {
		staged.StagingID = uuid.New().String()
	}
	staged.FetchedAt = r.clock.Now()
	staged.ProcessStatus = m_staging.StatusPending

	data := &m_staging.Data{
		StagingID:     staged.StagingID,
		ItemID:        staged.ItemID,
		SKU:           nullString(staged.SKU),
		SourceAPI:     nullString(staged.SourceAPI),
		Document:      rawJSON(staged.Document),
		ContentHash:   staged.ContentHash,
		FetchedAt:     staged.FetchedAt,
		ProcessStatus: staged.ProcessStatus,
		Attempts:      0,
	}

	_, err := r.client.Apply(ctx, []*spanner.Mutation{r.model.InsertMut(data)})
	if err != nil {
		if spanner.ErrCode(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, fmt.Errorf("failed to stage payload: %w", err)
	}
	return true, nil
}

// ListPending returns unprocessed staged payloads, oldest first.
func (r *StagingRepo) ListPending(ctx context.Context, limit int64) ([]*contracts.StagedListing, error) {
	if limit <= 0 {
		limit = 100
	}

	stmt := spanner.Statement{
		SQL: `SELECT ` + strings.Join(m_staging.AllColumns, ", ") + ` FROM ` + m_staging.TableName + `
			WHERE process_status = @status
			ORDER BY fetched_at ASC
			LIMIT @limit`,
		Params: map[string]interface{}{
			"status": m_staging.StatusPending,
			"limit":  limit,
		},
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var staged []*contracts.StagedListing
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate staged payloads: %w", err)
		}
		item, err := scanStagingRow(row)
		if err != nil {
			return nil, err
		}
		staged = append(staged, item)
	}
	return staged, nil
}

// MarkProcessed stamps a staged payload as mapped.
func (r *StagingRepo) MarkProcessed(ctx context.Context, stagingID string) error {
	return r.mark(ctx, stagingID, m_staging.StatusProcessed, "")
}

// MarkFailed records a mapping failure and bumps the attempt count.
func (r *StagingRepo) MarkFailed(ctx context.Context, stagingID string, cause string) error {
	return r.mark(ctx, stagingID, m_staging.StatusFailed, cause)
}

func (r *StagingRepo) mark(ctx context.Context, stagingID, status, cause string) error {
	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		row, err := txn.ReadRow(ctx, m_staging.TableName, spanner.Key{stagingID}, []string{m_staging.Attempts})
		if err != nil {
			return fmt.Errorf("failed to read staged payload: %w", err)
		}
		var attempts int64
		if err := row.Columns(&attempts); err != nil {
			return fmt.Errorf("failed to parse attempts: %w", err)
		}

		updates := map[string]interface{}{
			m_staging.ProcessStatus: status,
			m_staging.ProcessedAt:   spanner.NullTime{Time: r.clock.Now(), Valid: true},
			m_staging.Attempts:      attempts + 1,
		}
		if cause != "" {
			updates[m_staging.ProcessError] = spanner.NullString{StringVal: cause, Valid: true}
		}
		return txn.BufferWrite([]*spanner.Mutation{r.model.UpdateMut(stagingID, updates)})
	})
	if err != nil {
		return fmt.Errorf("failed to mark staged payload %s: %w", status, err)
	}
	return nil
}

func scanStagingRow(row *spanner.Row) (*contracts.StagedListing, error) {
	var data m_staging.Data
	if err := row.Columns(
		&data.StagingID,
		&data.ItemID,
		&data.SKU,
		&data.SourceAPI,
		&data.Document,
		&data.ContentHash,
		&data.FetchedAt,
		&data.ProcessedAt,
		&data.ProcessStatus,
		&data.ProcessError,
		&data.Attempts,
	); err != nil {
		return nil, fmt.Errorf("failed to scan staged payload: %w", err)
	}

	item := &contracts.StagedListing{
		StagingID:     data.StagingID,
		ItemID:        data.ItemID,
		SKU:           stringValue(data.SKU),
		SourceAPI:     stringValue(data.SourceAPI),
		Document:      jsonBytes(data.Document),
		ContentHash:   data.ContentHash,
		FetchedAt:     data.FetchedAt,
		ProcessStatus: data.ProcessStatus,
		ProcessError:  stringValue(data.ProcessError),
		Attempts:      data.Attempts,
	}
	if data.ProcessedAt.Valid {
		item.ProcessedAt = data.ProcessedAt.Time
	}
	return item, nil
}
