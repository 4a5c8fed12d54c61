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
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/models/m_snapshot"
)

// SnapshotRepo implements SnapshotRepository for Spanner. Snapshots are
// append-style; nothing here updates or deletes.
type SnapshotRepo struct {
	client *spanner.Client
	model  *m_snapshot.Model
}

// NewSnapshotRepo creates a new SnapshotRepo.
func NewSnapshotRepo(client *spanner.Client) contracts.SnapshotRepository {
	return &SnapshotRepo{
		client: client,
		model:  m_snapshot.NewModel(),
	}
}

// Insert persists a snapshot. Standalone captures (reconcile-produced) use
// this; publish-produced snapshots go through QueueRepo.Complete so they
// commit atomically with the queue-row flip.
func (r *SnapshotRepo) Insert(ctx context.Context, snap *contracts.Snapshot) error {
	if snap.SnapshotID == "" {
		snap.SnapshotID = uuid.New().String()
	}
	_, err := r.client.Apply(ctx, []*spanner.Mutation{r.model.InsertMut(snapshotToData(snap))})
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// GetByID retrieves one snapshot.
func (r *SnapshotRepo) GetByID(ctx context.Context, snapshotID string) (*contracts.Snapshot, error) {
	row, err := r.client.Single().ReadRow(ctx, m_snapshot.TableName, spanner.Key{snapshotID}, m_snapshot.AllColumns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return scanSnapshotRow(row)
}

// Latest returns the most recent snapshot for a listing by capture time.
// Latest-by-timestamp is authoritative even when competing publish intents
// complete out of order.
func (r *SnapshotRepo) Latest(ctx context.Context, listingID int64) (*contracts.Snapshot, error) {
	stmt := spanner.Statement{
		SQL: `SELECT ` + strings.Join(m_snapshot.AllColumns, ", ") + ` FROM ` + m_snapshot.TableName + `
			WHERE listing_id = @listingID
			ORDER BY created_at DESC
			LIMIT 1`,
		Params: map[string]interface{}{"listingID": listingID},
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	return scanSnapshotRow(row)
}

// List retrieves snapshots newest first with limit/offset pagination.
func (r *SnapshotRepo) List(ctx context.Context, filter contracts.ListFilter) ([]*contracts.Snapshot, error) {
	stmt := listStatement(m_snapshot.TableName, strings.Join(m_snapshot.AllColumns, ", "), filter)

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var snaps []*contracts.Snapshot
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
		}
		snap, err := scanSnapshotRow(row)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func snapshotToData(snap *contracts.Snapshot) *m_snapshot.Data {
	return &m_snapshot.Data{
		SnapshotID:    snap.SnapshotID,
		ListingID:     snap.ListingID,
		SourceEvent:   snap.SourceEvent,
		ContentHash:   snap.ContentHash,
		RevisionCount: snap.RevisionCount,
		Document:      rawJSON(snap.Document),
	}
}

func scanSnapshotRow(row *spanner.Row) (*contracts.Snapshot, error) {
	var data m_snapshot.Data
	if err := row.Columns(
		&data.SnapshotID,
		&data.ListingID,
		&data.SourceEvent,
		&data.ContentHash,
		&data.RevisionCount,
		&data.Document,
		&data.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	return &contracts.Snapshot{
		SnapshotID:    data.SnapshotID,
		ListingID:     data.ListingID,
		SourceEvent:   data.SourceEvent,
		ContentHash:   data.ContentHash,
		RevisionCount: data.RevisionCount,
		Document:      jsonBytes(data.Document),
		CreatedAt:     data.CreatedAt,
	}, nil
}
