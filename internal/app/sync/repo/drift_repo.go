package repo

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/spanner"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/models/m_drift"
)

// DriftEventRepo implements DriftEventRepository for Spanner.
type DriftEventRepo struct {
	client *spanner.Client
	model  *m_drift.Model
}

// NewDriftEventRepo creates a new DriftEventRepo.
func NewDriftEventRepo(client *spanner.Client) contracts.DriftEventRepository {
	return &DriftEventRepo{
		client: client,
		model:  m_drift.NewModel(),
	}
}

// Insert appends one drift event.
func (r *DriftEventRepo) Insert(ctx context.Context, event *contracts.DriftEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}

	data := &m_drift.Data{
		EventID:        event.EventID,
		ListingID:      event.ListingID,
		Classification: string(event.Classification),
		LocalHash:      nullString(event.LocalHash),
		RemoteHash:     nullString(event.RemoteHash),
		SnapshotHash:   nullString(event.SnapshotHash),
		Details:        rawJSON(event.Details),
	}

	_, err := r.client.Apply(ctx, []*spanner.Mutation{r.model.InsertMut(data)})
	if err != nil {
		return fmt.Errorf("failed to insert drift event: %w", err)
	}
	return nil
}

// List retrieves drift events newest first with limit/offset pagination.
func (r *DriftEventRepo) List(ctx context.Context, filter contracts.ListFilter) ([]*contracts.DriftEvent, error) {
	stmt := listStatement(m_drift.TableName, strings.Join(m_drift.AllColumns, ", "), filter)

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var events []*contracts.DriftEvent
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate drift events: %w", err)
		}

		var data m_drift.Data
		if err := row.Columns(
			&data.EventID,
			&data.ListingID,
			&data.Classification,
			&data.LocalHash,
			&data.RemoteHash,
			&data.SnapshotHash,
			&data.Details,
			&data.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan drift event: %w", err)
		}

		events = append(events, &contracts.DriftEvent{
			EventID:        data.EventID,
			ListingID:      data.ListingID,
			Classification: domain.Classification(data.Classification),
			LocalHash:      stringValue(data.LocalHash),
			RemoteHash:     stringValue(data.RemoteHash),
			SnapshotHash:   stringValue(data.SnapshotHash),
			Details:        jsonBytes(data.Details),
			CreatedAt:      data.CreatedAt,
		})
	}
	return events, nil
}

func nullString(s string) spanner.NullString {
	return spanner.NullString{StringVal: s, Valid: s != ""}
}

func stringValue(ns spanner.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.StringVal
}
