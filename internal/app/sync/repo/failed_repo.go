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
	"github.com/light-bringer/listsync-service/internal/models/m_failed"
)

// FailedEventRepo implements FailedEventRepository for Spanner. Rows are
// written by QueueRepo.Fail inside the dead-letter transaction; this repo
// only reads them.
type FailedEventRepo struct {
	client *spanner.Client
}

// NewFailedEventRepo creates a new FailedEventRepo.
func NewFailedEventRepo(client *spanner.Client) contracts.FailedEventRepository {
	return &FailedEventRepo{client: client}
}

// GetByID retrieves one failed event.
func (r *FailedEventRepo) GetByID(ctx context.Context, failedEventID string) (*contracts.FailedEvent, error) {
	row, err := r.client.Single().ReadRow(ctx, m_failed.TableName, spanner.Key{failedEventID}, m_failed.AllColumns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrFailedEventNotFound
		}
		return nil, fmt.Errorf("failed to read failed event: %w", err)
	}
	return scanFailedRow(row)
}

// List retrieves failed events newest first with limit/offset pagination.
func (r *FailedEventRepo) List(ctx context.Context, filter contracts.ListFilter) ([]*contracts.FailedEvent, error) {
	stmt := listStatement(m_failed.TableName, strings.Join(m_failed.AllColumns, ", "), filter)

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var events []*contracts.FailedEvent
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate failed events: %w", err)
		}
		event, err := scanFailedRow(row)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// Count returns the total number of failed events.
func (r *FailedEventRepo) Count(ctx context.Context) (int64, error) {
	stmt := spanner.Statement{SQL: "SELECT COUNT(*) FROM " + m_failed.TableName}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to count failed events: %w", err)
	}
	var count int64
	if err := row.Columns(&count); err != nil {
		return 0, fmt.Errorf("failed to parse count: %w", err)
	}
	return count, nil
}

func scanFailedRow(row *spanner.Row) (*contracts.FailedEvent, error) {
	var data m_failed.Data
	if err := row.Columns(
		&data.FailedEventID,
		&data.QueueID,
		&data.ListingID,
		&data.Intent,
		&data.RemoteID,
		&data.Payload,
		&data.PayloadHash,
		&data.ErrorReason,
		&data.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan failed event: %w", err)
	}

	return &contracts.FailedEvent{
		FailedEventID: data.FailedEventID,
		QueueID:       data.QueueID,
		ListingID:     data.ListingID,
		Intent:        domain.Intent(data.Intent),
		RemoteID:      stringValue(data.RemoteID),
		Payload:       jsonBytes(data.Payload),
		PayloadHash:   data.PayloadHash,
		ErrorReason:   stringValue(data.ErrorReason),
		CreatedAt:     data.CreatedAt,
	}, nil
}
