package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/models/m_failed"
	"github.com/light-bringer/listsync-service/internal/models/m_queue"
	"github.com/light-bringer/listsync-service/internal/models/m_snapshot"
	"github.com/light-bringer/listsync-service/internal/pkg/clock"
	"github.com/light-bringer/listsync-service/internal/pkg/query"
)

// QueueRepo implements QueueRepository for Spanner. All compare-and-swap
// semantics (idempotent enqueue, single-claimer claim, lease reclaim) live
// here so call sites never race on read-then-write.
type QueueRepo struct {
	client  *spanner.Client
	model   *m_queue.Model
	snaps   *m_snapshot.Model
	failed  *m_failed.Model
	clock   clock.Clock
	backoff domain.BackoffPolicy
	lease   time.Duration
}

// NewQueueRepo creates a new QueueRepo.
func NewQueueRepo(client *spanner.Client, clk clock.Clock, backoff domain.BackoffPolicy, lease time.Duration) contracts.QueueRepository {
	return &QueueRepo{
		client:  client,
		model:   m_queue.NewModel(),
		snaps:   m_snapshot.NewModel(),
		failed:  m_failed.NewModel(),
		clock:   clk,
		backoff: backoff,
		lease:   lease,
	}
}

// Enqueue inserts a pending row unless an active row with the same
// (listing id, payload hash) already exists. Spanner has no partial unique
// indexes, so the invariant is a check-then-insert inside one read-write
// transaction.
func (r *QueueRepo) Enqueue(ctx context.Context, payload *domain.ListingPayload, remoteID string) (*contracts.QueueItem, bool, error) {
	canonicalDoc, hash, err := payload.Canonicalize()
	if err != nil {
		return nil, false, err
	}

	var result *contracts.QueueItem
	var created bool

	_, err = r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		existing, err := r.findActive(ctx, txn, payload.ListingID, hash)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			created = false
			return nil
		}

		now := r.clock.Now()
		item := &contracts.QueueItem{
			QueueID:       uuid.New().String(),
			ListingID:     payload.ListingID,
			Intent:        payload.Intent,
			RemoteID:      remoteID,
			Payload:       canonicalDoc,
			PayloadHash:   hash,
			Status:        domain.StatusPending,
			Attempts:      0,
			NextAttemptAt: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		result = item
		created = true
		return txn.BufferWrite([]*spanner.Mutation{r.insertMut(item)})
	})
	if err != nil {
		return nil, false, fmt.Errorf("enqueue failed: %w", err)
	}

	return result, created, nil
}

// Claim selects the oldest eligible row and flips it to processing under a
// fresh lease, all inside one transaction so no two workers can claim the
// same row. Nothing claimable is an empty result, not an error.
func (r *QueueRepo) Claim(ctx context.Context) (*contracts.QueueItem, error) {
	now := r.clock.Now()
	var claimed *contracts.QueueItem

	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		claimed = nil // transaction may be retried

		stmt := query.From(m_queue.TableName).
			Select(m_queue.AllColumns...).
			Where(query.Or(
				query.And(
					query.In(m_queue.Status, []string{string(domain.StatusPending), string(domain.StatusError)}),
					query.Or(query.IsNull(m_queue.NextAttemptAt), query.Lte(m_queue.NextAttemptAt, now)),
				),
				query.And(
					query.Eq(m_queue.Status, string(domain.StatusProcessing)),
					query.IsNotNull(m_queue.LeaseExpiresAt),
					query.Lt(m_queue.LeaseExpiresAt, now),
				),
			)).
			OrderBy(m_queue.CreatedAt, query.Asc).
			Limit(1).
			Build()

		item, err := queryOne(ctx, txn.Query(ctx, stmt))
		if err != nil || item == nil {
			return err
		}

		item.Status = domain.StatusProcessing
		item.LeaseExpiresAt = now.Add(r.lease)
		item.UpdatedAt = now
		claimed = item

		return txn.BufferWrite([]*spanner.Mutation{
			r.model.UpdateMut(item.QueueID, map[string]interface{}{
				m_queue.Status:         string(domain.StatusProcessing),
				m_queue.LeaseExpiresAt: spanner.NullTime{Time: item.LeaseExpiresAt, Valid: true},
				m_queue.UpdatedAt:      now,
			}),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("claim failed: %w", err)
	}

	return claimed, nil
}

// Complete marks the row complete and persists its snapshot in the same
// transaction, linking the two.
func (r *QueueRepo) Complete(ctx context.Context, queueID string, snap *contracts.Snapshot) error {
	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		item, err := r.readRow(ctx, txn, queueID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(item.Status, domain.StatusComplete) {
			return fmt.Errorf("%w: %s -> complete", domain.ErrInvalidTransition, item.Status)
		}

		if snap.SnapshotID == "" {
			snap.SnapshotID = uuid.New().String()
		}
		now := r.clock.Now()

		return txn.BufferWrite([]*spanner.Mutation{
			r.snaps.InsertMut(snapshotToData(snap)),
			r.model.UpdateMut(queueID, map[string]interface{}{
				m_queue.Status:     string(domain.StatusComplete),
				m_queue.SnapshotID: spanner.NullString{StringVal: snap.SnapshotID, Valid: true},
				m_queue.UpdatedAt:  now,
			}),
		})
	})
	if err != nil {
		return fmt.Errorf("complete failed: %w", err)
	}
	return nil
}

// Fail schedules a retry with backoff, or dead-letters the row and records
// a FailedEvent when the failure is permanent or attempts are exhausted.
func (r *QueueRepo) Fail(ctx context.Context, queueID string, cause string, permanent bool) (*contracts.QueueItem, error) {
	var result *contracts.QueueItem

	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		item, err := r.readRow(ctx, txn, queueID)
		if err != nil {
			return err
		}

		now := r.clock.Now()
		attempts := item.Attempts + 1
		item.Attempts = attempts
		item.LastError = cause
		item.UpdatedAt = now

		if permanent || r.backoff.Exhausted(attempts) {
			if !domain.CanTransition(item.Status, domain.StatusDead) {
				return fmt.Errorf("%w: %s -> dead", domain.ErrInvalidTransition, item.Status)
			}
			item.Status = domain.StatusDead
			result = item

			return txn.BufferWrite([]*spanner.Mutation{
				r.model.UpdateMut(queueID, map[string]interface{}{
					m_queue.Status:    string(domain.StatusDead),
					m_queue.Attempts:  attempts,
					m_queue.LastError: spanner.NullString{StringVal: cause, Valid: true},
					m_queue.UpdatedAt: now,
				}),
				r.failed.InsertMut(&m_failed.Data{
					FailedEventID: uuid.New().String(),
					QueueID:       item.QueueID,
					ListingID:     item.ListingID,
					Intent:        string(item.Intent),
					RemoteID:      spanner.NullString{StringVal: item.RemoteID, Valid: item.RemoteID != ""},
					Payload:       rawJSON(item.Payload),
					PayloadHash:   item.PayloadHash,
					ErrorReason:   spanner.NullString{StringVal: cause, Valid: true},
				}),
			})
		}

		if !domain.CanTransition(item.Status, domain.StatusError) {
			return fmt.Errorf("%w: %s -> error", domain.ErrInvalidTransition, item.Status)
		}
		item.Status = domain.StatusError
		item.NextAttemptAt = now.Add(r.backoff.Delay(attempts))
		result = item

		return txn.BufferWrite([]*spanner.Mutation{
			r.model.UpdateMut(queueID, map[string]interface{}{
				m_queue.Status:        string(domain.StatusError),
				m_queue.Attempts:      attempts,
				m_queue.NextAttemptAt: spanner.NullTime{Time: item.NextAttemptAt, Valid: true},
				m_queue.LastError:     spanner.NullString{StringVal: cause, Valid: true},
				m_queue.UpdatedAt:     now,
			}),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fail transition failed: %w", err)
	}

	return result, nil
}

// InsertFresh inserts a brand-new pending row with attempts reset. The
// active-row uniqueness check still applies, which makes a double replay of
// the same dead item a no-op.
func (r *QueueRepo) InsertFresh(ctx context.Context, listingID int64, intent domain.Intent, remoteID string, payload []byte, payloadHash string) (*contracts.QueueItem, error) {
	var result *contracts.QueueItem

	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		existing, err := r.findActive(ctx, txn, listingID, payloadHash)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		now := r.clock.Now()
		item := &contracts.QueueItem{
			QueueID:       uuid.New().String(),
			ListingID:     listingID,
			Intent:        intent,
			RemoteID:      remoteID,
			Payload:       payload,
			PayloadHash:   payloadHash,
			Status:        domain.StatusPending,
			Attempts:      0,
			NextAttemptAt: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		result = item
		return txn.BufferWrite([]*spanner.Mutation{r.insertMut(item)})
	})
	if err != nil {
		return nil, fmt.Errorf("insert fresh failed: %w", err)
	}

	return result, nil
}

// ResetBackoff clears the backoff wait of an error-status row so the next
// claim can take it immediately. The attempt count stays, so an item already
// near its budget still dead-letters on schedule.
func (r *QueueRepo) ResetBackoff(ctx context.Context, queueID string) (*contracts.QueueItem, error) {
	var result *contracts.QueueItem

	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		item, err := r.readRow(ctx, txn, queueID)
		if err != nil {
			return err
		}
		if item.Status != domain.StatusError {
			return domain.ErrItemNotReplayable
		}

		now := r.clock.Now()
		item.NextAttemptAt = now
		item.UpdatedAt = now
		result = item

		return txn.BufferWrite([]*spanner.Mutation{
			r.model.UpdateMut(queueID, map[string]interface{}{
				m_queue.NextAttemptAt: spanner.NullTime{Time: now, Valid: true},
				m_queue.UpdatedAt:     now,
			}),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reset backoff failed: %w", err)
	}

	return result, nil
}

// GetByID retrieves a queue item by ID.
func (r *QueueRepo) GetByID(ctx context.Context, queueID string) (*contracts.QueueItem, error) {
	row, err := r.client.Single().ReadRow(ctx, m_queue.TableName, spanner.Key{queueID}, m_queue.AllColumns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrQueueItemNotFound
		}
		return nil, fmt.Errorf("failed to read queue item: %w", err)
	}
	return scanQueueRow(row)
}

// List retrieves queue items with optional status/listing filters, newest
// first, paginated via limit/offset.
func (r *QueueRepo) List(ctx context.Context, filter contracts.ListFilter) ([]*contracts.QueueItem, error) {
	stmt := listStatement(m_queue.TableName, strings.Join(m_queue.AllColumns, ", "), filter)

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var items []*contracts.QueueItem
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate queue items: %w", err)
		}
		item, err := scanQueueRow(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Depth counts the rows still owed to the remote side.
func (r *QueueRepo) Depth(ctx context.Context) (int64, error) {
	stmt := query.From(m_queue.TableName).
		Count().
		Where(query.In(m_queue.Status, domain.ActiveStatuses())).
		Build()
	return r.countQuery(ctx, stmt)
}

// CountByStatus counts rows in one status.
func (r *QueueRepo) CountByStatus(ctx context.Context, status domain.Status) (int64, error) {
	stmt := query.From(m_queue.TableName).
		Count().
		Where(query.Eq(m_queue.Status, string(status))).
		Build()
	return r.countQuery(ctx, stmt)
}

// LastCompletedAt returns the update time of the most recent completed
// publish; the boolean is false when nothing has ever completed.
func (r *QueueRepo) LastCompletedAt(ctx context.Context) (time.Time, bool, error) {
	stmt := spanner.Statement{
		SQL:    "SELECT MAX(updated_at) FROM " + m_queue.TableName + " WHERE status = @status",
		Params: map[string]interface{}{"status": string(domain.StatusComplete)},
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query last completed: %w", err)
	}

	var last spanner.NullTime
	if err := row.Columns(&last); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse last completed: %w", err)
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}
	return last.Time, true, nil
}

func (r *QueueRepo) countQuery(ctx context.Context, stmt spanner.Statement) (int64, error) {
	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	var count int64
	if err := row.Columns(&count); err != nil {
		return 0, fmt.Errorf("failed to parse count: %w", err)
	}
	return count, nil
}

// findActive looks for a pending/processing/error row with the same listing
// and payload hash inside the caller's transaction.
func (r *QueueRepo) findActive(ctx context.Context, txn *spanner.ReadWriteTransaction, listingID int64, hash string) (*contracts.QueueItem, error) {
	stmt := query.From(m_queue.TableName).
		Select(m_queue.AllColumns...).
		Where(query.Eq(m_queue.ListingID, listingID)).
		Where(query.Eq(m_queue.PayloadHash, hash)).
		Where(query.In(m_queue.Status, domain.ActiveStatuses())).
		Limit(1).
		Build()
	return queryOne(ctx, txn.Query(ctx, stmt))
}

func (r *QueueRepo) readRow(ctx context.Context, txn *spanner.ReadWriteTransaction, queueID string) (*contracts.QueueItem, error) {
	row, err := txn.ReadRow(ctx, m_queue.TableName, spanner.Key{queueID}, m_queue.AllColumns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrQueueItemNotFound
		}
		return nil, fmt.Errorf("failed to read queue item: %w", err)
	}
	return scanQueueRow(row)
}

func (r *QueueRepo) insertMut(item *contracts.QueueItem) *spanner.Mutation {
	return r.model.InsertMut(&m_queue.Data{
		QueueID:       item.QueueID,
		ListingID:     item.ListingID,
		Intent:        string(item.Intent),
		RemoteID:      spanner.NullString{StringVal: item.RemoteID, Valid: item.RemoteID != ""},
		Payload:       rawJSON(item.Payload),
		PayloadHash:   item.PayloadHash,
		Status:        string(item.Status),
		Attempts:      item.Attempts,
		NextAttemptAt: spanner.NullTime{Time: item.NextAttemptAt, Valid: !item.NextAttemptAt.IsZero()},
		UpdatedAt:     item.UpdatedAt,
	})
}

func queryOne(ctx context.Context, iter *spanner.RowIterator) (*contracts.QueueItem, error) {
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("queue query failed: %w", err)
	}
	return scanQueueRow(row)
}

func scanQueueRow(row *spanner.Row) (*contracts.QueueItem, error) {
	var data m_queue.Data
	if err := row.Columns(
		&data.QueueID,
		&data.ListingID,
		&data.Intent,
		&data.RemoteID,
		&data.Payload,
		&data.PayloadHash,
		&data.Status,
		&data.Attempts,
		&data.NextAttemptAt,
		&data.LeaseExpiresAt,
		&data.LastError,
		&data.SnapshotID,
		&data.CreatedAt,
		&data.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan queue item: %w", err)
	}

	item := &contracts.QueueItem{
		QueueID:     data.QueueID,
		ListingID:   data.ListingID,
		Intent:      domain.Intent(data.Intent),
		Payload:     jsonBytes(data.Payload),
		PayloadHash: data.PayloadHash,
		Status:      domain.Status(data.Status),
		Attempts:    data.Attempts,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
	if data.RemoteID.Valid {
		item.RemoteID = data.RemoteID.StringVal
	}
	if data.NextAttemptAt.Valid {
		item.NextAttemptAt = data.NextAttemptAt.Time
	}
	if data.LeaseExpiresAt.Valid {
		item.LeaseExpiresAt = data.LeaseExpiresAt.Time
	}
	if data.LastError.Valid {
		item.LastError = data.LastError.StringVal
	}
	if data.SnapshotID.Valid {
		item.SnapshotID = data.SnapshotID.StringVal
	}
	return item, nil
}

// rawJSON wraps canonical JSON bytes for a Spanner JSON column.
func rawJSON(data []byte) spanner.NullJSON {
	if len(data) == 0 {
		return spanner.NullJSON{}
	}
	return spanner.NullJSON{Value: json.RawMessage(data), Valid: true}
}

// jsonBytes extracts the raw bytes from a Spanner JSON column value.
func jsonBytes(v spanner.NullJSON) []byte {
	if !v.Valid {
		return nil
	}
	if raw, ok := v.Value.(json.RawMessage); ok {
		return raw
	}
	data, err := json.Marshal(v.Value)
	if err != nil {
		return nil
	}
	return data
}
