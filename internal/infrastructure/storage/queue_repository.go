package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"LinkSynth/internal/domain"
	"LinkSynth/internal/ports"
)

const queueColumns = "id, url, team_id, project_id, status, priority, last_activity, error_message, created_at"

// QueueRepository persists ingest queue items in Postgres. The claim methods
// are the only arbitration of concurrent pollers: a single conditional UPDATE
// guarded on the pending status decides the winner.
type QueueRepository struct {
	db *sql.DB
}

var _ ports.QueueRepository = (*QueueRepository)(nil)

// NewQueueRepository wires a sql.DB implementation.
func NewQueueRepository(db *sql.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Enqueue inserts a pending item and returns it with id and creation time.
func (r *QueueRepository) Enqueue(ctx context.Context, item domain.QueueItem) (domain.QueueItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.Status = domain.QueuePending

	query, args, err := psql.Insert("ingest_queue").
		Columns("id", "url", "team_id", "project_id", "status", "priority").
		Values(item.ID, item.URL, item.TeamID, item.ProjectID, item.Status, item.Priority).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("build enqueue query: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&item.CreatedAt); err != nil {
		return domain.QueueItem{}, fmt.Errorf("enqueue item: %w", err)
	}
	return item, nil
}

// ClaimNext selects the oldest highest-priority pending item and claims it.
// Either an empty queue or a lost race yields domain.ErrNoPendingItems.
func (r *QueueRepository) ClaimNext(ctx context.Context, activity string) (domain.QueueItem, error) {
	query, args, err := nextPendingQuery()
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("build select query: %w", err)
	}

	var id string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.QueueItem{}, domain.ErrNoPendingItems
		}
		return domain.QueueItem{}, fmt.Errorf("select next pending: %w", err)
	}

	return r.Claim(ctx, id, activity)
}

// Claim conditionally flips one pending item to processing. Zero affected rows
// means another worker won the race (or the item is gone) and reports as no
// pending work.
func (r *QueueRepository) Claim(ctx context.Context, id, activity string) (domain.QueueItem, error) {
	query, args, err := claimQuery(id, activity)
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("build claim query: %w", err)
	}

	var item domain.QueueItem
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&item.ID,
		&item.URL,
		&item.TeamID,
		&item.ProjectID,
		&item.Status,
		&item.Priority,
		&item.LastActivity,
		&item.ErrorMessage,
		&item.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QueueItem{}, domain.ErrNoPendingItems
	}
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("claim item %s: %w", id, err)
	}
	return item, nil
}

// UpdateActivity records coarse pipeline progress on the item.
func (r *QueueRepository) UpdateActivity(ctx context.Context, id, activity string) error {
	return r.update(ctx, id, map[string]any{"last_activity": activity})
}

// MarkCompleted finishes a successful run.
func (r *QueueRepository) MarkCompleted(ctx context.Context, id string) error {
	return r.update(ctx, id, map[string]any{"status": domain.QueueCompleted})
}

// MarkFailed records the failure message verbatim for operator debugging.
func (r *QueueRepository) MarkFailed(ctx context.Context, id, message string) error {
	return r.update(ctx, id, map[string]any{
		"status":        domain.QueueFailed,
		"error_message": message,
		"last_activity": "FAILED: " + message,
	})
}

// nextPendingQuery selects the drain candidate: priority first, oldest first.
func nextPendingQuery() (string, []any, error) {
	return psql.Select("id").
		From("ingest_queue").
		Where(sq.Eq{"status": domain.QueuePending}).
		OrderBy("priority DESC", "created_at ASC").
		Limit(1).
		ToSql()
}

// claimQuery is the single conditional update arbitrating the claim race: it
// only succeeds while the row is still pending.
func claimQuery(id, activity string) (string, []any, error) {
	return psql.Update("ingest_queue").
		Set("status", domain.QueueProcessing).
		Set("last_activity", activity).
		Where(sq.Eq{"id": id, "status": domain.QueuePending}).
		Suffix("RETURNING " + queueColumns).
		ToSql()
}

func (r *QueueRepository) update(ctx context.Context, id string, values map[string]any) error {
	query, args, err := psql.Update("ingest_queue").
		SetMap(values).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update item %s: %w", id, err)
	}
	return nil
}
