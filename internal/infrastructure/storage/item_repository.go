package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"LinkSynth/internal/domain"
	"LinkSynth/internal/ports"
)

// ItemRepository persists processed items in Postgres. List fields map to
// text arrays and metadata to a JSONB column.
type ItemRepository struct {
	db *sql.DB
}

var _ ports.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository wires a sql.DB implementation.
func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Save inserts the processed item and returns it with id and creation time.
func (r *ItemRepository) Save(ctx context.Context, item domain.ProcessedItem) (domain.ProcessedItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return domain.ProcessedItem{}, fmt.Errorf("marshal metadata: %w", err)
	}

	query, args, err := psql.Insert("processed_items").
		Columns(
			"id", "original_url", "title", "summary", "content_markdown", "metadata",
			"team_id", "project_id", "raw_content_path", "is_synthesis",
			"key_insights", "action_items", "themes", "contradictions",
			"synthesis_narrative", "next_steps",
		).
		Values(
			item.ID, item.OriginalURL, item.Title, item.Summary, item.ContentMarkdown, metadata,
			item.TeamID, item.ProjectID, item.RawContentPath, item.IsSynthesis,
			pq.Array(emptyIfNil(item.KeyInsights)), pq.Array(emptyIfNil(item.ActionItems)),
			pq.Array(emptyIfNil(item.Themes)), pq.Array(emptyIfNil(item.Contradictions)),
			item.Narrative, pq.Array(emptyIfNil(item.NextSteps)),
		).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return domain.ProcessedItem{}, fmt.Errorf("build insert query: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&item.CreatedAt); err != nil {
		return domain.ProcessedItem{}, fmt.Errorf("insert processed item: %w", err)
	}
	return item, nil
}

// ListByProject returns the project's non-synthesis items, oldest first.
func (r *ItemRepository) ListByProject(ctx context.Context, projectID string) ([]domain.ProcessedItem, error) {
	query, args, err := psql.Select(
		"id", "original_url", "title", "summary", "content_markdown", "metadata",
		"team_id", "project_id", "raw_content_path", "is_synthesis",
		"key_insights", "action_items", "themes", "contradictions",
		"synthesis_narrative", "next_steps", "created_at",
	).
		From("processed_items").
		Where(sq.Eq{"project_id": projectID, "is_synthesis": false}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list project items: %w", err)
	}
	defer rows.Close()

	var items []domain.ProcessedItem
	for rows.Next() {
		var (
			item     domain.ProcessedItem
			metadata []byte
		)
		err := rows.Scan(
			&item.ID, &item.OriginalURL, &item.Title, &item.Summary, &item.ContentMarkdown, &metadata,
			&item.TeamID, &item.ProjectID, &item.RawContentPath, &item.IsSynthesis,
			pq.Array(&item.KeyInsights), pq.Array(&item.ActionItems),
			pq.Array(&item.Themes), pq.Array(&item.Contradictions),
			&item.Narrative, pq.Array(&item.NextSteps), &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan processed item: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return items, nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
