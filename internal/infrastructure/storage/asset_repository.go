package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"LinkSynth/internal/domain"
	"LinkSynth/internal/ports"
)

// AssetRepository links stored binaries to processed items.
type AssetRepository struct {
	db *sql.DB
}

var _ ports.AssetRepository = (*AssetRepository)(nil)

// NewAssetRepository wires a sql.DB implementation.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// SaveAll bulk-inserts the asset references in one statement.
func (r *AssetRepository) SaveAll(ctx context.Context, assets []domain.AssetRef) error {
	if len(assets) == 0 {
		return nil
	}

	builder := psql.Insert("assets").
		Columns("id", "original_url", "storage_path", "content_type", "team_id", "processed_item_id")
	for _, asset := range assets {
		builder = builder.Values(
			uuid.NewString(),
			asset.OriginalURL,
			asset.StoragePath,
			asset.ContentType,
			asset.TeamID,
			asset.ProcessedItemID,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert assets: %w", err)
	}
	return nil
}
