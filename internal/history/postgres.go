package history

import (
	"context"
	"database/sql"

	"app/internal/model"
)

// PostgresStore appends publish records to the publish_history table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) RecordPost(ctx context.Context, rec model.PublishHistoryRecord) error {
	query := `
        INSERT INTO publish_history (idempotency_key, platform, campaign_id, content_id, post_id, permalink)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := s.db.ExecContext(
		ctx,
		query,
		rec.IdempotencyKey,
		rec.Platform,
		rec.CampaignID,
		rec.ContentID,
		rec.PostID,
		rec.Permalink,
	)
	return err
}
