package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"alias-sync-service/internal/models"
)

// JournalRepository persists an append-only audit of corrective writes in
// Postgres. It is optional: deployments without DATABASE_URL use NopJournal.
type JournalRepository struct {
	db *sqlx.DB
}

// NewJournalRepository creates a new journal repository
func NewJournalRepository(db *sqlx.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

const journalSchema = `
CREATE TABLE IF NOT EXISTS sync_journal (
	id UUID PRIMARY KEY,
	group_name TEXT NOT NULL,
	inventory_item_id BIGINT NOT NULL,
	location_id BIGINT NOT NULL,
	previous_qty INT NOT NULL,
	target_qty INT NOT NULL,
	dry_run BOOLEAN NOT NULL,
	sync_error TEXT,
	created_at TIMESTAMPTZ NOT NULL
)`

// EnsureSchema creates the journal table if it does not exist.
func (r *JournalRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, journalSchema); err != nil {
		return fmt.Errorf("failed to create sync_journal table: %w", err)
	}
	return nil
}

// RecordWrite appends one corrective write to the journal.
func (r *JournalRepository) RecordWrite(ctx context.Context, rec *models.SyncRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO sync_journal (id, group_name, inventory_item_id, location_id, previous_qty, target_qty, dry_run, sync_error, created_at)
		VALUES (:id, :group_name, :inventory_item_id, :location_id, :previous_qty, :target_qty, :dry_run, :sync_error, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("failed to insert sync record: %w", err)
	}
	return nil
}

// RecentWrites returns the newest journal entries, most recent first.
func (r *JournalRepository) RecentWrites(ctx context.Context, limit int) ([]models.SyncRecord, error) {
	query := `
		SELECT id, group_name, inventory_item_id, location_id, previous_qty, target_qty, dry_run, sync_error, created_at
		FROM sync_journal
		ORDER BY created_at DESC
		LIMIT $1`

	var records []models.SyncRecord
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query sync journal: %w", err)
	}
	return records, nil
}

// NopJournal discards writes. Used when no database is configured.
type NopJournal struct{}

func (NopJournal) RecordWrite(context.Context, *models.SyncRecord) error {
	return nil
}
