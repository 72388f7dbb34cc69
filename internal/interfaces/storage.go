package interfaces

import (
	"context"

	"alias-sync-service/internal/models"
)

// LevelStore holds cached level observations. Implementations absorb their
// own failures: a failed read is reported as a miss, a failed write is
// logged and dropped.
type LevelStore interface {
	GetLevel(ctx context.Context, key models.LevelKey) (models.LevelEntry, bool)
	PutLevel(ctx context.Context, key models.LevelKey, entry models.LevelEntry)
}

// DedupStore holds last-seen webhook entries per level key.
type DedupStore interface {
	GetDedup(ctx context.Context, key models.LevelKey) (models.DedupEntry, bool)
	PutDedup(ctx context.Context, key models.LevelKey, entry models.DedupEntry)
}

// SyncJournal records corrective writes for auditing. Journal failures must
// never interrupt sync processing.
type SyncJournal interface {
	RecordWrite(ctx context.Context, rec *models.SyncRecord) error
}
