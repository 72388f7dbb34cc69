package interfaces

import (
	"context"

	"alias-sync-service/internal/models"
)

// EventProcessor defines the contract between the webhook transport and the
// reconciliation engine. HandleEvent must be safe to invoke concurrently;
// a non-nil error means orchestration itself failed, not that an individual
// item could not be synced.
type EventProcessor interface {
	HandleEvent(ctx context.Context, event *models.InventoryLevelEvent) error
}
