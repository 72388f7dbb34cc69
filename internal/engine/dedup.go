package engine

import (
	"context"
	"time"

	"alias-sync-service/internal/interfaces"
	"alias-sync-service/internal/models"
)

// DedupFilter suppresses repeated identical webhook events per (item,
// location) within a short window. It decides only whether to short-circuit
// processing; quantity truth always comes from the cache or the platform.
type DedupFilter struct {
	store  interfaces.DedupStore
	window time.Duration
}

// NewDedupFilter creates a dedup filter over the given store
func NewDedupFilter(store interfaces.DedupStore, window time.Duration) *DedupFilter {
	return &DedupFilter{
		store:  store,
		window: window,
	}
}

// ShouldSuppress returns true iff a prior entry for the key carries the
// identical quantity and is younger than the window. Otherwise it records
// (qty, now) and returns false. Any quantity difference always passes
// through regardless of elapsed time.
func (d *DedupFilter) ShouldSuppress(ctx context.Context, inventoryItemID, locationID int64, available int, now time.Time) bool {
	key := models.LevelKey{InventoryItemID: inventoryItemID, LocationID: locationID}

	if entry, ok := d.store.GetDedup(ctx, key); ok {
		if entry.Available == available && now.Sub(entry.SeenAt) < d.window {
			return true
		}
	}

	d.store.PutDedup(ctx, key, models.DedupEntry{
		Available: available,
		SeenAt:    now,
	})
	return false
}
