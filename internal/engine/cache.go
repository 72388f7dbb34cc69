package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"alias-sync-service/internal/interfaces"
	"alias-sync-service/internal/models"
)

// LevelCache is a short-TTL read-through cache of available quantities per
// (item, location). It limits redundant platform reads during a sync pass;
// it is advisory only and never a correctness guarantee.
type LevelCache struct {
	store  interfaces.LevelStore
	client interfaces.PlatformClient
	ttl    time.Duration
}

// NewLevelCache creates a read-through cache over the given store
func NewLevelCache(store interfaces.LevelStore, client interfaces.PlatformClient, ttl time.Duration) *LevelCache {
	return &LevelCache{
		store:  store,
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached quantity when it is younger than the freshness
// window, otherwise reads from the platform and stores the result. Returns
// false when the platform reports no level or the read fails; failures are
// logged, not raised, and callers treat unknown as "skip this item".
func (c *LevelCache) Get(ctx context.Context, inventoryItemID, locationID int64) (int, bool) {
	key := models.LevelKey{InventoryItemID: inventoryItemID, LocationID: locationID}

	if entry, ok := c.store.GetLevel(ctx, key); ok && time.Since(entry.ObservedAt) < c.ttl {
		log.Debug().
			Int64("inventory_item_id", inventoryItemID).
			Int64("location_id", locationID).
			Int("available", entry.Available).
			Msg("Level cache hit")
		return entry.Available, true
	}

	available, found, err := c.client.ReadLevel(ctx, inventoryItemID, locationID)
	if err != nil {
		log.Warn().Err(err).
			Int64("inventory_item_id", inventoryItemID).
			Int64("location_id", locationID).
			Msg("Failed to read inventory level")
		return 0, false
	}
	if !found {
		log.Debug().
			Int64("inventory_item_id", inventoryItemID).
			Int64("location_id", locationID).
			Msg("No inventory level for item at location")
		return 0, false
	}

	c.store.PutLevel(ctx, key, models.LevelEntry{
		Available:  available,
		ObservedAt: time.Now(),
	})

	return available, true
}

// Seed unconditionally overwrites the cached quantity with the current time.
// Used when a value is already known to be current: a webhook payload, or a
// quantity just written to the platform.
func (c *LevelCache) Seed(ctx context.Context, inventoryItemID, locationID int64, available int) {
	key := models.LevelKey{InventoryItemID: inventoryItemID, LocationID: locationID}
	c.store.PutLevel(ctx, key, models.LevelEntry{
		Available:  available,
		ObservedAt: time.Now(),
	})
}
