package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"alias-sync-service/internal/catalog"
	"alias-sync-service/internal/config"
	"alias-sync-service/internal/interfaces"
	"alias-sync-service/internal/models"
)

// Engine is the reconciliation engine: one instance owns the catalog index,
// the level cache and the dedup filter, and drives alias-group and set
// synchronization per incoming webhook event. HandleEvent is safe to invoke
// concurrently from overlapping webhook deliveries.
type Engine struct {
	client  interfaces.PlatformClient
	rules   *config.Rules
	index   *catalog.Index
	cache   *LevelCache
	dedup   *DedupFilter
	journal interfaces.SyncJournal
	opts    Options
}

// Options holds engine tuning knobs
type Options struct {
	WriteEnabled      bool
	AllowedLocationID int64 // 0 = accept any location
	WriteDelay        time.Duration
	CacheTTL          time.Duration
	DedupWindow       time.Duration
}

// Validate validates the engine options
func (o Options) Validate() error {
	if o.CacheTTL < time.Millisecond {
		return fmt.Errorf("cache TTL must be at least 1ms, got %v", o.CacheTTL)
	}
	if o.DedupWindow < time.Millisecond {
		return fmt.Errorf("dedup window must be at least 1ms, got %v", o.DedupWindow)
	}
	if o.WriteDelay < 0 {
		return fmt.Errorf("write delay must not be negative, got %v", o.WriteDelay)
	}
	return nil
}

// New creates a reconciliation engine with dependency injection and validation
func New(
	client interfaces.PlatformClient,
	rules *config.Rules,
	index *catalog.Index,
	levels interfaces.LevelStore,
	dedups interfaces.DedupStore,
	journal interfaces.SyncJournal,
	opts Options,
) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine options: %w", err)
	}

	return &Engine{
		client:  client,
		rules:   rules,
		index:   index,
		cache:   NewLevelCache(levels, client, opts.CacheTTL),
		dedup:   NewDedupFilter(dedups, opts.DedupWindow),
		journal: journal,
		opts:    opts,
	}, nil
}

// HandleEvent runs the full processing sequence for one webhook event:
// location filter, cache seed, dedup, SKU resolution, alias-group sync,
// then set resolution. All ignore paths return nil; only a panic inside
// orchestration surfaces as an error.
func (e *Engine) HandleEvent(ctx context.Context, event *models.InventoryLevelEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Int64("inventory_item_id", event.InventoryItemID).
				Msg("Recovered from panic while processing event")
			err = fmt.Errorf("event processing panicked: %v", r)
		}
	}()

	if e.opts.AllowedLocationID != 0 && event.LocationID != e.opts.AllowedLocationID {
		log.Debug().
			Int64("location_id", event.LocationID).
			Int64("allowed_location_id", e.opts.AllowedLocationID).
			Msg("Ignoring event for filtered location")
		return nil
	}

	// The webhook is ground truth for its own pair.
	e.cache.Seed(ctx, event.InventoryItemID, event.LocationID, event.Available)

	if e.dedup.ShouldSuppress(ctx, event.InventoryItemID, event.LocationID, event.Available, time.Now()) {
		log.Debug().
			Int64("inventory_item_id", event.InventoryItemID).
			Int("available", event.Available).
			Msg("Suppressing duplicate event")
		return nil
	}

	sku, ok := e.index.SKUForItem(event.InventoryItemID)
	if !ok {
		log.Debug().
			Int64("inventory_item_id", event.InventoryItemID).
			Msg("Ignoring event for unknown inventory item")
		return nil
	}

	groups := e.rules.GroupsForSKU(sku)
	if len(groups) == 0 {
		log.Debug().Str("sku", sku).Msg("SKU belongs to no alias group")
		return nil
	}

	log.Info().
		Str("sku", sku).
		Strs("groups", groups).
		Int64("inventory_item_id", event.InventoryItemID).
		Int64("location_id", event.LocationID).
		Int("available", event.Available).
		Msg("Processing inventory level event")

	// Phase 1: drive every alias group the SKU belongs to.
	for _, group := range groups {
		e.syncGroup(ctx, group, event.LocationID, event.Available)
	}

	// Phase 2: re-derive every set touched by those groups.
	e.syncAffectedSets(ctx, groups, event.LocationID, event.Available)

	return nil
}

// syncGroup drives every member item of an alias group to the target
// quantity. Unknown quantities and write failures skip the item and continue
// with its siblings.
func (e *Engine) syncGroup(ctx context.Context, group string, locationID int64, target int) {
	seen := make(map[int64]struct{})

	for _, sku := range e.rules.AliasGroups[group] {
		for _, itemID := range e.index.ItemsForSKU(sku) {
			if _, dup := seen[itemID]; dup {
				continue
			}
			seen[itemID] = struct{}{}

			current, ok := e.cache.Get(ctx, itemID, locationID)
			if !ok {
				log.Warn().
					Str("group", group).
					Str("sku", sku).
					Int64("inventory_item_id", itemID).
					Msg("Skipping item with unknown quantity")
				continue
			}
			if current == target {
				log.Debug().
					Str("group", group).
					Int64("inventory_item_id", itemID).
					Int("available", current).
					Msg("Item already at target quantity")
				continue
			}

			e.writeLevel(ctx, group, itemID, locationID, current, target)
		}
	}
}

// writeLevel performs one paced corrective write and seeds the cache with
// the new value. In dry-run mode the platform call is skipped but the cache
// is still seeded so downstream set resolution sees the intended value.
func (e *Engine) writeLevel(ctx context.Context, group string, itemID, locationID int64, previous, target int) {
	if !e.opts.WriteEnabled {
		log.Info().
			Str("group", group).
			Int64("inventory_item_id", itemID).
			Int64("location_id", locationID).
			Int("previous", previous).
			Int("target", target).
			Msg("Write disabled, skipping platform write")
		e.cache.Seed(ctx, itemID, locationID, target)
		e.record(ctx, group, itemID, locationID, previous, target, true, nil)
		return
	}

	// Pace writes to respect platform rate limits.
	if e.opts.WriteDelay > 0 {
		time.Sleep(e.opts.WriteDelay)
	}

	if err := e.client.WriteLevel(ctx, itemID, locationID, target); err != nil {
		log.Error().Err(err).
			Str("group", group).
			Int64("inventory_item_id", itemID).
			Int64("location_id", locationID).
			Int("target", target).
			Msg("Failed to write inventory level")
		e.record(ctx, group, itemID, locationID, previous, target, false, err)
		return
	}

	log.Info().
		Str("group", group).
		Int64("inventory_item_id", itemID).
		Int64("location_id", locationID).
		Int("previous", previous).
		Int("target", target).
		Msg("Corrected inventory level")

	e.cache.Seed(ctx, itemID, locationID, target)
	e.record(ctx, group, itemID, locationID, previous, target, false, nil)
}

func (e *Engine) record(ctx context.Context, group string, itemID, locationID int64, previous, target int, dryRun bool, syncErr error) {
	rec := &models.SyncRecord{
		GroupName:       group,
		InventoryItemID: itemID,
		LocationID:      locationID,
		PreviousQty:     previous,
		TargetQty:       target,
		DryRun:          dryRun,
	}
	if syncErr != nil {
		msg := syncErr.Error()
		rec.SyncError = &msg
	}

	if err := e.journal.RecordWrite(ctx, rec); err != nil {
		log.Error().Err(err).
			Int64("inventory_item_id", itemID).
			Msg("Failed to journal sync write")
	}
}
