package engine

import (
	"context"

	"github.com/rs/zerolog/log"

	"alias-sync-service/internal/config"
)

// syncAffectedSets re-derives every set whose component list intersects the
// groups triggered by the event, in configured order. Each set is resolved
// independently; a set sharing its group with a phase 1 sync is still
// written, driven by possibly-different component data.
func (e *Engine) syncAffectedSets(ctx context.Context, triggered []string, locationID int64, eventQty int) {
	triggeredSet := make(map[string]struct{}, len(triggered))
	for _, group := range triggered {
		triggeredSet[group] = struct{}{}
	}

	for _, set := range e.rules.Sets {
		if !touchesAny(set.Components, triggeredSet) {
			continue
		}

		qty, ok := e.resolveSetQty(ctx, set, locationID, triggeredSet, eventQty)
		if !ok {
			log.Warn().
				Str("set_group", set.SetGroup).
				Msg("Skipping set with unresolvable component quantity")
			continue
		}

		log.Info().
			Str("set_group", set.SetGroup).
			Int("available", qty).
			Msg("Derived set quantity from components")

		e.syncGroup(ctx, set.SetGroup, locationID, qty)
	}
}

// resolveSetQty computes min over all component quantities. Any unresolvable
// component skips the whole set: never a partial or incorrect write.
func (e *Engine) resolveSetQty(ctx context.Context, set config.SetRule, locationID int64, triggeredSet map[string]struct{}, eventQty int) (int, bool) {
	min := 0
	for i, component := range set.Components {
		qty, ok := e.resolveComponentQty(ctx, component, locationID, triggeredSet, eventQty)
		if !ok {
			return 0, false
		}
		if i == 0 || qty < min {
			min = qty
		}
	}
	return min, true
}

// resolveComponentQty prefers the webhook-supplied quantity when the
// component is a group triggered by the current event; otherwise it reads a
// representative item, the first configured SKU's first mapped item.
func (e *Engine) resolveComponentQty(ctx context.Context, component string, locationID int64, triggeredSet map[string]struct{}, eventQty int) (int, bool) {
	if _, ok := triggeredSet[component]; ok {
		return eventQty, true
	}

	skus := e.rules.AliasGroups[component]
	if len(skus) == 0 {
		return 0, false
	}

	items := e.index.ItemsForSKU(skus[0])
	if len(items) == 0 {
		log.Debug().
			Str("group", component).
			Str("sku", skus[0]).
			Msg("Representative SKU has no inventory item")
		return 0, false
	}

	return e.cache.Get(ctx, items[0], locationID)
}

func touchesAny(components []string, triggeredSet map[string]struct{}) bool {
	for _, component := range components {
		if _, ok := triggeredSet[component]; ok {
			return true
		}
	}
	return false
}
