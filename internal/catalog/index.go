package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"alias-sync-service/internal/interfaces"
)

// Index is the bidirectional SKU/inventory-item mapping, built once at
// startup from a full catalog listing and read-only afterwards. A catalog
// change requires a process restart.
type Index struct {
	itemToSKU  map[int64]string
	skuToItems map[string][]int64
}

// BuildIndex pages through the full catalog listing until no further page is
// available. A page-fetch failure aborts the build: the server must not start
// serving with a partial index.
func BuildIndex(ctx context.Context, client interfaces.PlatformClient) (*Index, error) {
	idx := &Index{
		itemToSKU:  make(map[int64]string),
		skuToItems: make(map[string][]int64),
	}

	pageURL := ""
	pages := 0
	for {
		variants, next, err := client.ListCatalogPage(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to list catalog page %d: %w", pages+1, err)
		}
		pages++

		if len(variants) == 0 {
			break
		}

		for _, variant := range variants {
			sku := strings.TrimSpace(variant.SKU)
			if sku == "" || variant.InventoryItemID == 0 {
				continue
			}
			// Last write wins when two variants claim the same item. The
			// item list may hold duplicates; callers dedup per sync call.
			idx.itemToSKU[variant.InventoryItemID] = sku
			idx.skuToItems[sku] = append(idx.skuToItems[sku], variant.InventoryItemID)
		}

		if next == "" {
			break
		}
		pageURL = next
	}

	log.Info().
		Int("pages", pages).
		Int("items", len(idx.itemToSKU)).
		Int("skus", len(idx.skuToItems)).
		Msg("Catalog index built")

	return idx, nil
}

// SKUForItem resolves an inventory item to its SKU.
func (i *Index) SKUForItem(inventoryItemID int64) (string, bool) {
	sku, ok := i.itemToSKU[inventoryItemID]
	return sku, ok
}

// ItemsForSKU returns the inventory items recorded for a SKU. The slice may
// contain duplicates when several variants share the SKU.
func (i *Index) ItemsForSKU(sku string) []int64 {
	return i.skuToItems[sku]
}

// Size returns the number of indexed inventory items.
func (i *Index) Size() int {
	return len(i.itemToSKU)
}
