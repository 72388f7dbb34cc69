package interfaces

import (
	"context"

	"alias-sync-service/internal/models"
)

// PlatformClient is the outbound contract with the commerce platform. All
// three operations are consumed by the reconciliation engine; failures are
// returned as plain errors and absorbed by the caller.
type PlatformClient interface {
	// ListCatalogPage fetches one page of the catalog listing. An empty
	// pageURL requests the first page; the returned next-page URL is empty
	// when there are no further pages.
	ListCatalogPage(ctx context.Context, pageURL string) ([]models.Variant, string, error)

	// ReadLevel returns the available quantity for an item at a location.
	// The bool is false when the platform reports no level for the pair.
	ReadLevel(ctx context.Context, inventoryItemID, locationID int64) (int, bool, error)

	// WriteLevel sets the available quantity for an item at a location.
	WriteLevel(ctx context.Context, inventoryItemID, locationID int64, available int) error
}
