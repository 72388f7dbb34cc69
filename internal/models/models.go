package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InventoryLevelEvent is the decoded inventory_levels/update webhook payload.
type InventoryLevelEvent struct {
	InventoryItemID int64 `json:"inventory_item_id" binding:"required"`
	LocationID      int64 `json:"location_id" binding:"required"`
	Available       int   `json:"available"`
}

// Variant is one catalog variant as returned by the platform listing.
type Variant struct {
	SKU             string `json:"sku"`
	InventoryItemID int64  `json:"inventory_item_id"`
}

// LevelKey identifies one inventory level on the platform.
type LevelKey struct {
	InventoryItemID int64
	LocationID      int64
}

func (k LevelKey) String() string {
	return fmt.Sprintf("%d:%d", k.InventoryItemID, k.LocationID)
}

// LevelEntry is a cached observation of an available quantity.
type LevelEntry struct {
	Available  int       `json:"available"`
	ObservedAt time.Time `json:"observed_at"`
}

// DedupEntry records the last webhook seen for a level key. It is only
// consulted to suppress repeats, never for quantity truth.
type DedupEntry struct {
	Available int       `json:"available"`
	SeenAt    time.Time `json:"seen_at"`
}

// SyncRecord is one corrective write appended to the sync journal.
type SyncRecord struct {
	ID              uuid.UUID `db:"id" json:"id"`
	GroupName       string    `db:"group_name" json:"group_name"`
	InventoryItemID int64     `db:"inventory_item_id" json:"inventory_item_id"`
	LocationID      int64     `db:"location_id" json:"location_id"`
	PreviousQty     int       `db:"previous_qty" json:"previous_qty"`
	TargetQty       int       `db:"target_qty" json:"target_qty"`
	DryRun          bool      `db:"dry_run" json:"dry_run"`
	SyncError       *string   `db:"sync_error" json:"sync_error,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// API error models

const (
	ProblemTypeValidationError = "validation-error"
	ProblemTypeProcessingError = "processing-error"
	ProblemTypeUnauthorized    = "unauthorized"
)

type ProblemDetails struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Field  string `json:"field,omitempty"`
}

func NewProblemDetails(status int, title, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemType(status),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// NewValidationProblem creates a validation error problem for one field.
func NewValidationProblem(field, message string) *ProblemDetails {
	return &ProblemDetails{
		Type:   ProblemTypeValidationError,
		Title:  "Validation Failed",
		Status: 400,
		Detail: message,
		Field:  field,
	}
}

func problemType(status int) string {
	switch status {
	case 400:
		return ProblemTypeValidationError
	case 401:
		return ProblemTypeUnauthorized
	default:
		return ProblemTypeProcessingError
	}
}
