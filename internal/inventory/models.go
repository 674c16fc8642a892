package inventory

import "time"

type ItemStatus string

const (
	ItemStatusActive       ItemStatus = "active"
	ItemStatusDiscontinued ItemStatus = "discontinued"
)

func ValidItemStatus(s ItemStatus) bool {
	return s == ItemStatusActive || s == ItemStatusDiscontinued
}

// Item is a stocked inventory row. SKU is unique per workspace; the
// uniqueness is enforced by the database and surfaces as ErrConflict.
type Item struct {
	ID             string     `json:"id"`
	WorkspaceID    string     `json:"workspace_id"`
	SKU            string     `json:"sku"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	CategoryID     string     `json:"category_id,omitempty"`
	LocationID     string     `json:"location_id,omitempty"`
	Quantity       int        `json:"quantity"`
	UnitPriceMinor int64      `json:"unit_price_minor"`
	Status         ItemStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Category groups items. Name is unique per workspace.
type Category struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Location is a physical storage place. Name is unique per workspace.
type Location struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemQuery filters the item list. Zero-value fields are unfiltered.
type ItemQuery struct {
	WorkspaceID string
	CategoryID  string
	LocationID  string
	Status      ItemStatus
	// Search matches case-insensitively over sku and name.
	Search string
	Limit  int
	Offset int
}
