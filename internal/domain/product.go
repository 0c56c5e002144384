package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category represents a catalog category (a stand family, an accessory group, ...).
// The json tags correspond to the fields expected in API responses/requests.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"` // Pointer for nullable fields
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductStatus controls catalog visibility of a product.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusDraft    ProductStatus = "draft"
)

// Valid reports whether s is one of the known statuses.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDraft:
		return true
	}
	return false
}

// Product represents a catalog item. Every product belongs to exactly one category.
type Product struct {
	ID               int64               `json:"id"`
	CategoryID       int64               `json:"category_id"`
	ItemCode         string              `json:"item_code"`
	Name             string              `json:"name"`
	Description      *string             `json:"description,omitempty"`
	FrameSize        *string             `json:"frame_size,omitempty"`   // mm, free text ("1000x2500")
	GraphicSize      *string             `json:"graphic_size,omitempty"` // mm
	PiecesPerCarton  *int32              `json:"pieces_per_carton,omitempty"`
	GrossWeight      *string             `json:"gross_weight,omitempty"`
	PackingSize      *string             `json:"packing_size,omitempty"`
	Price            decimal.NullDecimal `json:"price"`
	DistributorPrice decimal.NullDecimal `json:"distributor_price"`
	Status           ProductStatus       `json:"status"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// DisplayName builds the catalog name of a product: the item code prefixed to
// the description when a code is known, the description alone otherwise.
func DisplayName(itemCode, description string) string {
	if itemCode == "" {
		return description
	}
	return itemCode + " - " + description
}
