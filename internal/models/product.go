// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a licensable catalog entry scoped to one brand. Licenses
// reference it as an immutable foreign entity: deleting a product that is
// still referenced must be rejected, never cascaded.
type Product struct {
	BaseModel
	BrandID          uuid.UUID      `json:"brand_id" gorm:"type:uuid;not null;uniqueIndex:idx_products_brand_slug"`
	Name             string         `json:"name" gorm:"size:255;not null"`
	Slug             string         `json:"slug" gorm:"size:100;not null;uniqueIndex:idx_products_brand_slug"`
	Description      string         `json:"description" gorm:"type:text"`
	Features         pq.StringArray `json:"features" gorm:"type:text[]"`
	DefaultSeatLimit int            `json:"default_seat_limit" gorm:"default:1"`
	IsActive         bool           `json:"is_active" gorm:"default:true"`

	// Relationships
	Brand *Brand `json:"-" gorm:"foreignKey:BrandID"`
}
