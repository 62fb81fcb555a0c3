package models

import (
	"time"

	"github.com/google/uuid"
)

// CatalogItem is the read-only item record the cart snapshots from.
type CatalogItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name           string    `gorm:"column:name;not null"`
	Description    string    `gorm:"column:description;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Type           string    `gorm:"column:type;not null"`
	Available      bool      `gorm:"column:available;not null"`
	ImageURLs      []string  `gorm:"column:image_urls;type:jsonb;serializer:json"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CatalogItem) TableName() string { return "catalog_items" }
