package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one quantity-aggregated (user, item) entry. Display fields and
// UnitPriceCents are copied from the catalog when the line is first created.
type CartLine struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:cart_lines_user_id_idx;uniqueIndex:cart_lines_user_item_key"`
	ItemID          uuid.UUID `gorm:"column:item_id;type:uuid;not null;uniqueIndex:cart_lines_user_item_key"`
	Name            string    `gorm:"column:name;not null"`
	Type            string    `gorm:"column:type;not null"`
	Available       bool      `gorm:"column:available;not null"`
	ImageURLs       []string  `gorm:"column:image_urls;type:jsonb;serializer:json"`
	UnitPriceCents  int64     `gorm:"column:unit_price_cents;not null"`
	Quantity        int       `gorm:"column:quantity;not null;check:cart_lines_quantity_check,quantity >= 1"`
	TotalPriceCents int64     `gorm:"column:total_price_cents;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartLine) TableName() string { return "cart_lines" }
