package cartdto

import (
	"time"

	"github.com/google/uuid"
)

// AddLineRequest is the body of POST /api/v1/cart/lines.
type AddLineRequest struct {
	ItemID string `json:"item_id" validate:"required,uuid"`
}

// CartLine is the public view of a consolidated line. Money values are
// fixed two-decimal strings.
type CartLine struct {
	ID         uuid.UUID `json:"id"`
	ItemID     uuid.UUID `json:"item_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Available  bool      `json:"available"`
	ImageURLs  []string  `json:"image_urls"`
	UnitPrice  string    `json:"unit_price"`
	Quantity   int       `json:"quantity"`
	TotalPrice string    `json:"total_price"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Cart struct {
	Lines     []CartLine `json:"lines"`
	ItemCount int        `json:"item_count"`
	TotalDue  string     `json:"total_due"`
}

type CheckoutSummary struct {
	Subtotal         string `json:"subtotal"`
	ProcessingOffset string `json:"processing_offset"`
	Amount           string `json:"amount"`
	ItemCount        int    `json:"item_count"`
}

// RemoveResult carries the caller's cart after a line is removed.
type RemoveResult struct {
	Lines []CartLine `json:"lines"`
}
