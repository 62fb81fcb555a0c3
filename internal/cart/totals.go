package cart

import (
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartView is the caller's cart with its aggregate totals.
type CartView struct {
	Lines     []models.CartLine
	ItemCount int
	TotalDue  decimal.Decimal
}

// CheckoutSummary breaks the amount due into its subtotal and the fixed
// processing offset subtracted from it.
type CheckoutSummary struct {
	Subtotal         decimal.Decimal
	ProcessingOffset decimal.Decimal
	Amount           decimal.Decimal
	ItemCount        int
}

func ownedBy(lines []models.CartLine, userID uuid.UUID) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines))
	for _, line := range lines {
		if line.UserID == userID {
			out = append(out, line)
		}
	}
	return out
}

// summarize sums quantities and line totals. Truncation happens once, on the
// aggregate.
func summarize(lines []models.CartLine) (int, decimal.Decimal) {
	count := 0
	totals := make([]int64, 0, len(lines))
	for _, line := range lines {
		count += line.Quantity
		totals = append(totals, line.TotalPriceCents)
	}
	return count, money.SumCents(totals...)
}

func buildView(lines []models.CartLine) *CartView {
	count, total := summarize(lines)
	return &CartView{Lines: lines, ItemCount: count, TotalDue: total}
}

// applyProcessingOffset subtracts the offset from a non-empty cart's subtotal,
// never going below zero.
func applyProcessingOffset(subtotal decimal.Decimal, itemCount int, offsetCents int64) CheckoutSummary {
	summary := CheckoutSummary{
		Subtotal:         subtotal,
		ProcessingOffset: decimal.Zero,
		Amount:           subtotal,
		ItemCount:        itemCount,
	}
	if itemCount == 0 || offsetCents <= 0 {
		return summary
	}
	offset := money.FromCents(offsetCents)
	if offset.GreaterThan(subtotal) {
		offset = subtotal
	}
	summary.ProcessingOffset = offset
	summary.Amount = subtotal.Sub(offset)
	return summary
}
