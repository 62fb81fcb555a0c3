package cart

import (
	cartdto "github.com/angelmondragon/storefront-backend/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

func newCartLine(line models.CartLine) cartdto.CartLine {
	images := line.ImageURLs
	if images == nil {
		images = []string{}
	}
	return cartdto.CartLine{
		ID:         line.ID,
		ItemID:     line.ItemID,
		Name:       line.Name,
		Type:       line.Type,
		Available:  line.Available,
		ImageURLs:  images,
		UnitPrice:  money.String(money.FromCents(line.UnitPriceCents)),
		Quantity:   line.Quantity,
		TotalPrice: money.String(money.FromCents(line.TotalPriceCents)),
		UpdatedAt:  line.UpdatedAt,
	}
}

func newCartLines(lines []models.CartLine) []cartdto.CartLine {
	out := make([]cartdto.CartLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, newCartLine(line))
	}
	return out
}

func newCart(view *cartsvc.CartView) cartdto.Cart {
	if view == nil {
		return cartdto.Cart{Lines: []cartdto.CartLine{}, TotalDue: money.String(money.FromCents(0))}
	}
	return cartdto.Cart{
		Lines:     newCartLines(view.Lines),
		ItemCount: view.ItemCount,
		TotalDue:  money.String(view.TotalDue),
	}
}

func newCheckoutSummary(summary *cartsvc.CheckoutSummary) cartdto.CheckoutSummary {
	return cartdto.CheckoutSummary{
		Subtotal:         money.String(summary.Subtotal),
		ProcessingOffset: money.String(summary.ProcessingOffset),
		Amount:           money.String(summary.Amount),
		ItemCount:        summary.ItemCount,
	}
}
