package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// CatalogLister lists catalog items for the storefront.
type CatalogLister interface {
	List(ctx context.Context, availableOnly bool) ([]models.CatalogItem, error)
}

type catalogItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Available   bool      `json:"available"`
	UnitPrice   string    `json:"unit_price"`
	ImageURLs   []string  `json:"image_urls"`
}

// CatalogList returns catalog items; ?available=true hides unavailable ones.
func CatalogList(lister CatalogLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lister == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		availableOnly, err := validators.ParseQueryBool(r, "available", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := lister.List(r.Context(), availableOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list catalog"))
			return
		}

		out := make([]catalogItemResponse, 0, len(items))
		for _, item := range items {
			images := item.ImageURLs
			if images == nil {
				images = []string{}
			}
			out = append(out, catalogItemResponse{
				ID:          item.ID,
				Name:        item.Name,
				Description: item.Description,
				Type:        item.Type,
				Available:   item.Available,
				UnitPrice:   money.String(money.FromCents(item.UnitPriceCents)),
				ImageURLs:   images,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
