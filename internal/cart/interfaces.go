package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartStore defines the persistence surface required by the cart service.
// Lookups that miss return gorm.ErrRecordNotFound.
type CartStore interface {
	WithTx(tx *gorm.DB) CartStore
	UpsertIncrement(ctx context.Context, line *models.CartLine) error
	IncrementExisting(ctx context.Context, userID, itemID uuid.UUID, now time.Time) (*models.CartLine, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CartLine, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.CartLine, error)
	FindByUserAndItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartLine, error)
	DecrementAboveFloor(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
}

type catalogReader interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
