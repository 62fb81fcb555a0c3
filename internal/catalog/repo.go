package catalog

import (
	"context"
	"errors"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no catalog item matches the id.
var ErrNotFound = errors.New("catalog item not found")

// Reader is the read-only catalog surface consumed by the cart.
type Reader interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
}

// Repository reads catalog items through gorm.
type Repository struct {
	repo.Base
}

// NewRepository binds the catalog repository to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// GetItem loads a single item by id.
func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	if id == uuid.Nil {
		return nil, ErrNotFound
	}
	var item models.CatalogItem
	err := r.DB(ctx).Where("id = ?", id).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns items ordered by name, optionally only those marked available.
func (r *Repository) List(ctx context.Context, availableOnly bool) ([]models.CatalogItem, error) {
	q := r.DB(ctx).Order("name ASC")
	if availableOnly {
		q = q.Where("available = ?", true)
	}
	var items []models.CatalogItem
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
