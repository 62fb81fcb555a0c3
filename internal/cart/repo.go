package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var pairColumns = []clause.Column{{Name: "user_id"}, {Name: "item_id"}}

// Repository persists cart lines through gorm.
type Repository struct {
	repo.Base
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartStore {
	if tx == nil {
		return r
	}
	return &Repository{Base: r.Base.WithTx(tx)}
}

// UpsertIncrement inserts line, or when the (user, item) pair already exists
// increments the stored row by one unit of its own unit price. The caller's
// struct is not refreshed; re-read the pair afterwards.
func (r *Repository) UpsertIncrement(ctx context.Context, line *models.CartLine) error {
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: pairColumns,
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":          gorm.Expr("cart_lines.quantity + 1"),
				"total_price_cents": gorm.Expr("cart_lines.total_price_cents + cart_lines.unit_price_cents"),
				"updated_at":        line.UpdatedAt,
			}),
		}).
		Create(line).Error
}

// IncrementExisting locks the pair's row and adds one unit to it.
func (r *Repository) IncrementExisting(ctx context.Context, userID, itemID uuid.UUID, now time.Time) (*models.CartLine, error) {
	var line models.CartLine
	err := r.ForUpdate(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Take(&line).Error
	if err != nil {
		return nil, err
	}

	res := r.DB(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", line.ID).
		UpdateColumns(map[string]any{
			"quantity":          gorm.Expr("quantity + 1"),
			"total_price_cents": gorm.Expr("total_price_cents + unit_price_cents"),
			"updated_at":        now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, line.ID)
}

// FindByID loads a line by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	if err := r.DB(ctx).Where("id = ?", id).Take(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// FindByIDForUpdate loads a line by id holding a row lock until the
// surrounding transaction ends.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.ForUpdate(ctx).
		Where("id = ?", id).
		Take(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindByUserAndItem loads the unique line for the pair.
func (r *Repository) FindByUserAndItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.DB(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Take(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// DecrementAboveFloor removes one unit from the line only while its quantity
// is above one. It reports whether a row changed.
func (r *Repository) DecrementAboveFloor(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.CartLine{}).
		Where("id = ? AND quantity > 1", id).
		UpdateColumns(map[string]any{
			"quantity":          gorm.Expr("quantity - 1"),
			"total_price_cents": gorm.Expr("total_price_cents - unit_price_cents"),
			"updated_at":        now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the line.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.CartLine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByUser returns the user's lines in creation order.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
