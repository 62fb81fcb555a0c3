package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

const (
	opAdd      = "add"
	opReduce   = "reduce"
	opRemove   = "remove"
	opView     = "view"
	opCheckout = "checkout"

	defaultConflictBackoff = 10 * time.Millisecond
)

// Service exposes the cart consolidation and pricing operations. Every call
// takes the caller's user id explicitly; uuid.Nil means anonymous.
type Service interface {
	AddToCart(ctx context.Context, userID, itemID uuid.UUID) (*models.CartLine, error)
	Reduce(ctx context.Context, lineID, userID uuid.UUID) (*models.CartLine, error)
	Remove(ctx context.Context, lineID, userID uuid.UUID) ([]models.CartLine, error)
	ViewCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	Checkout(ctx context.Context, userID uuid.UUID) (*CheckoutSummary, error)
}

// Options tunes the service. Zero values fall back to defaults.
type Options struct {
	ConflictRetryBackoff  time.Duration
	ProcessingOffsetCents int64
	Logger                *logger.Logger
	Metrics               *metrics.CartMetrics
	Clock                 func() time.Time
}

type service struct {
	store       CartStore
	tx          txRunner
	catalog     catalogReader
	backoff     time.Duration
	offsetCents int64
	logg        *logger.Logger
	metrics     *metrics.CartMetrics
	now         func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(store CartStore, tx txRunner, catalog catalogReader, opts Options) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if opts.ProcessingOffsetCents < 0 {
		return nil, fmt.Errorf("processing offset must not be negative")
	}
	backoff := opts.ConflictRetryBackoff
	if backoff <= 0 {
		backoff = defaultConflictBackoff
	}
	clock := opts.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		store:       store,
		tx:          tx,
		catalog:     catalog,
		backoff:     backoff,
		offsetCents: opts.ProcessingOffsetCents,
		logg:        opts.Logger,
		metrics:     opts.Metrics,
		now:         clock,
	}, nil
}

// AddToCart creates the caller's line for the item with quantity one, or
// increments the existing line by one unit of its stored unit price.
func (s *service) AddToCart(ctx context.Context, userID, itemID uuid.UUID) (line *models.CartLine, err error) {
	defer s.observe(opAdd, s.now(), &err)

	if userID == uuid.Nil {
		return nil, authRequired()
	}

	item, err := s.catalog.GetItem(ctx, itemID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, itemNotFound()
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog item")
	}

	err = s.withConflictRetry(ctx, opAdd, func(ctx context.Context, prev error) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			store := s.store.WithTx(tx)
			now := s.now()

			// Only a unique violation guarantees the pair's row exists.
			if db.IsUniqueViolation(prev, "") {
				got, err := store.IncrementExisting(ctx, userID, itemID, now)
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errRowVanished
				}
				if err != nil {
					return err
				}
				line = got
				return nil
			}

			if err := store.UpsertIncrement(ctx, newLine(userID, item, now)); err != nil {
				return err
			}
			got, err := store.FindByUserAndItem(ctx, userID, itemID)
			if err != nil {
				return err
			}
			line = got
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// Reduce removes one unit from the caller's line. A line at quantity one is
// returned unchanged; only Remove deletes lines.
func (s *service) Reduce(ctx context.Context, lineID, userID uuid.UUID) (line *models.CartLine, err error) {
	defer s.observe(opReduce, s.now(), &err)

	if userID == uuid.Nil {
		return nil, authRequired()
	}
	if lineID == uuid.Nil {
		return nil, lineNotFound()
	}

	err = s.withConflictRetry(ctx, opReduce, func(ctx context.Context, _ error) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			store := s.store.WithTx(tx)

			current, err := s.loadOwned(ctx, store, lineID, userID)
			if err != nil {
				return err
			}
			if current.Quantity <= 1 {
				line = current
				return nil
			}

			if _, err := store.DecrementAboveFloor(ctx, lineID, s.now()); err != nil {
				return err
			}
			got, err := store.FindByID(ctx, lineID)
			if err != nil {
				return err
			}
			line = got
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// Remove deletes the caller's line and returns the lines that remain.
func (s *service) Remove(ctx context.Context, lineID, userID uuid.UUID) (remaining []models.CartLine, err error) {
	defer s.observe(opRemove, s.now(), &err)

	if userID == uuid.Nil {
		return nil, authRequired()
	}
	if lineID == uuid.Nil {
		return nil, lineNotFound()
	}

	err = s.withConflictRetry(ctx, opRemove, func(ctx context.Context, _ error) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			store := s.store.WithTx(tx)

			if _, err := s.loadOwned(ctx, store, lineID, userID); err != nil {
				return err
			}
			if err := store.Delete(ctx, lineID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return lineNotFound()
				}
				return err
			}
			lines, err := store.ListByUser(ctx, userID)
			if err != nil {
				return err
			}
			remaining = ownedBy(lines, userID)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return remaining, nil
}

// ViewCart returns the caller's lines, unit count and truncated total.
func (s *service) ViewCart(ctx context.Context, userID uuid.UUID) (view *CartView, err error) {
	defer s.observe(opView, s.now(), &err)

	lines, err := s.listOwned(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildView(lines), nil
}

// Checkout totals the caller's cart the same way ViewCart does and applies
// the processing offset. It does not mutate any line.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (summary *CheckoutSummary, err error) {
	defer s.observe(opCheckout, s.now(), &err)

	lines, err := s.listOwned(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, subtotal := summarize(lines)
	out := applyProcessingOffset(subtotal, count, s.offsetCents)
	return &out, nil
}

func (s *service) listOwned(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	if userID == uuid.Nil {
		return nil, authRequired()
	}
	lines, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart lines")
	}
	return ownedBy(lines, userID), nil
}

func (s *service) loadOwned(ctx context.Context, store CartStore, lineID, userID uuid.UUID) (*models.CartLine, error) {
	line, err := store.FindByIDForUpdate(ctx, lineID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, lineNotFound()
	}
	if err != nil {
		return nil, err
	}
	if line.UserID != userID {
		return nil, forbidden()
	}
	return line, nil
}

// withConflictRetry runs fn once and, on a retryable write conflict, exactly
// once more with the first conflict passed as prev. A conflict on the second
// run is surfaced as ErrConflictRetryExhausted.
func (s *service) withConflictRetry(ctx context.Context, op string, fn func(ctx context.Context, prev error) error) error {
	var prev error
	backoff := retry.WithMaxRetries(1, retry.NewConstant(s.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx, prev)
		if err == nil || !isConflict(err) {
			return err
		}
		if prev == nil {
			prev = err
			s.metrics.IncConflictRetry(op)
			s.logWarn(ctx, op, "cart write conflict, re-attempting", err)
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return nil
	}
	if isConflict(err) {
		s.metrics.IncRetryExhausted(op)
		s.logError(ctx, op, "cart write conflict persisted after re-attempt", err)
		return conflictRetryExhausted(err)
	}
	if pkgerrors.As(err) != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cart "+op+" failed")
}

func isConflict(err error) bool {
	if pkgerrors.As(err) != nil {
		return false
	}
	return errors.Is(err, errRowVanished) || db.IsRetryableConflict(err)
}

func newLine(userID uuid.UUID, item *models.CatalogItem, now time.Time) *models.CartLine {
	images := make([]string, len(item.ImageURLs))
	copy(images, item.ImageURLs)
	return &models.CartLine{
		ID:              uuid.New(),
		UserID:          userID,
		ItemID:          item.ID,
		Name:            item.Name,
		Type:            item.Type,
		Available:       item.Available,
		ImageURLs:       images,
		UnitPriceCents:  item.UnitPriceCents,
		Quantity:        1,
		TotalPriceCents: item.UnitPriceCents,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *service) observe(op string, started time.Time, errp *error) {
	s.metrics.Observe(op, s.now().Sub(started), *errp)
}

func (s *service) logWarn(ctx context.Context, op, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"cart_op": op, "error": err.Error()})
	s.logg.Warn(ctx, msg)
}

func (s *service) logError(ctx context.Context, op, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
	ctx = s.logg.WithField(ctx, "cart_op", op)
	s.logg.Error(ctx, msg, err)
}
